package main

import (
	"bitwise74/community-api/app"
	"bitwise74/community-api/cloudflare"
	"bitwise74/community-api/config"
	"bitwise74/community-api/db"
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/internal/service"
	"bitwise74/community-api/pkg/middleware"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := app.MakeLogger(viper.GetString("app.log_level")); err != nil {
		panic(err)
	}

	defer zap.L().Sync()

	gdb, err := db.New(viper.GetString("db.driver"), viper.GetString("db.dsn"))
	if err != nil {
		zap.L().Fatal("Failed to open database", zap.Error(err))
	}

	d, err := app.NewDeps(gdb, app.ConfigFromViper())
	if err != nil {
		zap.L().Fatal("Failed to create dependencies", zap.Error(err))
	}

	defer d.MailQueue.Close()

	if assignment := config.SetRoleFlag(); assignment != "" {
		if err := setRole(d.RoleAdmin, assignment); err != nil {
			zap.L().Error("Failed to set role", zap.Error(err))
			d.MailQueue.Close()
			os.Exit(1)
		}

		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service.StartCleanup(ctx, viper.GetDuration("session.cleanup_interval"), map[string]service.Cleaner{
		"sessions":            d.Sessions,
		"verification tokens": d.Verification,
	})

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: viper.GetFloat64("security.rate_limit"),
	})
	limiter.StartCleanup(ctx)

	opts := app.RouterOptions{
		CORSOrigins: viper.GetStringSlice("app.cors_origins"),
		RateLimiter: limiter,
	}

	if viper.GetBool("cloudflare.turnstile.enabled") {
		t, err := cloudflare.NewTurnstile(viper.GetString("cloudflare.turnstile.secret_token"), "", nil)
		if err != nil {
			zap.L().Fatal("Failed to create turnstile client", zap.Error(err))
		}

		opts.Turnstile = t
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("host.port")),
		Handler:           app.NewRouter(d, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		var err error
		if viper.GetBool("host.ssl.enabled") {
			err = srv.ListenAndServeTLS(viper.GetString("host.ssl.certificate_path"), viper.GetString("host.ssl.certificate_key_path"))
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down gracefully", zap.Error(err))
	}
}

func setRole(a *service.RoleAdmin, assignment string) error {
	email, name, err := config.ParseSetRole(assignment)
	if err != nil {
		return err
	}

	role, err := model.ParseRole(name)
	if err != nil {
		return err
	}

	u, err := a.SetRole(context.Background(), email, role)
	if err != nil {
		if detail := service.Detail(err); detail != err.Error() {
			return fmt.Errorf("%w, %s", err, detail)
		}

		return err
	}

	zap.L().Info("Role set", zap.String("email", u.Email), zap.String("role", u.Role.DisplayName()))
	return nil
}
