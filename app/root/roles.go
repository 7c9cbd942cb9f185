package root

import (
	"bitwise74/community-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

type roleInfo struct {
	Role        model.Role `json:"role"`
	DisplayName string     `json:"displayName"`
}

type featureInfo struct {
	Feature model.Feature `json:"feature"`
	Roles   []model.Role  `json:"roles"`
}

// Roles lists every role and which of them can use each administrative
// feature
func Roles(c *gin.Context) {
	roles := make([]roleInfo, 0, len(model.Roles))
	for _, r := range model.Roles {
		roles = append(roles, roleInfo{Role: r, DisplayName: r.DisplayName()})
	}

	features := make([]featureInfo, 0, len(model.Features))
	for _, f := range model.Features {
		features = append(features, featureInfo{Feature: f, Roles: f.AllowedRoles()})
	}

	c.JSON(http.StatusOK, gin.H{
		"roles":    roles,
		"features": features,
	})
}
