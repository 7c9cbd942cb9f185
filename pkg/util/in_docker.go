// Package util contains any functions used across the application that don't match
// any other package
package util

import "os"

// containerMarkers are files created by docker and podman inside containers
var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

func IsRunningInDocker() bool {
	for _, m := range containerMarkers {
		if _, err := os.Stat(m); err == nil {
			return true
		}
	}

	return false
}
