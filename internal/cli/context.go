// Package cli provides the command-line interface for the harvest application.
package cli

import (
	"github.com/record-harvest/harvest/internal/app"
)

// globalApp holds the initialized application for the lifetime of one
// command invocation.
var globalApp *app.Application

// SetApp stores the Application for command handlers.
func SetApp(a *app.Application) {
	globalApp = a
}

// GetApp retrieves the Application, or nil before initialization.
func GetApp() *app.Application {
	return globalApp
}
