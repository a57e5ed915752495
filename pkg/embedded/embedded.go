// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
//   - templates/dashboard.html - the portfolio form and report page
//
//go:embed templates
var Files embed.FS

// DashboardTemplate is the path of the dashboard page inside Files.
const DashboardTemplate = "templates/dashboard.html"
