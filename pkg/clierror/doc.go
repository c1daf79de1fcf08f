// Package clierror provides structured error handling for the hcm CLI.
//
// CLI errors include an exit code, user-facing message, and optional
// troubleshooting hints, so commands can print consistent text, JSON, or
// YAML errors and exit with a stable status.
//
// # Usage
//
//	if errors.Is(err, store.ErrNotFound) {
//	    return clierror.UserNotFound(id)
//	}
package clierror
