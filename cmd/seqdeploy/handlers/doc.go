// Package handlers contains the business logic for CLI commands.
//
// Each exported function implements one command. Handlers print
// user-facing output to stdout and return wrapped errors; cobra bindings
// live in the commands package.
package handlers
