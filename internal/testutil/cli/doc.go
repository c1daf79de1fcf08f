// Package cli provides shared test utilities for testing the hcm cobra
// commands.
//
// # Basic Usage
//
// Execute a command and check output:
//
//	result := cli.Run(rootCmd, "--db", cli.TempDBPath(t, "hcm"), "seed")
//	result.AssertSuccess(t)
//	result.AssertContains(t, "Seeded")
//
// Run resets every flag in the command tree before executing, so tests that
// share a package-level root command do not see each other's flag values.
//
// # Exit Codes
//
// Commands report failures as clierror.CLIError values. AssertExitCode
// checks both the process exit code and the error code:
//
//	result := cli.Run(rootCmd, "--db", db, "check", "--caller", "alice", "--type", "Apartment", "--id", "a1")
//	result.AssertExitCode(t, clierror.ExitDenied, clierror.CodeAccessDenied)
//
// # Structured Output
//
// With -o json, decode stdout directly:
//
//	var seats []map[string]string
//	cli.Run(rootCmd, "-o", "json", "membership", "list").DecodeJSON(t, &seats)
package cli
