package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
)

// CommandResult captures the output and error from a command execution.
type CommandResult struct {
	Stdout string
	Stderr string
	Err    error
}

// Run executes a cobra command with the given arguments and captures output.
// Flags on the whole command tree are reset to their defaults first, so
// values from an earlier Run in the same test binary do not leak in.
//
// Example:
//
//	result := cli.Run(rootCmd, "--db", dbPath, "audit", "list")
//	result.AssertSuccess(t)
//	result.AssertContains(t, "No denials recorded.")
func Run(cmd *cobra.Command, args ...string) *CommandResult {
	ResetFlags(cmd)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}
}

// ResetFlags restores every flag on cmd and its subcommands to its default
// value and clears the Changed bit.
func ResetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		ResetFlags(sub)
	}
}

// ExitCode returns the code the CLI would exit with for this result.
func (r *CommandResult) ExitCode() int {
	if r.Err == nil {
		return clierror.ExitSuccess
	}
	return clierror.As(r.Err).ExitCode
}

// AssertSuccess fails the test if the command returned an error.
func (r *CommandResult) AssertSuccess(t *testing.T) {
	t.Helper()
	if r.Err != nil {
		t.Fatalf("expected command to succeed, got error: %v\nstdout: %s\nstderr: %s",
			r.Err, r.Stdout, r.Stderr)
	}
}

// AssertError fails the test if the command did not return an error.
func (r *CommandResult) AssertError(t *testing.T) {
	t.Helper()
	if r.Err == nil {
		t.Fatalf("expected command to fail, but it succeeded\nstdout: %s", r.Stdout)
	}
}

// AssertExitCode fails the test unless the command maps to the given exit
// code and, when code is non-zero, failed with a CLIError carrying errCode.
func (r *CommandResult) AssertExitCode(t *testing.T, code int, errCode string) {
	t.Helper()
	if got := r.ExitCode(); got != code {
		t.Fatalf("expected exit code %d, got %d (err: %v)", code, got, r.Err)
	}
	if code == clierror.ExitSuccess {
		return
	}
	if got := clierror.As(r.Err).Code; got != errCode {
		t.Errorf("expected error code %s, got %s", errCode, got)
	}
}

// AssertContains fails the test if stdout does not contain the expected string.
func (r *CommandResult) AssertContains(t *testing.T, expected string) {
	t.Helper()
	if !strings.Contains(r.Stdout, expected) {
		t.Errorf("expected stdout to contain %q, got:\n%s", expected, r.Stdout)
	}
}

// AssertNotContains fails the test if stdout contains the unexpected string.
func (r *CommandResult) AssertNotContains(t *testing.T, unexpected string) {
	t.Helper()
	if strings.Contains(r.Stdout, unexpected) {
		t.Errorf("expected stdout NOT to contain %q, got:\n%s", unexpected, r.Stdout)
	}
}

// AssertStderrContains fails the test if stderr does not contain the expected string.
func (r *CommandResult) AssertStderrContains(t *testing.T, expected string) {
	t.Helper()
	if !strings.Contains(r.Stderr, expected) {
		t.Errorf("expected stderr to contain %q, got:\n%s", expected, r.Stderr)
	}
}

// DecodeJSON unmarshals stdout into v, failing the test on invalid JSON.
func (r *CommandResult) DecodeJSON(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(r.Stdout), v); err != nil {
		t.Fatalf("stdout is not valid JSON: %v\n%s", err, r.Stdout)
	}
}

// TempDBPath returns a database path inside a fresh temp directory.
// The file is not created; the command under test opens it.
func TempDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

// WriteConfigFile writes content to a file in a fresh temp directory and
// returns its path.
//
// Example:
//
//	path := cli.WriteConfigFile(t, "hcm.yaml", "server:\n  listen_addr: 127.0.0.1:0\n")
func WriteConfigFile(t *testing.T, filename, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}
