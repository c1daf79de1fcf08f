package clierror

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Exit codes returned by hcm.
const (
	ExitSuccess  = 0 // Operation completed successfully
	ExitGeneral  = 1 // Unknown/unhandled error
	ExitDenied   = 2 // Authorization check denied the request
	ExitConfig   = 3 // Invalid configuration or flags
	ExitNotFound = 4 // Resource doesn't exist
	ExitDatabase = 5 // Database unreachable or failing
)

// Error codes (strings) for programmatic error handling
const (
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeMissingContext      = "MISSING_CONTEXT"
	CodeUnknownResourceType = "UNKNOWN_RESOURCE_TYPE"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeBuildingNotFound    = "BUILDING_NOT_FOUND"
	CodeMembershipNotFound  = "MEMBERSHIP_NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidConfig       = "INVALID_CONFIG"
	CodeDatabaseUnavailable = "DATABASE_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// CLIError represents a structured error for CLI output.
type CLIError struct {
	Code      string `json:"code" yaml:"code"`
	Message   string `json:"message" yaml:"message"`
	Hint      string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Retryable bool   `json:"retryable" yaml:"retryable"`
	ExitCode  int    `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// AccessDenied reports a denied ownership check.
func AccessDenied(caller, resourceType, resourceID string) *CLIError {
	return &CLIError{
		Code:     CodeAccessDenied,
		Message:  fmt.Sprintf("%s may not access %s %s", caller, resourceType, resourceID),
		Hint:     fmt.Sprintf("Grant committee access with 'hcm membership grant <building> %s'", caller),
		ExitCode: ExitDenied,
	}
}

// MissingContext reports a check that was rejected before evaluation.
func MissingContext(what string) *CLIError {
	return &CLIError{
		Code:     CodeMissingContext,
		Message:  fmt.Sprintf("missing %s", what),
		Hint:     "Pass --caller, --type, and --id",
		ExitCode: ExitConfig,
	}
}

// UnknownResourceType reports a type with no policy row.
func UnknownResourceType(resourceType string, known []string) *CLIError {
	return &CLIError{
		Code:     CodeUnknownResourceType,
		Message:  fmt.Sprintf("unknown resource type '%s'", resourceType),
		Hint:     "Known types: " + strings.Join(known, ", "),
		ExitCode: ExitConfig,
	}
}

// UserNotFound creates an error when a user doesn't exist.
func UserNotFound(id string) *CLIError {
	return &CLIError{
		Code:     CodeUserNotFound,
		Message:  fmt.Sprintf("user '%s' not found", id),
		Hint:     "Load sample data with 'hcm seed' or check the id",
		ExitCode: ExitNotFound,
	}
}

// BuildingNotFound creates an error when a building doesn't exist.
func BuildingNotFound(id string) *CLIError {
	return &CLIError{
		Code:     CodeBuildingNotFound,
		Message:  fmt.Sprintf("building '%s' not found", id),
		ExitCode: ExitNotFound,
	}
}

// MembershipNotFound creates an error when revoking a seat that doesn't exist.
func MembershipNotFound(buildingID, userID string) *CLIError {
	return &CLIError{
		Code:     CodeMembershipNotFound,
		Message:  fmt.Sprintf("'%s' is not on the committee of building '%s'", userID, buildingID),
		Hint:     fmt.Sprintf("List seats with 'hcm membership list --building %s'", buildingID),
		ExitCode: ExitNotFound,
	}
}

// AlreadyExists creates an error when a resource already exists.
func AlreadyExists(resource, name string) *CLIError {
	return &CLIError{
		Code:     CodeAlreadyExists,
		Message:  fmt.Sprintf("%s '%s' already exists", resource, name),
		Hint:     "Use a different id or remove the existing record first",
		ExitCode: ExitGeneral,
	}
}

// InvalidConfig reports a configuration file or flag problem.
func InvalidConfig(err error) *CLIError {
	return &CLIError{
		Code:     CodeInvalidConfig,
		Message:  fmt.Sprintf("invalid configuration: %v", err),
		Hint:     "Check the file passed to --config and HCM_* environment variables",
		ExitCode: ExitConfig,
	}
}

// DatabaseUnavailable creates an error when the store cannot be opened or queried.
func DatabaseUnavailable(target string, err error) *CLIError {
	return &CLIError{
		Code:      CodeDatabaseUnavailable,
		Message:   fmt.Sprintf("database '%s' unavailable: %v", target, err),
		Hint:      "Check --db or database.dsn and that the database is reachable",
		Retryable: true,
		ExitCode:  ExitDatabase,
	}
}

// InternalError creates an error for unexpected internal errors.
func InternalError(err error) *CLIError {
	msg := "an unexpected internal error occurred"
	if err != nil {
		msg = fmt.Sprintf("internal error: %s", err.Error())
	}
	return &CLIError{
		Code:     CodeInternalError,
		Message:  msg,
		ExitCode: ExitGeneral,
	}
}

// FormatError returns the error formatted for the given output format:
// "json", "yaml", or anything else for human-readable text.
func FormatError(err *CLIError, outputFormat string) string {
	switch outputFormat {
	case "json":
		data, jsonErr := json.MarshalIndent(err, "", "  ")
		if jsonErr != nil {
			return fmt.Sprintf(`{"code":"%s","message":"%s"}`, err.Code, err.Message)
		}
		return string(data)
	case "yaml":
		data, yamlErr := yaml.Marshal(err)
		if yamlErr != nil {
			return fmt.Sprintf("code: %s\nmessage: %q", err.Code, err.Message)
		}
		return strings.TrimRight(string(data), "\n")
	}

	output := fmt.Sprintf("Error [%s]: %s", err.Code, err.Message)
	if err.Hint != "" {
		output += fmt.Sprintf("\nHint: %s", err.Hint)
	}
	return output
}

// PrintError prints the error to stderr in the appropriate format.
func PrintError(err *CLIError, outputFormat string) {
	FprintError(os.Stderr, err, outputFormat)
}

// FprintError writes the error to w. Text output gets a red prefix when w
// is a terminal.
func FprintError(w io.Writer, err *CLIError, outputFormat string) {
	if outputFormat == "json" || outputFormat == "yaml" {
		fmt.Fprintln(w, FormatError(err, outputFormat))
		return
	}
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", red("Error ["+err.Code+"]:"), err.Message)
	if err.Hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", err.Hint)
	}
}

// As converts err to a CLIError, wrapping unknown errors as internal.
func As(err error) *CLIError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CLIError); ok {
		return ce
	}
	return InternalError(err)
}
