package clierror

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

func TestExitCodesDistinct(t *testing.T) {
	codes := []int{ExitSuccess, ExitGeneral, ExitDenied, ExitConfig, ExitNotFound, ExitDatabase}
	seen := map[int]bool{}
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate exit code %d", c)
		}
		seen[c] = true
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *CLIError
		code     string
		exit     int
		contains string
	}{
		{"AccessDenied", AccessDenied("u1", "Document", "d1"), CodeAccessDenied, ExitDenied, "u1 may not access Document d1"},
		{"MissingContext", MissingContext("caller"), CodeMissingContext, ExitConfig, "missing caller"},
		{"UnknownResourceType", UnknownResourceType("Poll", []string{"Apartment"}), CodeUnknownResourceType, ExitConfig, "'Poll'"},
		{"UserNotFound", UserNotFound("u9"), CodeUserNotFound, ExitNotFound, "'u9'"},
		{"BuildingNotFound", BuildingNotFound("b9"), CodeBuildingNotFound, ExitNotFound, "'b9'"},
		{"MembershipNotFound", MembershipNotFound("b1", "u1"), CodeMembershipNotFound, ExitNotFound, "committee"},
		{"AlreadyExists", AlreadyExists("user", "u1"), CodeAlreadyExists, ExitGeneral, "already exists"},
		{"InvalidConfig", InvalidConfig(errors.New("bad port")), CodeInvalidConfig, ExitConfig, "bad port"},
		{"DatabaseUnavailable", DatabaseUnavailable("hcm.db", errors.New("locked")), CodeDatabaseUnavailable, ExitDatabase, "locked"},
		{"InternalError", InternalError(errors.New("boom")), CodeInternalError, ExitGeneral, "internal error: boom"},
		{"InternalErrorNil", InternalError(nil), CodeInternalError, ExitGeneral, "unexpected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.ExitCode != tt.exit {
				t.Errorf("ExitCode = %d, want %d", tt.err.ExitCode, tt.exit)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("message %q missing %q", tt.err.Error(), tt.contains)
			}
		})
	}
	if !DatabaseUnavailable("x", nil).Retryable {
		t.Error("database errors should be retryable")
	}
}

func TestFormatError_JSON(t *testing.T) {
	out := FormatError(UserNotFound("u1"), "json")

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if decoded["code"] != CodeUserNotFound {
		t.Errorf("code = %v", decoded["code"])
	}
	if _, ok := decoded["ExitCode"]; ok {
		t.Error("exit code must not be serialized")
	}
}

func TestFormatError_YAML(t *testing.T) {
	out := FormatError(BuildingNotFound("b1"), "yaml")

	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("not YAML: %v\n%s", err, out)
	}
	if decoded["code"] != CodeBuildingNotFound {
		t.Errorf("code = %v", decoded["code"])
	}
	if _, ok := decoded["hint"]; ok {
		t.Error("empty hint should be omitted")
	}
}

func TestFormatError_Text(t *testing.T) {
	got := FormatError(MembershipNotFound("b1", "u1"), "table")
	want := "Error [MEMBERSHIP_NOT_FOUND]: 'u1' is not on the committee of building 'b1'\nHint: List seats with 'hcm membership list --building b1'"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestFprintError_Text(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	FprintError(&buf, InternalError(errors.New("x")), "table")
	if got := buf.String(); got != "Error [INTERNAL_ERROR]: internal error: x\n" {
		t.Errorf("got %q", got)
	}
}

func TestAs(t *testing.T) {
	if As(nil) != nil {
		t.Error("As(nil) should be nil")
	}
	ce := UserNotFound("u1")
	if As(ce) != ce {
		t.Error("As should return CLIError unchanged")
	}
	if As(errors.New("x")).Code != CodeInternalError {
		t.Error("plain errors should become internal errors")
	}
}
