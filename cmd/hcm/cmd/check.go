package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("caller", "", "User id making the request (required)")
	checkCmd.Flags().String("type", "", "Resource type, e.g. Payment or Document (required)")
	checkCmd.Flags().String("id", "", "Resource id (required)")
	checkCmd.Flags().String("endpoint", "", "Endpoint recorded on the audit entry (default: cli:check)")
	checkCmd.Flags().Bool("dry-run", false, "Evaluate without writing an audit entry on denial")
}

// checkResult is the json/yaml shape of one decision.
type checkResult struct {
	Allowed      bool   `json:"allowed" yaml:"allowed"`
	Reason       string `json:"reason" yaml:"reason"`
	Caller       string `json:"caller" yaml:"caller"`
	ResourceType string `json:"resource_type" yaml:"resource_type"`
	ResourceID   string `json:"resource_id" yaml:"resource_id"`
	BuildingID   string `json:"building_id,omitempty" yaml:"building_id,omitempty"`
	Audited      bool   `json:"audited" yaml:"audited"`
	RequestID    string `json:"request_id" yaml:"request_id"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one ownership decision against the database",
	Long: `Run the authorization engine for a single request and print the decision.

Denials are written to the audit log exactly as the API would record them,
unless --dry-run is set. The command exits 2 when access is denied.

Examples:
  hcm check --caller alice --type MaintenanceRequest --id m1
  hcm check --caller bob --type Payment --id p1 -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, _ := cmd.Flags().GetString("caller")
		resourceType, _ := cmd.Flags().GetString("type")
		resourceID, _ := cmd.Flags().GetString("id")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if endpoint == "" {
			endpoint = "cli:check"
		}

		cfg := authz.DefaultConfig()
		cfg.Directory = hcmStore
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		if !dryRun {
			cfg.Audit = authz.NewStoreAuditLogger(hcmStore)
		}
		authorizer, err := authz.NewAuthorizer(cfg)
		if err != nil {
			return clierror.InternalError(err)
		}

		req := authz.Request{
			ResourceType: authz.ResourceType(resourceType),
			ResourceID:   resourceID,
			Endpoint:     endpoint,
			RequestID:    uuid.NewString(),
		}
		if caller != "" {
			req.Caller = &authz.Caller{ID: caller}
		}

		decision, err := authorizer.Authorize(cmd.Context(), req)
		if err != nil {
			return clierror.DatabaseUnavailable(dbPathOrDefault(), err)
		}

		switch decision.Reason {
		case authz.ReasonMissingCaller:
			return clierror.MissingContext("--caller")
		case authz.ReasonMissingResourceID:
			return clierror.MissingContext("--id")
		case authz.ReasonMissingResourceType:
			return clierror.MissingContext("--type")
		}

		out := cmd.OutOrStdout()
		result := checkResult{
			Allowed:      decision.Allowed,
			Reason:       string(decision.Reason),
			Caller:       caller,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			BuildingID:   decision.BuildingID,
			Audited:      decision.Audited && !dryRun,
			RequestID:    req.RequestID,
		}
		if outputFormat == "json" || outputFormat == "yaml" {
			if err := formatOutput(out, result); err != nil {
				return err
			}
		} else {
			printDecision(out, result)
		}

		if decision.Allowed {
			return nil
		}
		if !authz.KnownResourceType(req.ResourceType) {
			return clierror.UnknownResourceType(resourceType, knownResourceTypes())
		}
		if denial := decision.Err(); !authz.IsForbidden(denial) {
			return clierror.InternalError(denial)
		}
		return clierror.AccessDenied(caller, resourceType, resourceID)
	},
}

func printDecision(w io.Writer, r checkResult) {
	verdict := color.New(color.FgGreen, color.Bold).Sprint("ALLOW")
	if !r.Allowed {
		verdict = color.New(color.FgRed, color.Bold).Sprint("DENY")
	}
	fmt.Fprintf(w, "%s  %s -> %s %s (%s)\n", verdict, r.Caller, r.ResourceType, r.ResourceID, r.Reason)
	if r.BuildingID != "" {
		fmt.Fprintf(w, "  building: %s\n", r.BuildingID)
	}
	if r.Audited {
		fmt.Fprintf(w, "  audited:  request %s\n", r.RequestID)
	}
}

func knownResourceTypes() []string {
	var names []string
	for t := range authz.DefaultPolicies() {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

func dbPathOrDefault() string {
	if dbPath != "" {
		return dbPath
	}
	return store.DefaultPath()
}
