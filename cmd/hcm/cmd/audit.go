package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
	"github.com/OfekItzhaki/horizon-hcm/pkg/timeutil"
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)

	auditListCmd.Flags().String("user", "", "Only denials for this user")
	auditListCmd.Flags().String("type", "", "Only denials for this resource type")
	auditListCmd.Flags().Duration("since", 0, "Only denials newer than this, e.g. 24h")
	auditListCmd.Flags().IntP("limit", "n", 50, "Maximum entries to show (0 for all)")
}

// auditView is the json/yaml shape of one audit entry.
type auditView struct {
	ID           int64  `json:"id" yaml:"id"`
	Timestamp    string `json:"timestamp" yaml:"timestamp"`
	RequestID    string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	UserID       string `json:"user_id" yaml:"user_id"`
	Action       string `json:"action" yaml:"action"`
	ResourceType string `json:"resource_type" yaml:"resource_type"`
	ResourceID   string `json:"resource_id" yaml:"resource_id"`
	Reason       string `json:"reason" yaml:"reason"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the authorization audit log",
}

var auditListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List denied ownership checks, newest first",
	Long: `List denied ownership checks, newest first.

Examples:
  hcm audit list
  hcm audit list --user alice --since 24h
  hcm audit list --type Document -n 10 -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		resourceType, _ := cmd.Flags().GetString("type")
		since, _ := cmd.Flags().GetDuration("since")
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return clierror.InvalidConfig(fmt.Errorf("--limit must not be negative"))
		}

		filter := store.AuditFilter{
			UserID:       user,
			ResourceType: resourceType,
			Limit:        limit,
		}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		records, err := hcmStore.QueryAuditEntries(cmd.Context(), filter)
		if err != nil {
			return clierror.DatabaseUnavailable(dbPathOrDefault(), err)
		}

		out := cmd.OutOrStdout()
		if outputFormat != "table" {
			views := make([]auditView, 0, len(records))
			for _, r := range records {
				views = append(views, auditView{
					ID:           r.ID,
					Timestamp:    r.Timestamp.UTC().Format(time.RFC3339),
					RequestID:    r.RequestID,
					UserID:       r.UserID,
					Action:       r.Action,
					ResourceType: r.ResourceType,
					ResourceID:   r.ResourceID,
					Reason:       r.Metadata.Reason,
					Endpoint:     r.Metadata.Endpoint,
				})
			}
			return formatOutput(out, views)
		}

		if len(records) == 0 {
			fmt.Fprintln(out, "No denials recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tAGE\tUSER\tRESOURCE\tENDPOINT\tREASON")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s/%s\t%s\t%s\n",
				r.ID, timeutil.Relative(r.Timestamp), r.UserID,
				r.ResourceType, r.ResourceID, dash(r.Metadata.Endpoint), r.Metadata.Reason)
		}
		return w.Flush()
	},
}
