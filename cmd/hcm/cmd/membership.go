package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
	"github.com/OfekItzhaki/horizon-hcm/pkg/timeutil"
)

func init() {
	rootCmd.AddCommand(membershipCmd)
	membershipCmd.AddCommand(membershipGrantCmd)
	membershipCmd.AddCommand(membershipRevokeCmd)
	membershipCmd.AddCommand(membershipListCmd)

	membershipGrantCmd.Flags().String("role", "member", "Committee role (informational)")

	membershipListCmd.Flags().String("building", "", "Only seats on this building")
	membershipListCmd.Flags().String("user", "", "Only seats held by this user")
}

// membershipView is the json/yaml shape of one committee seat.
type membershipView struct {
	BuildingID string `json:"building_id" yaml:"building_id"`
	UserID     string `json:"user_id" yaml:"user_id"`
	Role       string `json:"role" yaml:"role"`
	GrantedAt  string `json:"granted_at" yaml:"granted_at"`
}

var membershipCmd = &cobra.Command{
	Use:     "membership",
	Aliases: []string{"committee"},
	Short:   "Manage building committee seats",
	Long: `Committee members may read and manage every apartment, payment, and
maintenance request in their building. Any seat grants that access; the
role is informational.`,
}

var membershipGrantCmd = &cobra.Command{
	Use:   "grant <building> <user>",
	Short: "Give a user a committee seat on a building",
	Long: `Give a user a committee seat on a building. Granting an existing seat
updates its role.

Examples:
  hcm membership grant b1 bob
  hcm membership grant b1 bob@example.com --role chair`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		role, _ := cmd.Flags().GetString("role")

		building, err := hcmStore.GetBuilding(ctx, args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return clierror.BuildingNotFound(args[0])
			}
			return clierror.DatabaseUnavailable(dbPathOrDefault(), err)
		}
		user, err := hcmStore.GetUser(ctx, args[1])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return clierror.UserNotFound(args[1])
			}
			return clierror.DatabaseUnavailable(dbPathOrDefault(), err)
		}

		if err := hcmStore.AddMembership(ctx, building.ID, user.ID, role); err != nil {
			return clierror.InternalError(err)
		}

		out := cmd.OutOrStdout()
		if outputFormat == "json" || outputFormat == "yaml" {
			return formatOutput(out, map[string]any{
				"status":      "granted",
				"building_id": building.ID,
				"user_id":     user.ID,
				"role":        role,
			})
		}
		fmt.Fprintf(out, "Granted %s a committee seat on %s (%s).\n", user.ID, building.Name, role)
		return nil
	},
}

var membershipRevokeCmd = &cobra.Command{
	Use:     "revoke <building> <user>",
	Aliases: []string{"remove"},
	Short:   "Remove a user's committee seat",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		buildingID, userID := args[0], args[1]
		err := hcmStore.RemoveMembership(cmd.Context(), buildingID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return clierror.MembershipNotFound(buildingID, userID)
		}
		if err != nil {
			return clierror.InternalError(err)
		}

		out := cmd.OutOrStdout()
		if outputFormat == "json" || outputFormat == "yaml" {
			return formatOutput(out, map[string]any{
				"status":      "revoked",
				"building_id": buildingID,
				"user_id":     userID,
			})
		}
		fmt.Fprintf(out, "Revoked %s's committee seat on %s.\n", userID, buildingID)
		return nil
	},
}

var membershipListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List committee seats",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		building, _ := cmd.Flags().GetString("building")
		user, _ := cmd.Flags().GetString("user")

		members, err := hcmStore.ListMemberships(cmd.Context(), store.MembershipFilter{
			BuildingID: building,
			UserID:     user,
		})
		if err != nil {
			return clierror.DatabaseUnavailable(dbPathOrDefault(), err)
		}

		out := cmd.OutOrStdout()
		if outputFormat != "table" {
			views := make([]membershipView, 0, len(members))
			for _, m := range members {
				views = append(views, membershipView{
					BuildingID: m.BuildingID,
					UserID:     m.UserID,
					Role:       m.Role,
					GrantedAt:  m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
				})
			}
			return formatOutput(out, views)
		}

		if len(members) == 0 {
			fmt.Fprintln(out, "No committee seats found. Use 'hcm membership grant' to add one.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BUILDING\tUSER\tROLE\tGRANTED")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.BuildingID, m.UserID, dash(m.Role), timeutil.Relative(m.CreatedAt))
		}
		return w.Flush()
	},
}
