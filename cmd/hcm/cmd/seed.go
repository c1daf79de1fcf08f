package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a small demo dataset",
	Long: `Load two buildings, three residents, and one of each owned resource.

  b1 Herzl 12        apartments a1 (alice), a2 (carol); bob chairs the committee
  b2 Dizengoff 50    apartment a3; no committee

  p1  payment for a1            m1  maintenance request by alice
  n1  announcement by bob       d1  document uploaded by carol

Try:
  hcm check --caller bob --type Payment --id p1
  hcm check --caller carol --type MaintenanceRequest --id m1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if _, err := hcmStore.GetBuilding(ctx, "b1"); err == nil {
			return clierror.AlreadyExists("building", "b1")
		} else if !errors.Is(err, store.ErrNotFound) {
			return clierror.DatabaseUnavailable(dbPathOrDefault(), err)
		}

		if err := seedDemo(ctx, hcmStore); err != nil {
			return clierror.InternalError(err)
		}

		out := cmd.OutOrStdout()
		if outputFormat == "json" || outputFormat == "yaml" {
			return formatOutput(out, map[string]any{
				"status":    "seeded",
				"buildings": []string{"b1", "b2"},
				"users":     []string{"alice", "bob", "carol"},
			})
		}
		fmt.Fprintln(out, "Seeded 2 buildings, 3 users, and sample resources.")
		return nil
	},
}

func seedDemo(ctx context.Context, s *store.Store) error {
	due := time.Now().AddDate(0, 1, 0).Truncate(24 * time.Hour)

	steps := []func() error{
		func() error { return s.AddBuilding(ctx, "b1", "Herzl 12", "12 Herzl St, Tel Aviv") },
		func() error { return s.AddBuilding(ctx, "b2", "Dizengoff 50", "50 Dizengoff St, Tel Aviv") },
		func() error { return s.AddUser(ctx, "alice", "alice@example.com", "Alice Levi") },
		func() error { return s.AddUser(ctx, "bob", "bob@example.com", "Bob Cohen") },
		func() error { return s.AddUser(ctx, "carol", "carol@example.com", "Carol Mizrahi") },
		func() error { return s.AddApartment(ctx, "a1", "b1", "1") },
		func() error { return s.AddApartment(ctx, "a2", "b1", "2") },
		func() error { return s.AddApartment(ctx, "a3", "b2", "1") },
		func() error { return s.AddMembership(ctx, "b1", "bob", "chair") },
		func() error {
			return s.AddPayment(ctx, &store.Payment{ID: "p1", ApartmentID: "a1", AmountCents: 45000, DueAt: &due})
		},
		func() error { return s.AddMaintenanceRequest(ctx, "m1", "b1", "alice", "Leaking pipe in stairwell") },
		func() error {
			return s.AddAnnouncement(ctx, &store.Announcement{ID: "n1", BuildingID: "b1", AuthorID: "bob",
				Title: "Elevator service", Body: "The elevator is out of service on Sunday morning."})
		},
		func() error {
			return s.AddDocument(ctx, &store.Document{ID: "d1", BuildingID: "b1", UploadedBy: "carol", Name: "insurance-2026.pdf"})
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
