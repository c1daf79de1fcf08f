package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OfekItzhaki/horizon-hcm/internal/testutil/cli"
	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
)

func TestMembershipCmd_GrantChangesDecision(t *testing.T) {
	db := seededDB(t)
	check := []string{"--db", db, "check", "--caller", "alice", "--type", "Apartment", "--id", "a1"}

	cli.Run(rootCmd, check...).AssertExitCode(t, clierror.ExitDenied, clierror.CodeAccessDenied)

	result := cli.Run(rootCmd, "--db", db, "membership", "grant", "b1", "alice@example.com", "--role", "treasurer")
	result.AssertSuccess(t)
	result.AssertContains(t, "Granted alice a committee seat on Herzl 12 (treasurer).")

	cli.Run(rootCmd, check...).AssertSuccess(t)

	cli.Run(rootCmd, "--db", db, "membership", "revoke", "b1", "alice").AssertSuccess(t)
	cli.Run(rootCmd, check...).AssertExitCode(t, clierror.ExitDenied, clierror.CodeAccessDenied)
}

func TestMembershipCmd_GrantErrors(t *testing.T) {
	db := seededDB(t)

	cli.Run(rootCmd, "--db", db, "membership", "grant", "b9", "alice").
		AssertExitCode(t, clierror.ExitNotFound, clierror.CodeBuildingNotFound)
	cli.Run(rootCmd, "--db", db, "membership", "grant", "b1", "ghost").
		AssertExitCode(t, clierror.ExitNotFound, clierror.CodeUserNotFound)
	cli.Run(rootCmd, "--db", db, "membership", "revoke", "b2", "bob").
		AssertExitCode(t, clierror.ExitNotFound, clierror.CodeMembershipNotFound)
}

func TestMembershipCmd_List(t *testing.T) {
	db := seededDB(t)
	cli.Run(rootCmd, "--db", db, "membership", "grant", "b2", "carol").AssertSuccess(t)

	t.Run("Table", func(t *testing.T) {
		result := cli.Run(rootCmd, "--db", db, "membership", "list")
		result.AssertSuccess(t)
		result.AssertContains(t, "BUILDING")
		result.AssertContains(t, "chair")
		result.AssertContains(t, "carol")
	})

	t.Run("FilteredJSON", func(t *testing.T) {
		result := cli.Run(rootCmd, "--db", db, "-o", "json", "membership", "list", "--building", "b2")
		result.AssertSuccess(t)

		var seats []membershipView
		result.DecodeJSON(t, &seats)
		require.Len(t, seats, 1)
		assert.Equal(t, "carol", seats[0].UserID)
		assert.Equal(t, "member", seats[0].Role)
	})

	t.Run("EmptyJSONIsArray", func(t *testing.T) {
		result := cli.Run(rootCmd, "--db", db, "-o", "json", "membership", "list", "--user", "nobody")
		result.AssertSuccess(t)
		assert.Equal(t, "[]\n", result.Stdout)
	})

	t.Run("EmptyTable", func(t *testing.T) {
		result := cli.Run(rootCmd, "--db", db, "membership", "list", "--user", "nobody")
		result.AssertSuccess(t)
		result.AssertContains(t, "No committee seats found.")
	})
}
