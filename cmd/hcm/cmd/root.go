// Package cmd implements the hcm CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/OfekItzhaki/horizon-hcm/internal/version"
	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
)

var (
	// Global flags
	outputFormat string
	dbPath       string

	// Shared store instance, opened in PersistentPreRunE
	hcmStore *store.Store
)

// skipStoreAnnotation marks commands that manage their own storage.
const skipStoreAnnotation = "hcm/skip-store"

var rootCmd = &cobra.Command{
	Use:   "hcm",
	Short: "Horizon property management backend",
	Long: `hcm runs the property management API and administers the data
behind its resource ownership checks.

Use it to serve the API, grant committee seats, evaluate a single
ownership decision, and review the authorization audit log.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}
		if _, ok := cmd.Annotations[skipStoreAnnotation]; ok {
			return nil
		}
		switch outputFormat {
		case "table", "json", "yaml":
		default:
			return clierror.InvalidConfig(fmt.Errorf("--output must be table, json, or yaml, got %q", outputFormat))
		}

		path := dbPath
		if path == "" {
			path = store.DefaultPath()
		}

		if hcmStore != nil {
			hcmStore.Close()
		}
		var err error
		hcmStore, err = store.Open(path)
		if err != nil {
			return clierror.DatabaseUnavailable(path, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if hcmStore != nil {
			hcmStore.Close()
			hcmStore = nil
		}
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for hcm.

To load completions:

Bash:
  source <(hcm completion bash)

Zsh:
  hcm completion zsh > "${fpath[1]}/_hcm"

Fish:
  hcm completion fish > ~/.config/fish/completions/hcm.fish

PowerShell:
  hcm completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.local/share/hcm/hcm.db)")
	rootCmd.AddCommand(completionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Main runs the CLI and returns the process exit code. Errors are printed
// in the selected output format.
func Main() int {
	err := Execute()
	if err == nil {
		return clierror.ExitSuccess
	}
	ce := clierror.As(err)
	clierror.PrintError(ce, outputFormat)
	return ce.ExitCode
}

// formatOutput handles output formatting based on the --output flag.
func formatOutput(w io.Writer, data interface{}) error {
	switch outputFormat {
	case "json":
		return outputJSON(w, data)
	case "yaml":
		return outputYAML(w, data)
	default:
		// Table format is handled by each command
		return nil
	}
}

func outputJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func outputYAML(w io.Writer, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(out))
	return err
}

// dash renders empty table cells.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
