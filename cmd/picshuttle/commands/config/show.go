package config

import (
	"os"

	"github.com/mrusso19/picshuttle/internal/cli/output"
	"github.com/mrusso19/picshuttle/pkg/config"
	"github.com/spf13/cobra"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective picshuttle configuration after defaults and
environment overrides are applied.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show effective config as YAML
  picshuttle config show

  # Show as JSON
  picshuttle config show --output json

  # Show a specific config file
  picshuttle config show --config ~/wedding/picshuttle.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	// Get config path from the root command's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}
