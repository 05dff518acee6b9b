package commands

import (
	"fmt"

	"github.com/mrusso19/picshuttle/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Create a commented configuration file with default values.

The file is written to $XDG_CONFIG_HOME/picshuttle/config.yaml unless
--config points somewhere else.

Examples:
  # Create config at the default location
  picshuttle init

  # Create config at a custom path
  picshuttle init --config ~/wedding/picshuttle.yaml

  # Overwrite an existing config
  picshuttle init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	var configPath string
	var err error

	if GetConfigFile() != "" {
		configPath = GetConfigFile()
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set server.url to your gallery server")
	fmt.Println("  2. Upload photos with: picshuttle upload <files...>")
	fmt.Println("  3. Or watch a folder with: picshuttle watch <dir>")
	return nil
}
