package commands

import (
	"os"
	"strconv"

	"github.com/mrusso19/picshuttle/internal/cli/output"
	"github.com/spf13/cobra"
)

var foldersOutput string

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List guest folders on the gallery server",
	Long: `List the guest folders known to the gallery server, with the number
of photos in each.

Examples:
  # List folders
  picshuttle folders

  # As JSON
  picshuttle folders --output json`,
	RunE: runFolders,
}

func init() {
	foldersCmd.Flags().StringVarP(&foldersOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runFolders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(foldersOutput)
	if err != nil {
		return err
	}

	client, err := newGalleryClient(cfg)
	if err != nil {
		return err
	}

	folders, err := client.ListFolders(cmd.Context())
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, folders)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, folders)
	default:
		table := output.NewTableData("Folder", "Photos")
		for _, folder := range folders {
			table.AddRow(folder.Name, strconv.Itoa(folder.PhotoCount))
		}
		return output.PrintTable(os.Stdout, table)
	}
}
