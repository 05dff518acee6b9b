package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mrusso19/picshuttle/internal/bytesize"
	"github.com/mrusso19/picshuttle/internal/cli/output"
	"github.com/mrusso19/picshuttle/internal/cli/prompt"
	"github.com/mrusso19/picshuttle/pkg/journal"
	"github.com/mrusso19/picshuttle/pkg/upload"
	"github.com/spf13/cobra"
)

var (
	statusOutput string
	statusClear  bool
	statusForce  bool
)

var statusCmd = &cobra.Command{
	Use:   "status [local-id]",
	Short: "Show journaled upload sessions",
	Long: `Show the upload sessions recorded in the local journal.

Without arguments, lists all sessions newest first. With a local ID,
shows the details of a single session.

Examples:
  # List all sessions
  picshuttle status

  # Show one session
  picshuttle status 1db56a9d-7c44-4d3f-9038-1f0c1dbd6da7

  # Remove completed sessions from the journal
  picshuttle status --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
	statusCmd.Flags().BoolVar(&statusClear, "clear", false, "Remove completed sessions from the journal")
	statusCmd.Flags().BoolVar(&statusForce, "force", false, "Skip confirmation for --clear")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.IsEnabled() {
		return fmt.Errorf("journal is disabled in the configuration")
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = j.Close() }()

	if statusClear {
		return clearCompleted(j)
	}

	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return showSession(j, args[0], format)
	}
	return listSessions(j, format)
}

func listSessions(j *journal.Journal, format output.Format) error {
	records, err := j.List()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, records)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, records)
	default:
		if len(records) == 0 {
			fmt.Println("No journaled uploads.")
			return nil
		}
		table := output.NewTableData("Started", "File", "Guest", "State", "Progress", "Size", "Local ID")
		for _, rec := range records {
			progress := ""
			if rec.TotalChunks > 0 {
				progress = fmt.Sprintf("%d/%d", rec.CompletedChunks(), rec.TotalChunks)
			}
			table.AddRow(
				rec.StartedAt.Local().Format("Jan 2 15:04"),
				rec.Filename,
				rec.Guest,
				rec.State,
				progress,
				bytesize.ByteSize(rec.Size).String(),
				rec.LocalID,
			)
		}
		return output.PrintTable(os.Stdout, table)
	}
}

func showSession(j *journal.Journal, localID string, format output.Format) error {
	rec, err := j.Get(localID)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, rec)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, rec)
	default:
		pairs := [][2]string{
			{"Local ID", rec.LocalID},
			{"Upload ID", rec.UploadID},
			{"File", rec.Path},
			{"Guest", rec.Guest},
			{"State", rec.State},
			{"Size", bytesize.ByteSize(rec.Size).String()},
			{"Chunks", strconv.Itoa(rec.CompletedChunks()) + "/" + strconv.Itoa(rec.TotalChunks)},
			{"Started", rec.StartedAt.Local().Format(time.RFC1123)},
			{"Updated", rec.UpdatedAt.Local().Format(time.RFC1123)},
		}
		if rec.Error != "" {
			pairs = append(pairs, [2]string{"Error", rec.Error})
		}
		return output.SimpleTable(os.Stdout, pairs)
	}
}

func clearCompleted(j *journal.Journal) error {
	records, err := j.List()
	if err != nil {
		return err
	}

	var completed []*journal.Record
	for _, rec := range records {
		if rec.State == upload.StateCompleted.String() {
			completed = append(completed, rec)
		}
	}
	if len(completed) == 0 {
		fmt.Println("No completed sessions to clear.")
		return nil
	}

	ok, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Remove %d completed sessions from the journal?", len(completed)), statusForce)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	for _, rec := range completed {
		if err := j.Delete(rec.LocalID); err != nil {
			return err
		}
	}
	fmt.Printf("Removed %d sessions.\n", len(completed))
	return nil
}
