package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/watch"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-root]",
	Short: "Ingest a directory of documents into the index",
	Long: `Scans the source root, detects new, changed and removed files via
checksums, and brings the index up to date. Re-running on an unchanged
corpus is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the source root and re-ingest on changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	root := args[0]

	if ingestWatch {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Watching %s (ctrl-c to stop)\n", root)
		err := watch.New(app.ingestor, root).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	report, err := app.ingestor.Run(cmd.Context(), root)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Ingested %s in %s\n", report.Root, report.Duration.Round(time.Millisecond))
	cmd.Printf("  new:     %d\n", report.New)
	cmd.Printf("  changed: %d\n", report.Changed)
	cmd.Printf("  skipped: %d\n", report.Skipped)
	cmd.Printf("  removed: %d\n", report.Removed)
	cmd.Printf("  chunks:  %d\n", report.ChunksWritten)

	if report.Aborted {
		cmd.Println("  run aborted by embedding provider failure; completed work is preserved")
	}
	for _, fe := range report.Errors {
		cmd.Printf("  error: %s: %s\n", fe.Path, fe.Err)
	}
}
