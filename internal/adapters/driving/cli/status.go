package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  `Reports the store location, the embedding configuration it was built with, and source/chunk counts.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	ctx := cmd.Context()
	vs := app.store.VectorStore()

	cmd.Printf("store:     %s\n", app.store.Path())

	meta, err := vs.Meta(ctx)
	if err != nil {
		return fmt.Errorf("reading store meta: %w", err)
	}
	if meta == nil {
		cmd.Println("provider:  (empty index)")
	} else {
		cmd.Printf("provider:  %s\n", meta.ProviderID)
		cmd.Printf("dimension: %d\n", meta.Dimension)
	}

	stats, err := vs.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading store stats: %w", err)
	}
	cmd.Printf("sources:   %d\n", stats.Sources)
	cmd.Printf("chunks:    %d\n", stats.Chunks)

	return nil
}
