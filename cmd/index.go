package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragstack/ragstack/internal/indexer"
)

var (
	indexProject string
	indexReset   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed a project's stored chunks into its vector collection",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexProject, "project", "p", "", "project identifier (required)")
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "drop and recreate the collection before indexing")
	_ = indexCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ix, err := a.newIndexer(ctx)
	if err != nil {
		return err
	}

	inserted, err := ix.Run(ctx, indexProject, indexReset)
	if errors.Is(err, indexer.ErrNoChunks) {
		return fmt.Errorf("project %s has no chunks; run ingest first", indexProject)
	}
	if err != nil {
		return err
	}

	fmt.Printf("project %s: %d vectors indexed\n", indexProject, inserted)
	return nil
}
