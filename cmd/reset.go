package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragstack/ragstack/internal/vectordb"
)

var resetProject string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop a project's vector collection (stored chunks are kept)",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().StringVarP(&resetProject, "project", "p", "", "project identifier (required)")
	_ = resetCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
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

	err = ix.ResetCollection(ctx, resetProject)
	if errors.Is(err, vectordb.ErrCollectionNotFound) {
		fmt.Printf("project %s has no collection to reset\n", resetProject)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("project %s: collection dropped\n", resetProject)
	return nil
}
