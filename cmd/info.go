package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragstack/ragstack/internal/vectordb"
)

var infoProject string

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a project's chunk count and collection state",
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoProject, "project", "p", "", "project identifier (required)")
	_ = infoCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	chunks, err := a.chunkStore(ctx)
	if err != nil {
		return err
	}

	project, err := chunks.GetProject(ctx, infoProject)
	if err != nil {
		return err
	}

	count, err := chunks.GetTotalChunksCount(ctx, project.ID)
	if err != nil {
		return err
	}

	fmt.Printf("project:        %s\n", project.ProjectID)
	fmt.Printf("stored chunks:  %d\n", count)

	assets, err := chunks.ListProjectAssets(ctx, project.ID)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		fmt.Printf("  asset %s (%s, %d bytes)\n", asset.Name, asset.Type, asset.Size)
	}

	ix, err := a.newIndexer(ctx)
	if err != nil {
		return err
	}

	info, err := ix.CollectionInfo(ctx, infoProject)
	if errors.Is(err, vectordb.ErrCollectionNotFound) {
		fmt.Println("collection:     not indexed yet")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("collection:     %s\n", info.Name)
	fmt.Printf("vectors:        %d\n", info.RecordCount)
	return nil
}
