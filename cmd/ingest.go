package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragstack/ragstack/internal/store"
)

var ingestProject string

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Split documents into chunks and store them for a project",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "", "project identifier (required)")
	_ = ingestCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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
	split, err := a.newSplitter()
	if err != nil {
		return err
	}

	project, err := chunks.GetOrCreateProject(ctx, ingestProject)
	if err != nil {
		return err
	}

	totalChunks := 0
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		name := filepath.Base(path)
		asset, err := chunks.CreateAsset(ctx, store.Asset{
			ProjectID: project.ID,
			Name:      name,
			Type:      "file",
			Size:      int64(len(content)),
		})
		if err != nil {
			return err
		}

		// Re-ingesting a file replaces its chunks instead of stacking them.
		if _, err := chunks.DeleteChunksByAssetID(ctx, asset.ID); err != nil {
			return err
		}

		pieces := split.Split(string(content), map[string]string{"source": name})
		if len(pieces) == 0 {
			fmt.Printf("%s: nothing to ingest\n", name)
			continue
		}

		records := make([]store.DataChunk, len(pieces))
		for i, piece := range pieces {
			records[i] = store.DataChunk{
				ProjectID: project.ID,
				AssetID:   asset.ID,
				Text:      piece.Text,
				Metadata:  piece.Metadata,
				Order:     i + 1,
			}
		}

		inserted, err := chunks.InsertManyChunks(ctx, records, a.cfg.InsertBatchSize)
		if err != nil {
			return err
		}
		totalChunks += inserted
		fmt.Printf("%s: %d chunks\n", name, inserted)
	}

	fmt.Printf("project %s: %d chunks stored\n", ingestProject, totalChunks)
	return nil
}
