package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchProject string
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the chunks closest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "project identifier (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "maximum number of results")
	_ = searchCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	composer, err := a.newComposer(ctx)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	docs, err := composer.Search(ctx, searchProject, query, searchLimit)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("no matches")
		return nil
	}

	for i, doc := range docs {
		fmt.Printf("%d. score=%.4f\n%s\n\n", i+1, doc.Score, doc.Text)
	}
	return nil
}
