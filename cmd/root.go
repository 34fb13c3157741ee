package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ragstack",
	Short: "ragstack - ingest documents, index them as vectors, and ask questions over them",
	Long: `ragstack manages a retrieval-augmented answering pipeline per project:

  ingest   split documents into chunks and store them
  index    embed stored chunks into the project's vector collection
  search   query the collection for the closest chunks
  ask      answer a question grounded in the retrieved chunks

Chunks live in PostgreSQL; vectors live in an embedded database or in
PostgreSQL with pgvector, depending on configuration.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
