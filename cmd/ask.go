package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askProject    string
	askTopK       int
	askShowPrompt bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question grounded in a project's indexed chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askProject, "project", "p", "", "project identifier (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 10, "how many documents to retrieve")
	askCmd.Flags().BoolVar(&askShowPrompt, "show-prompt", false, "print the assembled prompt before the answer")
	_ = askCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	question := strings.Join(args, " ")
	answer, err := composer.Answer(ctx, askProject, question, askTopK)
	if err != nil {
		return err
	}
	if answer == nil {
		fmt.Println("no relevant documents found; nothing to answer from")
		return nil
	}

	if askShowPrompt {
		fmt.Println("--- prompt ---")
		fmt.Println(answer.FullPrompt)
		fmt.Println("--- answer ---")
	}
	fmt.Println(answer.Text)
	return nil
}
