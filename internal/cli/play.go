package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/catalog"
	"mathtoys-quiz/internal/client"
	"mathtoys-quiz/internal/config"
	"mathtoys-quiz/internal/domain"
	"mathtoys-quiz/internal/tui"
)

// NewPlayCmd runs a quiz in the terminal, standalone or against a server.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		quizID    string
		dataDir   string
		serverURL string
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		Long: "Play a quiz in the terminal. Without --server the question bank is read\n" +
			"from the data directory and the quiz runs locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			if dataDir == "" {
				dataDir = cfg.Server.DataDir
			}

			var driver tui.Driver
			if serverURL != "" {
				driver, err = remoteDriver(cmd.Context(), cmd.OutOrStdout(), serverURL, quizID)
			} else {
				driver, err = localDriver(cmd.Context(), cmd.OutOrStdout(), dataDir, quizID, seed, cfg.Quiz.OptionCount)
			}
			if err != nil || driver == nil {
				return err
			}
			return tui.Run(driver)
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id (lists the catalog when empty)")
	cmd.Flags().StringVar(&dataDir, "data", "", "data directory (defaults to server.data_dir)")
	cmd.Flags().StringVar(&serverURL, "server", "", "play against a running server, e.g. http://localhost:8080")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed for local play (0 = random)")
	return cmd
}

func localDriver(ctx context.Context, out io.Writer, dataDir, quizID string, seed int64, optionCount int) (tui.Driver, error) {
	cat, err := catalog.Open(os.DirFS(dataDir))
	if err != nil {
		return nil, err
	}
	if quizID == "" {
		configs, _ := cat.ListQuizzes(ctx)
		printCatalog(out, configs)
		return nil, nil
	}
	quiz, err := cat.LoadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := quiz.Validate(optionCount); err != nil {
		return nil, err
	}
	return tui.NewLocalDriver(quiz, app.NewRandom(seed), app.WithOptionCount(optionCount)), nil
}

func remoteDriver(ctx context.Context, out io.Writer, serverURL, quizID string) (tui.Driver, error) {
	c, err := client.New(serverURL)
	if err != nil {
		return nil, err
	}
	configs, err := c.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if quizID == "" {
		printCatalog(out, configs)
		return nil, nil
	}
	for _, cfg := range configs {
		if cfg.ID == quizID {
			return tui.NewRemoteDriver(c, cfg), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrQuizNotFound, quizID)
}

func printCatalog(out io.Writer, configs []domain.QuizConfig) {
	fmt.Fprintln(out, "Available quizzes (pass one with --quiz):")
	for _, cfg := range configs {
		fmt.Fprintf(out, "  %-24s %s %s\n", cfg.ID, cfg.Emoji, cfg.Name)
	}
}
