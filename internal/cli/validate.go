package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mathtoys-quiz/internal/catalog"
	"mathtoys-quiz/internal/config"
)

// NewValidateCmd checks a data directory without starting anything.
func NewValidateCmd(configPath *string) *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check quiz_config.json and every question file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			if dataDir == "" {
				dataDir = cfg.Server.DataDir
			}

			report := catalog.Validate(os.DirFS(dataDir), cfg.Quiz.OptionCount)
			out := cmd.OutOrStdout()
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "FAIL %s\n", issue)
			}
			fmt.Fprintf(out, "%d quizzes, %d questions, %d problems\n",
				report.Quizzes, report.Questions, len(report.Issues))
			if !report.OK() {
				return fmt.Errorf("%s: %d problems found", dataDir, len(report.Issues))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "data directory (defaults to server.data_dir)")
	return cmd
}
