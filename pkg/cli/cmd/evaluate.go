package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"universal-redaction/internal/redaction"
	"universal-redaction/internal/report"
)

func newEvaluateCmd(o *rootOptions) *cobra.Command {
	var (
		expectedFile string
		actualFiles  []string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score redacted outputs against an expected output",
		Long: `evaluate compares one or more system outputs with the expected output and
reports the similarity, the edit distance and a character diff for each.
Reports are printed in the order the --actual files were given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := readOptionalFile(expectedFile)
			if err != nil {
				return err
			}
			if expected == "" {
				return fmt.Errorf("expected output %s is empty", expectedFile)
			}

			reports := make([]report.EvaluationReport, len(actualFiles))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, path := range actualFiles {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					actual, err := readOptionalFile(path)
					if err != nil {
						return err
					}
					reports[i] = report.EvaluationReport{
						Label:      path,
						Evaluation: redaction.Evaluate(expected, actual),
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return o.renderer(w).Evaluations(w, reports)
		},
	}

	cmd.Flags().StringVar(&expectedFile, "expected", "", "File holding the expected output")
	cmd.Flags().StringArrayVar(&actualFiles, "actual", nil, "File holding a system output (repeatable)")
	_ = cmd.MarkFlagRequired("expected")
	_ = cmd.MarkFlagRequired("actual")
	return cmd
}
