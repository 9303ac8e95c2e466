package cmd

import (
	"github.com/spf13/cobra"

	"universal-redaction/internal/models"
	"universal-redaction/internal/redaction"
)

func newRedactCmd(o *rootOptions) *cobra.Command {
	var (
		in           inputFlags
		entitiesFile string
		mode         string
		expectedFile string
	)

	cmd := &cobra.Command{
		Use:   "redact",
		Short: "Redact a document locally using detector output from a file",
		Long: `redact locates the entities listed in --entities in the document, in order,
and masks (MASK) or removes (REDACT) them. No server is contacted.

The entities file is JSON: [{"text": "...", "type": "PERSON"}, ...] or
{"entities": [...]}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := redaction.ParseMode(mode)
			if err != nil {
				return err
			}
			text, err := in.read()
			if err != nil {
				return err
			}
			dets, err := readDetections(entitiesFile)
			if err != nil {
				return err
			}
			expected, err := readOptionalFile(expectedFile)
			if err != nil {
				return err
			}

			res := redaction.Run(redaction.Input{
				Text:       text,
				Detections: dets,
				Mode:       m,
				Expected:   expected,
			})

			w := cmd.OutOrStdout()
			return o.renderer(w).Redaction(w, models.NewRedactionResponse("", m, res))
		},
	}

	cmd.Flags().StringVarP(&in.text, "text", "t", "", "Text content to redact")
	cmd.Flags().StringVarP(&in.file, "file", "f", "", "File path to redact")
	cmd.Flags().BoolVar(&in.sample, "sample", false, "Redact the built-in sample document")
	cmd.Flags().StringVarP(&entitiesFile, "entities", "e", "", "JSON file with detector output")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(redaction.ModeMask), "Redaction mode: MASK or REDACT")
	cmd.Flags().StringVar(&expectedFile, "expected", "", "File holding the expected redacted output")
	_ = cmd.MarkFlagRequired("entities")
	return cmd
}
