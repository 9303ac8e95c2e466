package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"universal-redaction/internal/models"
	"universal-redaction/pkg/redactclient"
)

func newScanCmd(o *rootOptions) *cobra.Command {
	var (
		in           inputFlags
		mode         string
		expectedFile string
		rid          string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Detect and redact sensitive entities using the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := in.read()
			if err != nil {
				return err
			}
			expected, err := readOptionalFile(expectedFile)
			if err != nil {
				return err
			}

			opts := []redactclient.DetectOption{redactclient.WithMode(mode)}
			if expected != "" {
				opts = append(opts, redactclient.WithExpected(expected))
			}
			if rid != "" {
				opts = append(opts, redactclient.WithRID(rid))
			}

			resp, err := o.client.DetectText(cmd.Context(), text, opts...)
			if err != nil {
				return fmt.Errorf("detection failed: %w", err)
			}

			// The client and server types share one wire format.
			raw, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			var out models.RedactionResponse
			if err := json.Unmarshal(raw, &out); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return o.renderer(w).Redaction(w, out)
		},
	}

	cmd.Flags().StringVarP(&in.text, "text", "t", "", "Text content to scan")
	cmd.Flags().StringVarP(&in.file, "file", "f", "", "File path to scan")
	cmd.Flags().BoolVar(&in.sample, "sample", false, "Scan the built-in sample document")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Redaction mode: MASK or REDACT (server default when empty)")
	cmd.Flags().StringVar(&expectedFile, "expected", "", "File holding the expected redacted output")
	cmd.Flags().StringVar(&rid, "rid", "", "Request ID for audit logs")
	return cmd
}
