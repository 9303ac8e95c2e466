// Package cmd implements the redactctl command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"universal-redaction/internal/report"
	"universal-redaction/pkg/redactclient"
)

// rootOptions holds the global flags and the objects derived from them.
type rootOptions struct {
	serverURL string
	apiKey    string
	output    string
	noColor   bool

	client *redactclient.Client
}

// NewRootCmd builds the redactctl command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "redactctl",
		Short: "Sensitive data redaction CLI",
		Long: `redactctl finds sensitive entities in text, masks or removes them and
scores the result against a ground truth.

scan sends text to a redaction server for detection. redact and evaluate run
the alignment engine locally on detector output you already have.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := report.ParseFormat(o.output); err != nil {
				return err
			}
			var err error
			o.client, err = redactclient.New(redactclient.Config{
				BaseURL: o.serverURL,
				APIKey:  o.apiKey,
			})
			return err
		},
	}

	root.PersistentFlags().StringVar(&o.serverURL, "url", "http://localhost:8080", "Redaction server URL")
	root.PersistentFlags().StringVar(&o.apiKey, "key", "", "Admin API key (required for reload)")
	root.PersistentFlags().StringVarP(&o.output, "output", "o", "text", "Output format: text, json or yaml")
	root.PersistentFlags().BoolVar(&o.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newScanCmd(o),
		newRedactCmd(o),
		newEvaluateCmd(o),
		newReloadCmd(o),
		newTypesCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// renderer returns a renderer for the --output format writing to w. Colors are
// used for text output on a terminal unless --no-color is set.
func (o *rootOptions) renderer(w io.Writer) *report.Renderer {
	format, err := report.ParseFormat(o.output)
	if err != nil {
		format = report.FormatText
	}

	useColor := false
	if format == report.FormatText && !o.noColor {
		if f, ok := w.(*os.File); ok {
			useColor = report.IsTerminal(f)
		}
	}
	return report.New(format, useColor)
}
