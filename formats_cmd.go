package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/ttsbytes/internal/tts"
	"github.com/spf13/cobra"
)

var showDeprecated bool

var formatsCmd = &cobra.Command{
	Use:     "formats",
	Short:   "List the output formats",
	Long:    paragraph(fmt.Sprintf("\n%s the output format names accepted by --format, with their encoding and sample rate.", keyword("List"))),
	Example: paragraph("ttsbytes formats\nttsbytes formats --deprecated"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return printFormats(os.Stdout, showDeprecated)
	},
}

func init() {
	formatsCmd.Flags().BoolVar(&showDeprecated, "deprecated", false, "include deprecated aliases")
}

func printFormats(w io.Writer, withDeprecated bool) error {
	name := lipgloss.NewStyle().Width(22)
	enc := lipgloss.NewStyle().Width(11)

	for _, n := range tts.FormatNames(withDeprecated) {
		f, err := tts.GetOutputFormat(n)
		if err != nil {
			return err
		}

		label := n
		if n == tts.DefaultFormatName {
			label = keyword(n)
		}
		line := name.Render(label) + enc.Render(f.Encoding) + fmt.Sprintf("%6d Hz", f.SampleRate)
		if tts.IsDeprecatedFormat(n) {
			line += " " + faint("(deprecated)")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
