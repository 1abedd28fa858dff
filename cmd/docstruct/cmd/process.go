package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/batch"
	"github.com/MeKo-Tech/docstruct/internal/document"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process an image, PDF, or token-page file into a structured document",
	Long: `Process runs the full structuring pipeline over the input and prints the
resulting document.

Inputs:
  image files (png, jpg, bmp)  recognized with the primary engine
  PDF files                    text layer extracted per page
  JSON files                   pre-recognized token pages

Examples:
  docstruct process scan.png
  docstruct process report.pdf --format md -o report.md
  docstruct process tokens.json --format html`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringP("format", "f", "", "output format: json, md, html, text (default from config)")
	processCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	processCmd.Flags().Int("workers", 0, "page worker count (default number of CPUs)")
	processCmd.Flags().Bool("handwriting", false, "enable the handwriting engine")
	processCmd.Flags().Bool("layout", false, "enable the layout engine")
	processCmd.Flags().String("language", "", "recognition language for all engines")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if cmd.Flags().Changed("workers") {
		cfg.Parallel.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("handwriting") {
		cfg.Engines.Handwriting.Enabled, _ = cmd.Flags().GetBool("handwriting")
	}
	if cmd.Flags().Changed("layout") {
		cfg.Engines.Layout.Enabled, _ = cmd.Flags().GetBool("layout")
	}
	if cmd.Flags().Changed("language") {
		lang, _ := cmd.Flags().GetString("language")
		cfg.Engines.Primary.Language = lang
		cfg.Engines.Handwriting.Language = lang
		cfg.Engines.Layout.Language = lang
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	pl, closeEngines, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer closeEngines()

	doc, err := batch.ProcessFile(cmd.Context(), pl, args[0])
	if err != nil {
		return err
	}

	out, err := renderDocument(doc, format)
	if err != nil {
		return err
	}

	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}
	if outputFile != "" {
		return os.WriteFile(outputFile, []byte(out), 0o644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// renderDocument serializes the document in the requested format.
func renderDocument(doc document.Document, format string) (string, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return doc.Markdown, nil
	case "html":
		return doc.HTML, nil
	case "text":
		return doc.FullTextNormalized, nil
	case "", "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode document: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}
