package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <path>...",
	Short: "Process directories of images, PDFs, and token-page files",
	Long: `Batch discovers processable files under the given paths and runs each
through the structuring pipeline.

Examples:
  docstruct batch ./scans --recursive --format md --output-dir ./out
  docstruct batch invoices/ --include "*.pdf" --format csv -o summary.csv
  docstruct batch a.png b.png --continue-on-error`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns a file name must match")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns that exclude a file")
	batchCmd.Flags().StringP("format", "f", "json", "output format: json, md, html, text, csv")
	batchCmd.Flags().StringP("output", "o", "", "combined output file (default stdout)")
	batchCmd.Flags().String("output-dir", "", "write one output file per input into this directory")
	batchCmd.Flags().Bool("continue-on-error", false, "record per-file errors instead of aborting")
	batchCmd.Flags().Int("workers", 0, "page worker count (default number of CPUs)")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cmd.Flags().Changed("workers") {
		cfg.Parallel.Workers, _ = cmd.Flags().GetInt("workers")
	}

	bc := batch.DefaultConfig()
	bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	bc.Format, _ = cmd.Flags().GetString("format")
	bc.OutputFile, _ = cmd.Flags().GetString("output")
	bc.OutputDir, _ = cmd.Flags().GetString("output-dir")
	bc.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")

	pl, closeEngines, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer closeEngines()

	result, err := batch.Run(cmd.Context(), pl, args, bc)
	if err != nil {
		return err
	}
	if err := result.Save(bc); err != nil {
		return err
	}

	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(result.Files))
	}
	return nil
}
