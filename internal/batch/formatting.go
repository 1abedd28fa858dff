package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format renders the batch result in the given format. The md, html, and
// text formats concatenate per-file sections; csv emits one summary row per
// file.
func (r *Result) Format(format string) (string, error) {
	switch format {
	case "json":
		return r.formatJSON()
	case "csv":
		return r.formatCSV()
	case "md":
		return r.formatSections(func(f *FileResult) string { return f.Document.Markdown }), nil
	case "html":
		return r.formatSections(func(f *FileResult) string { return f.Document.HTML }), nil
	case "text":
		return r.formatSections(func(f *FileResult) string { return f.Document.FullTextNormalized }), nil
	default:
		return "", fmt.Errorf("invalid batch format: %q", format)
	}
}

func (r *Result) formatJSON() (string, error) {
	out := struct {
		Files []FileResult `json:"files"`
	}{Files: r.Files}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode batch result: %w", err)
	}
	return string(data), nil
}

func (r *Result) formatCSV() (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"file", "pages", "blocks", "tables", "quality", "error"}); err != nil {
		return "", err
	}
	for i := range r.Files {
		f := &r.Files[i]
		blocks := 0
		quality := 0.0
		for pi := range f.Document.Pages {
			blocks += len(f.Document.Pages[pi].Blocks)
		}
		for _, pd := range f.Document.Diagnostics.Pages {
			quality += pd.Quality.QualityScore
		}
		if n := len(f.Document.Diagnostics.Pages); n > 0 {
			quality /= float64(n)
		}
		row := []string{
			f.Path,
			strconv.Itoa(len(f.Document.Pages)),
			strconv.Itoa(blocks),
			strconv.Itoa(len(f.Document.Tables)),
			fmt.Sprintf("%.3f", quality),
			f.Err,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

func (r *Result) formatSections(render func(*FileResult) string) string {
	var sb strings.Builder
	for i := range r.Files {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "# %s\n", r.Files[i].Path)
		if r.Files[i].Err != "" {
			fmt.Fprintf(&sb, "error: %s\n", r.Files[i].Err)
			continue
		}
		sb.WriteString(render(&r.Files[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Save writes the result per configuration: one file per input under
// OutputDir, a combined OutputFile, or combined output to stdout.
func (r *Result) Save(cfg Config) error {
	if cfg.OutputDir != "" {
		return r.saveDir(cfg.OutputDir, cfg.Format)
	}

	out, err := r.Format(cfg.Format)
	if err != nil {
		return err
	}
	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(os.Stdout, out)
	return err
}

func (r *Result) saveDir(dir, format string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	ext := extensionForFormat(format)
	for i := range r.Files {
		f := &r.Files[i]
		if f.Err != "" {
			continue
		}
		single := Result{Files: []FileResult{*f}}
		out, err := single.Format(format)
		if err != nil {
			return err
		}
		base := filepath.Base(f.Path)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + ext
		if err := os.WriteFile(filepath.Join(dir, name), []byte(out), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func extensionForFormat(format string) string {
	switch format {
	case "md":
		return ".md"
	case "html":
		return ".html"
	case "csv":
		return ".csv"
	case "text":
		return ".txt"
	default:
		return ".json"
	}
}
