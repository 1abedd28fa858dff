package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions lists the input types the pipeline can process:
// raster images, PDFs with a text layer, and token-page JSON files.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".pdf":  true,
	".json": true,
}

// DiscoverFiles expands the given paths into the sorted list of processable
// files. Directory arguments are scanned, recursively when configured.
// Explicit file arguments bypass the extension gate but not the patterns.
func DiscoverFiles(paths []string, cfg Config) ([]string, error) {
	var files []string

	for _, arg := range paths {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, cfg)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if includeFile(arg, cfg.IncludePatterns, cfg.ExcludePatterns) {
			files = append(files, arg)
		}
	}

	sort.Strings(files)
	return files, nil
}

func discoverInDirectory(dir string, cfg Config) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !cfg.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if includeFile(path, cfg.IncludePatterns, cfg.ExcludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// includeFile applies exclude patterns first, then requires a match against
// the include patterns when any are set.
func includeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
