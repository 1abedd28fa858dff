package document

import "sort"

// ScriptShare is one entry of a page's script profile.
type ScriptShare struct {
	Script string  `json:"script"`
	Share  float64 `json:"share"`
}

// PageDiagnostics carries per-page explainability data.
type PageDiagnostics struct {
	PageNumber   int           `json:"page_number"`
	TopScripts   []ScriptShare `json:"top_scripts"`
	MixedScript  bool          `json:"mixed_script"`
	Quality      QualityStats  `json:"quality"`
	Flags        []string      `json:"flags,omitempty"`
	ErrorSummary string        `json:"error_summary,omitempty"`
}

// Diagnostics aggregates per-page diagnostics for a document.
type Diagnostics struct {
	Pages            []PageDiagnostics `json:"pages"`
	MixedScriptPages []int             `json:"mixed_script_pages,omitempty"`
	NumPages         int               `json:"num_pages"`
}

func charScript(r rune) string {
	switch {
	case (r >= 0x0041 && r <= 0x007A) || (r >= 0x00C0 && r <= 0x024F):
		return "latin"
	case r >= 0x0900 && r <= 0x097F:
		return "devanagari"
	case (r >= 0x0600 && r <= 0x06FF) || (r >= 0x0750 && r <= 0x077F) || (r >= 0x08A0 && r <= 0x08FF):
		return "arabic"
	case (r >= 0x0400 && r <= 0x04FF) || (r >= 0x0500 && r <= 0x052F):
		return "cyrillic"
	case (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3040 && r <= 0x30FF) || (r >= 0xAC00 && r <= 0xD7AF):
		return "cjk"
	case r >= '0' && r <= '9':
		return "digit"
	case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		return ""
	}
	return "other"
}

// ScriptProfile counts character scripts by Unicode range and flags pages
// whose text mixes two substantial non-digit scripts (top share >= 0.30 and
// runner-up >= 0.15).
func ScriptProfile(text string) (top []ScriptShare, mixed bool) {
	counts := map[string]int{}
	total := 0
	for _, r := range text {
		s := charScript(r)
		if s == "" {
			continue
		}
		total++
		counts[s]++
	}
	if total == 0 {
		return nil, false
	}

	type kv struct {
		script string
		share  float64
	}
	all := make([]kv, 0, len(counts))
	for k, v := range counts {
		all = append(all, kv{k, float64(v) / float64(total)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].share != all[j].share {
			return all[i].share > all[j].share
		}
		return all[i].script < all[j].script
	})

	var meaningful []kv
	for _, e := range all {
		if e.script == "digit" {
			continue
		}
		top = append(top, ScriptShare{Script: e.script, Share: e.share})
		if e.script != "other" {
			meaningful = append(meaningful, e)
		}
	}
	if len(top) > 3 {
		top = top[:3]
	}
	if len(meaningful) >= 2 {
		mixed = meaningful[0].share >= 0.30 && meaningful[1].share >= 0.15
	}
	return top, mixed
}
