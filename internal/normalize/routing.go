package normalize

import (
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// Page aggregation thresholds (share of blocks).
const (
	pageHandwrittenRatio = 0.60
	pageMixedRatio       = 0.20
	pagePrintedRatio     = 0.60
)

// Token-level page classification thresholds.
const (
	routePrintedConf = 0.65
	routeMixedConf   = 0.35
	routeShortRatio  = 0.55
)

// ClassifyPage gives an early page-level script estimate from the raw token
// stream, before blocks exist. The block-level aggregation may later override
// this, but only toward handwritten/mixed.
func ClassifyPage(tokens []document.Token) (document.PageScript, document.RoutingStats) {
	var confs []float64
	n := 0
	short := 0
	for _, t := range tokens {
		txt := strings.TrimSpace(t.Text)
		if txt == "" {
			continue
		}
		n++
		if len(txt) <= 2 {
			short++
		}
		if t.Confidence != nil && *t.Confidence >= 0 && *t.Confidence <= 1 {
			confs = append(confs, *t.Confidence)
		}
	}

	stats := document.RoutingStats{WordCount: n, ShortTokenRatio: 1.0}
	if n > 0 {
		stats.ShortTokenRatio = float64(short) / float64(n)
	}
	if len(confs) > 0 {
		sum := 0.0
		for _, c := range confs {
			sum += c
		}
		avg := sum / float64(len(confs))
		stats.AvgConfidence = &avg
	}

	switch {
	case n == 0:
		return document.PageUnknown, stats
	case stats.AvgConfidence != nil && *stats.AvgConfidence >= routePrintedConf:
		return document.PagePrinted, stats
	case stats.AvgConfidence != nil && *stats.AvgConfidence <= routeMixedConf && stats.ShortTokenRatio >= routeShortRatio:
		return document.PageMixed, stats
	}
	return document.PageUnknown, stats
}

// AggregatePageScript folds per-block script labels into a page label.
func AggregatePageScript(scripts []document.Script) (document.PageScript, document.RoutingStats) {
	total := len(scripts)
	if total == 0 {
		return document.PageUnknown, document.RoutingStats{UnknownRatio: 1.0}
	}

	hw, pr := 0, 0
	for _, s := range scripts {
		switch s {
		case document.ScriptHandwritten:
			hw++
		case document.ScriptPrinted:
			pr++
		}
	}
	hwR := float64(hw) / float64(total)
	prR := float64(pr) / float64(total)
	stats := document.RoutingStats{
		HandwrittenRatio: hwR,
		PrintedRatio:     prR,
		UnknownRatio:     float64(total-hw-pr) / float64(total),
		BlockCount:       total,
	}

	switch {
	case hwR >= pageHandwrittenRatio:
		return document.PageHandwritten, stats
	case hwR >= pageMixedRatio:
		return document.PageMixed, stats
	case prR >= pagePrintedRatio:
		return document.PagePrinted, stats
	}
	return document.PageUnknown, stats
}
