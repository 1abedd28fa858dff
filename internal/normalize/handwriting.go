package normalize

import (
	"math"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// Handwriting detection thresholds. Empirically tuned against the heuristic
// corpus; keep in sync with the score cutoffs documented in DESIGN.md rather
// than re-deriving them.
const (
	// HandwrittenScoreCutoff is the minimum score to label a block handwritten.
	HandwrittenScoreCutoff = 0.70
	// PrintedConfCutoff is the minimum average confidence to label printed.
	PrintedConfCutoff = 0.70
	// printedMaxHeightCV is the maximum height variation for a printed label.
	printedMaxHeightCV = 0.25
	// emptyBlockScore is the fixed moderate score for token-less blocks.
	emptyBlockScore = 0.25
	// fewTokenThreshold switches to the bounded small-sample scoring path.
	fewTokenThreshold = 5

	lowConfWeight      = 0.45
	heightVarWeight    = 0.40
	tokenNoiseWeight   = 0.25
	digitPenaltyWeight = 0.30
)

// normalizeConfidence maps a raw engine confidence to [0,1]; values above 1
// are treated as a 0..100 scale. Negative values are discarded.
func normalizeConfidence(c float64) (float64, bool) {
	if c < 0 || math.IsNaN(c) {
		return 0, false
	}
	if c > 1 {
		c = math.Min(100, c) / 100.0
	}
	return c, true
}

func blockConfidence(tokens []document.Token) *float64 {
	var sum float64
	n := 0
	for _, t := range tokens {
		if t.Confidence == nil {
			continue
		}
		if c, ok := normalizeConfidence(*t.Confidence); ok {
			sum += c
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// DetectHandwriting classifies the script of a single block. Deliberately
// conservative: the handwritten label requires multiple agreeing signals, and
// sparse blocks can only ever come back unknown with a bounded score plus a
// fallback hint so the orchestrator may retry with a specialized engine.
func DetectHandwriting(b *document.Block) (document.Script, float64, document.HandwritingSignals) {
	tokens := b.Tokens()
	n := len(tokens)

	if n == 0 {
		return document.ScriptUnknown, emptyBlockScore, document.HandwritingSignals{
			Reason:       "no_words",
			FallbackHint: true,
		}
	}

	shortCount := 0
	digitCount := 0
	for _, t := range tokens {
		if len(t.Text) <= 2 {
			shortCount++
		}
		if isAllDigits(t.Text) {
			digitCount++
		}
	}
	shortRatio := float64(shortCount) / float64(n)
	avgConf := blockConfidence(tokens)

	if n < fewTokenThreshold {
		score := 0.0
		if avgConf != nil {
			switch {
			case *avgConf <= 0.45:
				score += 0.45
			case *avgConf <= 0.55:
				score += 0.25
			}
		}
		if shortRatio >= 0.60 {
			score += 0.25
		}
		score = math.Max(0.15, math.Min(0.65, score))
		return document.ScriptUnknown, score, document.HandwritingSignals{
			Reason:          "few_words",
			WordCount:       n,
			AvgConfidence:   avgConf,
			ShortTokenRatio: shortRatio,
			FallbackHint:    true,
		}
	}

	digitRatio := float64(digitCount) / float64(n)

	var heightCV *float64
	{
		var hs []float64
		for _, t := range tokens {
			if h := float64(t.Bbox.Height()); h > 0 {
				hs = append(hs, h)
			}
		}
		if len(hs) > 0 {
			var sum float64
			for _, h := range hs {
				sum += h
			}
			mean := sum / float64(len(hs))
			if mean > 0 {
				var varSum float64
				for _, h := range hs {
					varSum += (h - mean) * (h - mean)
				}
				cv := math.Sqrt(varSum/float64(len(hs))) / mean
				heightCV = &cv
			}
		}
	}

	var sLowConf float64
	if avgConf != nil {
		switch {
		case *avgConf <= 0.45:
			sLowConf = 1.0
		case *avgConf <= 0.55:
			sLowConf = 0.5
		}
	}

	var sHeightVar float64
	if heightCV != nil {
		switch {
		case *heightCV >= 0.45:
			sHeightVar = 1.0
		case *heightCV >= 0.30:
			sHeightVar = 0.6
		}
	}

	var sTokenNoise float64
	switch {
	case shortRatio >= 0.60:
		sTokenNoise = 1.0
	case shortRatio >= 0.45:
		sTokenNoise = 0.5
	}

	var sDigitPenalty float64
	if digitRatio >= 0.55 {
		sDigitPenalty = 0.6
	}

	score := lowConfWeight*sLowConf + heightVarWeight*sHeightVar +
		tokenNoiseWeight*sTokenNoise - digitPenaltyWeight*sDigitPenalty
	score = math.Max(0, math.Min(1, score))

	script := document.ScriptUnknown
	switch {
	case score >= HandwrittenScoreCutoff && (sLowConf > 0 || sHeightVar > 0):
		script = document.ScriptHandwritten
	case avgConf != nil && *avgConf >= PrintedConfCutoff && (heightCV == nil || *heightCV < printedMaxHeightCV):
		script = document.ScriptPrinted
	}

	return script, score, document.HandwritingSignals{
		WordCount:       n,
		AvgConfidence:   avgConf,
		ShortTokenRatio: shortRatio,
		DigitRatio:      digitRatio,
		HeightCV:        heightCV,
		LowConf:         sLowConf,
		HeightVariance:  sHeightVar,
		TokenNoise:      sTokenNoise,
		DigitPenalty:    sDigitPenalty,
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
