package document

// QualityStats summarizes per-page recognition quality. Scoring only, never
// used to filter content.
type QualityStats struct {
	AvgConfidence *float64 `json:"avg_conf,omitempty"`
	WordCount     int      `json:"word_count"`
	CharCount     int      `json:"char_count"`
	QualityScore  float64  `json:"quality_score"`
}

// qualityVolumeSaturation is the character count at which the text-volume
// component of the quality score saturates.
const qualityVolumeSaturation = 800.0

// ScorePage blends average token confidence with text volume into a quality
// score in [0,1]. Pages with no confidences score on volume alone.
func ScorePage(tokens []Token, text string) QualityStats {
	var confs []float64
	words := 0
	for _, t := range tokens {
		if t.Text == "" {
			continue
		}
		words++
		if t.Confidence != nil && *t.Confidence >= 0 && *t.Confidence <= 1 {
			confs = append(confs, *t.Confidence)
		}
	}

	stats := QualityStats{WordCount: words, CharCount: len(text)}

	confComponent := 0.0
	if len(confs) > 0 {
		sum := 0.0
		for _, c := range confs {
			sum += c
		}
		avg := sum / float64(len(confs))
		stats.AvgConfidence = &avg
		confComponent = avg
	}

	volume := float64(stats.CharCount) / qualityVolumeSaturation
	if volume > 1 {
		volume = 1
	}
	stats.QualityScore = 0.65*confComponent + 0.35*volume
	return stats
}
