package detection

// Postprocessor transforms a detection list. Postprocessors never modify their
// input slice.
type Postprocessor func([]Detection) []Detection

// NewScoreFilter drops scored detections below min. Unscored detections
// (Haar, HOG) carry no confidence and are kept.
func NewScoreFilter(min float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Scored && d.Confidence < min {
				continue
			}
			out = append(out, d)
		}
		return out
	}
}

// NewAreaFilter drops detections whose box area is below min pixels.
func NewAreaFilter(min int) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Area() >= min {
				out = append(out, d)
			}
		}
		return out
	}
}

// ChainFilters applies filters in order. Nil filters are skipped; with no
// filters the result is an unmodified copy.
func ChainFilters(filters ...Postprocessor) Postprocessor {
	return func(in []Detection) []Detection {
		out := append([]Detection(nil), in...)
		for _, f := range filters {
			if f != nil {
				out = f(out)
			}
		}
		return out
	}
}
