package util

// Delta returns curr - prev, or 0 if curr < prev (counter wrap or
// accounting anomaly).
func Delta(prev, curr uint64) uint64 {
	if curr < prev {
		return 0
	}
	return curr - prev
}

// Pct returns part/whole*100, or 0 for an empty whole.
func Pct(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
