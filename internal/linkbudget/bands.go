package linkbudget

// Band names an RF band with a fixed nominal carrier frequency. The
// frequencies are a compatibility surface: every exported dB value
// downstream depends on them, so they must not drift.
type Band string

const (
	BandVHF Band = "VHF"
	BandUHF Band = "UHF"
	BandL   Band = "L"
	BandS   Band = "S"
	BandC   Band = "C"
	BandX   Band = "X"
	BandKu  Band = "Ku"
	BandKa  Band = "Ka"
)

// Nominal frequencies in GHz per band.
var bandFrequencyGHz = map[Band]float64{
	BandVHF: 0.145,
	BandUHF: 0.437,
	BandL:   1.6,
	BandS:   2.2,
	BandC:   6.0,
	BandX:   8.2,
	BandKu:  12.0,
	BandKa:  26.0,
}

// FrequencyGHz returns the band's nominal frequency, or ok=false for
// an unknown band name.
func (b Band) FrequencyGHz() (float64, bool) {
	f, ok := bandFrequencyGHz[b]
	return f, ok
}
