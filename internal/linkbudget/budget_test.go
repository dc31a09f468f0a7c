package linkbudget

import (
	"math"
	"testing"
)

// TestComputeUHFScenario pins the closed-form result for the reference
// scenario: UHF, 10 dBW, gains 5/20 dBi, 20 kHz, 290 K, range 1200 km.
func TestComputeUHFScenario(t *testing.T) {
	cfg := DefaultConfig() // matches the scenario exactly

	res, err := Compute(1200.0, 10.0, cfg)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// Closed-form expectation with f = 0.437 GHz.
	fspl := 92.45 + 20.0*math.Log10(0.437) + 20.0*math.Log10(1200.0)
	eirp := 10.0 + 5.0
	prx := eirp + 20.0 - fspl - 1.0 - 0.0 - 0.5
	ktb := -228.6 + 10.0*math.Log10(290.0) + 10.0*math.Log10(20000.0)
	snr := prx - (ktb + 2.0)

	if math.Abs(res.FSPLdB-fspl) > 1e-6 {
		t.Errorf("FSPL = %.9f dB, want %.9f", res.FSPLdB, fspl)
	}
	if math.Abs(res.SNRdB-snr) > 1e-6 {
		t.Errorf("SNR = %.9f dB, want %.9f", res.SNRdB, snr)
	}
	if math.Abs(res.MarginDB-(snr-3.0)) > 1e-6 {
		t.Errorf("margin = %.9f dB, want %.9f", res.MarginDB, snr-3.0)
	}
}

// TestComputePure: identical inputs must give bit-identical outputs.
func TestComputePure(t *testing.T) {
	cfg := DefaultConfig()
	a, err1 := Compute(987.654, 32.1, cfg)
	b, err2 := Compute(987.654, 32.1, cfg)
	if err1 != nil || err2 != nil {
		t.Fatalf("Compute failed: %v / %v", err1, err2)
	}
	if a != b {
		t.Errorf("Compute is not pure: %+v vs %+v", a, b)
	}
}

// TestComputeTxPowerLinearity: +X dBW of transmit power is exactly
// +X dB of SNR.
func TestComputeTxPowerLinearity(t *testing.T) {
	base := DefaultConfig()
	boosted := base
	boosted.TxPowerDBW += 7.5

	r0, err := Compute(800, 45, base)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	r1, err := Compute(800, 45, boosted)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if diff := r1.SNRdB - r0.SNRdB; math.Abs(diff-7.5) > 1e-9 {
		t.Errorf("SNR delta = %.12f dB for +7.5 dBW, want exactly 7.5", diff)
	}
}

// TestComputeRangeDoubling: doubling range costs 20·log10(2) ≈ 6.0206 dB.
func TestComputeRangeDoubling(t *testing.T) {
	cfg := DefaultConfig()

	near, err := Compute(600, 30, cfg)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	far, err := Compute(1200, 30, cfg)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	want := 20.0 * math.Log10(2.0)
	if diff := near.SNRdB - far.SNRdB; math.Abs(diff-want) > 1e-9 {
		t.Errorf("SNR delta = %.12f dB for 2× range, want %.12f", diff, want)
	}
}

func TestComputeRejectsBadRange(t *testing.T) {
	cfg := DefaultConfig()
	for _, r := range []float64{0, -1, math.Inf(1)} {
		if _, err := Compute(r, 10, cfg); err == nil {
			t.Errorf("Compute(range=%v) succeeded, want error", r)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown band", func(c *Config) { c.Band = "Q" }, false},
		{"zero bandwidth", func(c *Config) { c.BandwidthHz = 0 }, false},
		{"negative bandwidth", func(c *Config) { c.BandwidthHz = -1 }, false},
		{"zero noise temp", func(c *Config) { c.SystemNoiseTempK = 0 }, false},
		{"NaN noise temp", func(c *Config) { c.SystemNoiseTempK = math.NaN() }, false},
		{"negative rain loss", func(c *Config) { c.RainLossDB = -0.1 }, false},
		{"negative noise figure", func(c *Config) { c.NoiseFigureDB = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate failed: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate succeeded, want error")
			}
		})
	}
}

func TestOverridesApply(t *testing.T) {
	band := BandKa
	pow := 25.0
	o := Overrides{Band: &band, TxPowerDBW: &pow}

	cfg := o.Apply(DefaultConfig())
	if cfg.Band != BandKa {
		t.Errorf("band = %q, want Ka", cfg.Band)
	}
	if cfg.TxPowerDBW != 25.0 {
		t.Errorf("tx power = %v, want 25", cfg.TxPowerDBW)
	}
	// Untouched fields keep defaults.
	if cfg.RxGainDBi != 20.0 || cfg.BandwidthHz != 20000.0 {
		t.Errorf("defaults disturbed: %+v", cfg)
	}
}

func TestCosecantLoss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RainLossDB = 2.0
	cfg.ElevationLoss = CosecantLoss{}

	// At zenith the scale is 1: identical to the unhooked budget.
	hooked, err := Compute(1000, 90, cfg)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	plain := cfg
	plain.ElevationLoss = nil
	unhooked, err := Compute(1000, 90, plain)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if math.Abs(hooked.SNRdB-unhooked.SNRdB) > 1e-9 {
		t.Errorf("zenith SNR with hook = %.9f, without = %.9f", hooked.SNRdB, unhooked.SNRdB)
	}

	// At 30° elevation the losses double (1/sin 30° = 2): 1 dB atm +
	// 2 dB rain become 6 dB total, costing 3 dB of SNR.
	low, err := Compute(1000, 30, cfg)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if diff := hooked.SNRdB - low.SNRdB; math.Abs(diff-3.0) > 1e-9 {
		t.Errorf("SNR cost at 30° = %.9f dB, want 3.0", diff)
	}

	// Below the floor the scale is pinned, no blowup at the horizon.
	horizon, err := Compute(1000, 0, cfg)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	atFloor, err := Compute(1000, 5, cfg)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if math.Abs(horizon.SNRdB-atFloor.SNRdB) > 1e-9 {
		t.Errorf("horizon SNR %.9f != floor SNR %.9f", horizon.SNRdB, atFloor.SNRdB)
	}
}
