package linkbudget

import (
	"fmt"
	"math"
)

// Config is a fully resolved RF configuration. Every field is concrete;
// use DefaultConfig and Overrides.Apply to fill unspecified fields with
// the documented defaults. The zero value is not usable.
type Config struct {
	Band             Band    `json:"band"`
	TxPowerDBW       float64 `json:"tx_power_dbw"`
	TxGainDBi        float64 `json:"tx_gain_dbi"`
	RxGainDBi        float64 `json:"rx_gain_dbi"`
	BandwidthHz      float64 `json:"bandwidth_hz"`
	SystemNoiseTempK float64 `json:"system_noise_temp_k"`
	NoiseFigureDB    float64 `json:"noise_figure_db"`
	AtmosLossDB      float64 `json:"atm_loss_db"`
	RainLossDB       float64 `json:"rain_loss_db"`
	PointingLossDB   float64 `json:"pointing_loss_db"`
	RequiredSNRDB    float64 `json:"required_snr_db"`

	// ElevationLoss optionally modulates the configured atmospheric
	// and rain losses by elevation angle (e.g. slant-path scaling).
	// nil means the configured losses apply as-is at every elevation.
	ElevationLoss ElevationLossModel `json:"-"`
}

// DefaultConfig returns the documented defaults: a UHF ground station
// with a modest yagi and a 20 kHz channel.
func DefaultConfig() Config {
	return Config{
		Band:             BandUHF,
		TxPowerDBW:       10.0,
		TxGainDBi:        5.0,
		RxGainDBi:        20.0,
		BandwidthHz:      20000.0,
		SystemNoiseTempK: 290.0,
		NoiseFigureDB:    2.0,
		AtmosLossDB:      1.0,
		RainLossDB:       0.0,
		PointingLossDB:   0.5,
		RequiredSNRDB:    3.0,
	}
}

// Overrides carries optional per-field overrides for a Config. Nil
// fields keep the base value, so callers can override any subset
// independently.
type Overrides struct {
	Band             *Band    `json:"band,omitempty"`
	TxPowerDBW       *float64 `json:"tx_power_dbw,omitempty"`
	TxGainDBi        *float64 `json:"tx_gain_dbi,omitempty"`
	RxGainDBi        *float64 `json:"rx_gain_dbi,omitempty"`
	BandwidthHz      *float64 `json:"bandwidth_hz,omitempty"`
	SystemNoiseTempK *float64 `json:"system_noise_temp_k,omitempty"`
	NoiseFigureDB    *float64 `json:"noise_figure_db,omitempty"`
	AtmosLossDB      *float64 `json:"atm_loss_db,omitempty"`
	RainLossDB       *float64 `json:"rain_loss_db,omitempty"`
	PointingLossDB   *float64 `json:"pointing_loss_db,omitempty"`
	RequiredSNRDB    *float64 `json:"required_snr_db,omitempty"`
}

// Apply returns base with every non-nil override applied.
func (o Overrides) Apply(base Config) Config {
	if o.Band != nil {
		base.Band = *o.Band
	}
	if o.TxPowerDBW != nil {
		base.TxPowerDBW = *o.TxPowerDBW
	}
	if o.TxGainDBi != nil {
		base.TxGainDBi = *o.TxGainDBi
	}
	if o.RxGainDBi != nil {
		base.RxGainDBi = *o.RxGainDBi
	}
	if o.BandwidthHz != nil {
		base.BandwidthHz = *o.BandwidthHz
	}
	if o.SystemNoiseTempK != nil {
		base.SystemNoiseTempK = *o.SystemNoiseTempK
	}
	if o.NoiseFigureDB != nil {
		base.NoiseFigureDB = *o.NoiseFigureDB
	}
	if o.AtmosLossDB != nil {
		base.AtmosLossDB = *o.AtmosLossDB
	}
	if o.RainLossDB != nil {
		base.RainLossDB = *o.RainLossDB
	}
	if o.PointingLossDB != nil {
		base.PointingLossDB = *o.PointingLossDB
	}
	if o.RequiredSNRDB != nil {
		base.RequiredSNRDB = *o.RequiredSNRDB
	}
	return base
}

// Validate rejects configurations that would feed zeros or negatives
// into the logarithmic formulas. It runs before any computation so a
// bad field can never surface as -Inf/NaN in a result.
func (c Config) Validate() error {
	if _, ok := c.Band.FrequencyGHz(); !ok {
		return fmt.Errorf("unknown band %q", c.Band)
	}
	if !(c.BandwidthHz > 0) || math.IsInf(c.BandwidthHz, 0) {
		return fmt.Errorf("bandwidth_hz must be positive, got %v", c.BandwidthHz)
	}
	if !(c.SystemNoiseTempK > 0) || math.IsInf(c.SystemNoiseTempK, 0) {
		return fmt.Errorf("system_noise_temp_k must be positive, got %v", c.SystemNoiseTempK)
	}
	if c.NoiseFigureDB < 0 {
		return fmt.Errorf("noise_figure_db must be non-negative, got %v", c.NoiseFigureDB)
	}
	if c.AtmosLossDB < 0 {
		return fmt.Errorf("atm_loss_db must be non-negative, got %v", c.AtmosLossDB)
	}
	if c.RainLossDB < 0 {
		return fmt.Errorf("rain_loss_db must be non-negative, got %v", c.RainLossDB)
	}
	if c.PointingLossDB < 0 {
		return fmt.Errorf("pointing_loss_db must be non-negative, got %v", c.PointingLossDB)
	}
	return nil
}
