// Package linkbudget computes received signal-to-noise ratio and link
// margin for a slant path, from closed-form dB arithmetic. The
// formulas and constants are a compatibility surface — downstream
// displays and exported reports depend on the exact values — so every
// term uses base-10 logarithms and the constants below, verbatim.
package linkbudget

import (
	"fmt"
	"math"
)

// boltzmannDBW is 10·log10 of Boltzmann's constant in dBW/(Hz·K).
const boltzmannDBW = -228.6

// Result is the full budget breakdown for one sample. SNRdB and
// MarginDB are the headline numbers; the intermediate terms are kept
// so reports can show where the budget went.
type Result struct {
	FSPLdB        float64 `json:"fspl_db"`
	EIRPdBW       float64 `json:"eirp_dbw"`
	RxPowerDBW    float64 `json:"rx_power_dbw"`
	NoiseFloorDBW float64 `json:"noise_floor_dbw"`
	SNRdB         float64 `json:"snr_db"`
	MarginDB      float64 `json:"margin_db"`
}

// Compute evaluates the link budget for one slant-path sample. It is a
// pure function: identical inputs give bit-identical outputs.
//
//	Lfs  = 92.45 + 20·log10(f_GHz) + 20·log10(R_km)
//	EIRP = P_tx + G_tx
//	Prx  = EIRP + G_rx − Lfs − L_atm − L_rain − L_point
//	kTB  = −228.6 + 10·log10(T) + 10·log10(B)
//	SNR  = Prx − (kTB + NF)
//	margin = SNR − required
//
// cfg must already be validated; Compute still rejects a non-positive
// range because range comes from geometry, not configuration.
func Compute(rangeKm, elevationDeg float64, cfg Config) (Result, error) {
	if !(rangeKm > 0) || math.IsInf(rangeKm, 0) {
		return Result{}, fmt.Errorf("range_km must be positive, got %v", rangeKm)
	}
	fGHz, ok := cfg.Band.FrequencyGHz()
	if !ok {
		return Result{}, fmt.Errorf("unknown band %q", cfg.Band)
	}

	atmDB, rainDB := cfg.AtmosLossDB, cfg.RainLossDB
	if cfg.ElevationLoss != nil {
		atmDB, rainDB = cfg.ElevationLoss.Losses(elevationDeg, atmDB, rainDB)
	}

	fsplDB := 92.45 + 20.0*math.Log10(fGHz) + 20.0*math.Log10(rangeKm)
	eirpDBW := cfg.TxPowerDBW + cfg.TxGainDBi
	rxDBW := eirpDBW + cfg.RxGainDBi - fsplDB - atmDB - rainDB - cfg.PointingLossDB
	ktbDBW := boltzmannDBW + 10.0*math.Log10(cfg.SystemNoiseTempK) + 10.0*math.Log10(cfg.BandwidthHz)
	snrDB := rxDBW - (ktbDBW + cfg.NoiseFigureDB)

	return Result{
		FSPLdB:        fsplDB,
		EIRPdBW:       eirpDBW,
		RxPowerDBW:    rxDBW,
		NoiseFloorDBW: ktbDBW,
		SNRdB:         snrDB,
		MarginDB:      snrDB - cfg.RequiredSNRDB,
	}, nil
}

// ElevationLossModel lets atmospheric and rain losses depend on the
// elevation angle. It receives the configured zenith-reference losses
// and returns the losses to apply for this sample. This is a hook for
// path-length physics, not baked-in physics: the default (nil) keeps
// the configured values at every elevation.
type ElevationLossModel interface {
	Losses(elevationDeg, atmDB, rainDB float64) (float64, float64)
}

// CosecantLoss scales both losses by the slant-path factor
// 1/sin(elevation), the usual first-order approximation for the extra
// atmosphere a low pass shines through. Below FloorDeg the factor is
// held at 1/sin(FloorDeg) so the model stays bounded at the horizon.
type CosecantLoss struct {
	FloorDeg float64 // minimum elevation for scaling; 5° if zero
}

// Losses implements ElevationLossModel.
func (c CosecantLoss) Losses(elevationDeg, atmDB, rainDB float64) (float64, float64) {
	floor := c.FloorDeg
	if floor <= 0 {
		floor = 5.0
	}
	if elevationDeg < floor {
		elevationDeg = floor
	}
	scale := 1.0 / math.Sin(elevationDeg*math.Pi/180.0)
	return atmDB * scale, rainDB * scale
}
