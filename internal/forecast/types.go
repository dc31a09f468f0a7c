package forecast

import (
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/linkbudget"
	"github.com/ruddro-roy/satlink-planner/internal/passes"
	"github.com/ruddro-roy/satlink-planner/internal/tle"
	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

// Window is the requested UTC time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Metadata echoes element provenance back to the caller. Element age
// is advisory — old elements degrade accuracy but never block a
// request.
type Metadata struct {
	CatalogNumber  int       `json:"catalog_number"`
	ElementEpoch   time.Time `json:"element_epoch"`
	ElementAgeDays float64   `json:"element_age_days"`
	ElementSource  string    `json:"element_source,omitempty"`
}

// PassRequest asks for visibility windows of one satellite over a site.
type PassRequest struct {
	Elements    tle.Entry
	Site        transform.Site
	Window      Window
	MaskDeg     float64
	StepSeconds int
	MaxPasses   int
}

// PassForecast is the ordered pass list plus element metadata. An
// empty Passes slice is a valid outcome, not an error.
type PassForecast struct {
	Meta   Metadata        `json:"meta"`
	Passes []passes.Window `json:"passes"`
}

// MarginRequest asks for a link-margin time series over a window.
// MaskDeg drives the per-sample visibility flag; VisibleOnly
// additionally drops samples below the mask.
type MarginRequest struct {
	Elements    tle.Entry
	Site        transform.Site
	Window      Window
	StepSeconds int
	MaskDeg     float64
	VisibleOnly bool
	RF          linkbudget.Overrides
}

// MarginSample is one instant of the link forecast.
type MarginSample struct {
	Time         time.Time `json:"time"`
	SNRdB        float64   `json:"snr_db"`
	MarginDB     float64   `json:"margin_db"`
	RangeKm      float64   `json:"range_km"`
	ElevationDeg float64   `json:"elev_deg"`
	AzimuthDeg   float64   `json:"az_deg"`
	Visible      bool      `json:"visible"`
}

// SkippedSample annotates a grid instant that could not be computed.
// Margin samples stand alone, so a propagation failure skips the one
// timestamp instead of failing the series — unlike pass prediction,
// where any failure aborts (see Engine.PredictPasses).
type SkippedSample struct {
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
}

// MarginForecast is the computed series. RF is the effective
// configuration after defaults were applied, so callers can display
// exactly what was used.
type MarginForecast struct {
	Meta    Metadata          `json:"meta"`
	RF      linkbudget.Config `json:"rf"`
	Samples []MarginSample    `json:"samples"`
	Skipped []SkippedSample   `json:"skipped,omitempty"`
}
