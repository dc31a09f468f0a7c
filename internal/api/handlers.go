package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/export"
	"github.com/ruddro-roy/satlink-planner/internal/forecast"
	"github.com/ruddro-roy/satlink-planner/internal/linkbudget"
	"github.com/ruddro-roy/satlink-planner/internal/propagation"
	"github.com/ruddro-roy/satlink-planner/internal/tle"
	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

// Request-edge defaults applied before engine validation.
const (
	defaultStepSeconds = 30
	defaultMaxPasses   = 50
)

type siteDTO struct {
	LatDeg   float64 `json:"lat_deg"`
	LonDeg   float64 `json:"lon_deg"`
	HeightKm float64 `json:"height_km"`
}

// elementsDTO selects a satellite either by catalog number (resolved
// against the loaded dataset) or by inline element lines.
type elementsDTO struct {
	CatalogNumber int    `json:"catalog_number,omitempty"`
	Name          string `json:"name,omitempty"`
	Line1         string `json:"line1,omitempty"`
	Line2         string `json:"line2,omitempty"`
}

type passRequestDTO struct {
	Elements    elementsDTO `json:"elements"`
	Site        siteDTO     `json:"site"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	MaskDeg     float64     `json:"mask_deg"`
	StepSeconds int         `json:"step_seconds"`
	MaxPasses   int         `json:"max_passes"`
}

type marginRequestDTO struct {
	Elements    elementsDTO          `json:"elements"`
	Site        siteDTO              `json:"site"`
	Start       time.Time            `json:"start"`
	End         time.Time            `json:"end"`
	MaskDeg     float64              `json:"mask_deg"`
	StepSeconds int                  `json:"step_seconds"`
	VisibleOnly bool                 `json:"visible_only"`
	RF          linkbudget.Overrides `json:"rf"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine failures to HTTP status codes: rejected
// input is the client's fault, a propagation failure is an upstream
// data problem.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var inv *forecast.InvalidInputError
	if errors.As(err, &inv) {
		writeError(w, http.StatusBadRequest, inv.Error())
		return
	}
	var pe *propagation.Error
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadGateway, pe.Error())
		return
	}
	s.logger.Error("forecast failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// resolveEntry turns the request's satellite selector into an element
// entry, preferring inline lines over a catalog lookup.
func (s *Server) resolveEntry(sel elementsDTO) (tle.Entry, int, error) {
	if sel.Line1 != "" || sel.Line2 != "" {
		e, err := tle.EntryFromLines(sel.Name, sel.Line1, sel.Line2)
		if err != nil {
			return tle.Entry{}, http.StatusBadRequest, err
		}
		e.Source = "request"
		return e, 0, nil
	}
	if sel.CatalogNumber == 0 {
		return tle.Entry{}, http.StatusBadRequest, fmt.Errorf("either element lines or a catalog number is required")
	}
	ds := s.store.Get()
	if ds == nil {
		return tle.Entry{}, http.StatusServiceUnavailable, fmt.Errorf("no element dataset loaded")
	}
	e, ok := ds.ByCatalog(sel.CatalogNumber)
	if !ok {
		return tle.Entry{}, http.StatusNotFound, fmt.Errorf("catalog number %d not in dataset", sel.CatalogNumber)
	}
	return e, 0, nil
}

func (s *Server) decodePassRequest(w http.ResponseWriter, r *http.Request) (forecast.PassRequest, bool) {
	var dto passRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return forecast.PassRequest{}, false
	}
	entry, status, err := s.resolveEntry(dto.Elements)
	if err != nil {
		writeError(w, status, err.Error())
		return forecast.PassRequest{}, false
	}
	if dto.StepSeconds == 0 {
		dto.StepSeconds = defaultStepSeconds
	}
	if dto.MaxPasses == 0 {
		dto.MaxPasses = defaultMaxPasses
	}
	return forecast.PassRequest{
		Elements:    entry,
		Site:        transform.NewSite(dto.Site.LatDeg, dto.Site.LonDeg, dto.Site.HeightKm),
		Window:      forecast.Window{Start: dto.Start, End: dto.End},
		MaskDeg:     dto.MaskDeg,
		StepSeconds: dto.StepSeconds,
		MaxPasses:   dto.MaxPasses,
	}, true
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePassRequest(w, r)
	if !ok {
		return
	}
	got, err := s.engine.PredictPasses(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (s *Server) handlePassesICS(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePassRequest(w, r)
	if !ok {
		return
	}
	got, err := s.engine.PredictPasses(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	title := req.Elements.Name
	if title == "" {
		title = "Satellite"
	}
	doc := export.ICS(got.Meta.CatalogNumber, got.Passes, title)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=passes-%d.ics", got.Meta.CatalogNumber))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

func (s *Server) handleMargin(w http.ResponseWriter, r *http.Request) {
	var dto marginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	entry, status, err := s.resolveEntry(dto.Elements)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	if dto.StepSeconds == 0 {
		dto.StepSeconds = defaultStepSeconds
	}
	req := forecast.MarginRequest{
		Elements:    entry,
		Site:        transform.NewSite(dto.Site.LatDeg, dto.Site.LonDeg, dto.Site.HeightKm),
		Window:      forecast.Window{Start: dto.Start, End: dto.End},
		StepSeconds: dto.StepSeconds,
		MaskDeg:     dto.MaskDeg,
		VisibleOnly: dto.VisibleOnly,
		RF:          dto.RF,
	}
	got, err := s.engine.ComputeMarginSeries(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

type datasetInfoDTO struct {
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
	EpochMin   time.Time `json:"epoch_min"`
	EpochMax   time.Time `json:"epoch_max"`
	Satellites int       `json:"satellites"`
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no element dataset loaded")
		return
	}
	writeJSON(w, http.StatusOK, datasetInfoDTO{
		Source:     ds.Source,
		FetchedAt:  ds.FetchedAt,
		EpochMin:   ds.EpochRange.Min,
		EpochMax:   ds.EpochRange.Max,
		Satellites: len(ds.Satellites),
	})
}

type entryDTO struct {
	CatalogNumber int       `json:"catalog_number"`
	Name          string    `json:"name,omitempty"`
	Epoch         time.Time `json:"epoch"`
	AgeDays       float64   `json:"age_days"`
	Line1         string    `json:"line1"`
	Line2         string    `json:"line2"`
	Source        string    `json:"source,omitempty"`
}

func (s *Server) handleElementsByCatalog(w http.ResponseWriter, r *http.Request) {
	catnum, err := strconv.Atoi(r.PathValue("catalog_number"))
	if err != nil || catnum <= 0 {
		writeError(w, http.StatusBadRequest, "invalid catalog number")
		return
	}
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no element dataset loaded")
		return
	}
	e, ok := ds.ByCatalog(catnum)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("catalog number %d not in dataset", catnum))
		return
	}
	writeJSON(w, http.StatusOK, entryDTO{
		CatalogNumber: e.CatalogNumber,
		Name:          e.Name,
		Epoch:         e.Epoch,
		AgeDays:       e.AgeAt(time.Now()),
		Line1:         e.Line1,
		Line2:         e.Line2,
		Source:        e.Source,
	})
}
