// Command diag runs a pass and margin forecast from a local TLE file,
// for checking the pipeline without the HTTP server.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/forecast"
	"github.com/ruddro-roy/satlink-planner/internal/linkbudget"
	"github.com/ruddro-roy/satlink-planner/internal/tle"
	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

func main() {
	var (
		tleFile  = flag.String("tle", "", "path to a TLE file")
		catnum   = flag.Int("catnum", 0, "catalog number to select (default: first entry)")
		latDeg   = flag.Float64("lat", 39.7392, "site latitude, degrees")
		lonDeg   = flag.Float64("lon", -104.9903, "site longitude, degrees")
		heightKm = flag.Float64("height", 1.609, "site height above the ellipsoid, km")
		maskDeg  = flag.Float64("mask", 10, "elevation mask, degrees")
		hours    = flag.Int("hours", 24, "forecast horizon, hours")
		band     = flag.String("band", "UHF", "frequency band for the margin summary")
	)
	flag.Parse()

	if *tleFile == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -tle <file> [-catnum N] [-lat D -lon D]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	data, err := os.ReadFile(*tleFile)
	if err != nil {
		fmt.Println("ERROR reading TLE file:", err)
		os.Exit(1)
	}
	entries, err := tle.Parse(bytes.NewReader(data), "file", logger)
	if err != nil || len(entries) == 0 {
		fmt.Println("ERROR parsing TLE:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE entries\n", len(entries))

	entry := entries[0]
	if *catnum != 0 {
		found := false
		for _, e := range entries {
			if e.CatalogNumber == *catnum {
				entry, found = e, true
				break
			}
		}
		if !found {
			fmt.Printf("ERROR catalog %d not in file\n", *catnum)
			os.Exit(1)
		}
	}
	fmt.Printf("Satellite: %s (NORAD %d) epoch %v\n", entry.Name, entry.CatalogNumber, entry.Epoch)

	engine := forecast.NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	site := transform.NewSite(*latDeg, *lonDeg, *heightKm)
	now := time.Now().UTC()
	window := forecast.Window{Start: now, End: now.Add(time.Duration(*hours) * time.Hour)}
	fmt.Printf("Window: %v .. %v, mask %.1f deg\n", window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339), *maskDeg)

	passFc, err := engine.PredictPasses(context.Background(), forecast.PassRequest{
		Elements:    entry,
		Site:        site,
		Window:      window,
		MaskDeg:     *maskDeg,
		StepSeconds: 30,
		MaxPasses:   50,
	})
	if err != nil {
		fmt.Println("ERROR predicting passes:", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d passes (elements %.1f days old):\n", len(passFc.Passes), passFc.Meta.ElementAgeDays)
	for i, p := range passFc.Passes {
		partial := ""
		if p.Partial {
			partial = " (partial)"
		}
		fmt.Printf("  pass %d: rise=%v maxEl=%.1f° dur=%.0fs%s\n",
			i, p.Rise.Format(time.RFC3339), p.MaxElevationDeg, p.DurationSeconds, partial)
	}

	rfBand := linkbudget.Band(*band)
	marginFc, err := engine.ComputeMarginSeries(context.Background(), forecast.MarginRequest{
		Elements:    entry,
		Site:        site,
		Window:      window,
		StepSeconds: 60,
		MaskDeg:     *maskDeg,
		VisibleOnly: true,
		RF:          linkbudget.Overrides{Band: &rfBand},
	})
	if err != nil {
		fmt.Println("ERROR computing margin series:", err)
		os.Exit(1)
	}

	fmt.Printf("\nMargin summary (%s band, %d visible samples, %d skipped):\n",
		marginFc.RF.Band, len(marginFc.Samples), len(marginFc.Skipped))
	best := -1
	for i, s := range marginFc.Samples {
		if best < 0 || s.MarginDB > marginFc.Samples[best].MarginDB {
			best = i
		}
	}
	if best >= 0 {
		b := marginFc.Samples[best]
		fmt.Printf("  best margin %.1f dB at %v (el %.1f°, range %.0f km)\n",
			b.MarginDB, b.Time.Format(time.RFC3339), b.ElevationDeg, b.RangeKm)
	}
}
