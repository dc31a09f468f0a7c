package tle

import "time"

// Entry is one satellite's two-line element set plus the metadata the
// forecast layer passes through (epoch, source). It is the only input
// the engine accepts for a satellite; fetching and refreshing entries
// is this package's job, never the engine's.
type Entry struct {
	CatalogNumber int
	Name          string
	Epoch         time.Time
	Line1         string
	Line2         string
	Source        string // e.g. "celestrak", "cache", "" when unknown
}

// AgeAt returns the element age at the given instant, in days.
// Staleness is advisory: callers may warn on old elements but must not
// refuse to compute with them.
func (e Entry) AgeAt(now time.Time) float64 {
	return now.Sub(e.Epoch).Hours() / 24.0
}

// EpochRange is the minimum and maximum epoch in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete set of element entries from one source.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []Entry
}

// NewDataset assembles a dataset from parsed entries, computing the
// epoch range.
func NewDataset(source string, fetchedAt time.Time, entries []Entry) *Dataset {
	ds := &Dataset{Source: source, FetchedAt: fetchedAt, Satellites: entries}
	if len(entries) > 0 {
		ds.EpochRange = EpochRange{Min: entries[0].Epoch, Max: entries[0].Epoch}
		for _, e := range entries[1:] {
			if e.Epoch.Before(ds.EpochRange.Min) {
				ds.EpochRange.Min = e.Epoch
			}
			if e.Epoch.After(ds.EpochRange.Max) {
				ds.EpochRange.Max = e.Epoch
			}
		}
	}
	return ds
}

// MaxAgeDays returns the age in days of the oldest entry relative to
// now, or -1 for an empty dataset.
func (d *Dataset) MaxAgeDays(now time.Time) float64 {
	if len(d.Satellites) == 0 {
		return -1
	}
	return now.Sub(d.EpochRange.Min).Hours() / 24.0
}

// ByCatalog returns the entry for a catalog number, if present.
func (d *Dataset) ByCatalog(catnum int) (Entry, bool) {
	for _, e := range d.Satellites {
		if e.CatalogNumber == catnum {
			return e, true
		}
	}
	return Entry{}, false
}
