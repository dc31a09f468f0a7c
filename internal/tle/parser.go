package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads NORAD TLE text from r and returns parsed entries.
// Both 3-line (name, line1, line2) and bare 2-line sets are accepted.
// Malformed entries are skipped with a warning log.
func Parse(r io.Reader, source string, logger *slog.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []Entry
	for i := 0; i < len(lines); {
		var name, line1, line2 string
		switch {
		case i+2 < len(lines) && isLine1(lines[i+1]) && isLine2(lines[i+2]):
			name, line1, line2 = lines[i], lines[i+1], lines[i+2]
			i += 3
		case i+1 < len(lines) && isLine1(lines[i]) && isLine2(lines[i+1]):
			line1, line2 = lines[i], lines[i+1]
			i += 2
		default:
			logger.Warn("skipping malformed TLE entry", "line_index", i, "text", lines[i])
			i++
			continue
		}

		// Catalog number: line1 cols 3-7 (0-indexed 2..7).
		catStr := strings.TrimSpace(line1[2:7])
		catnum, err := strconv.Atoi(catStr)
		if err != nil {
			logger.Warn("skipping TLE entry with invalid catalog number", "catalog_str", catStr, "name", name)
			continue
		}

		// Epoch: line1 cols 19-32 (0-indexed 18..32).
		if len(line1) < 32 {
			logger.Warn("skipping TLE entry with short line1", "name", name)
			continue
		}
		epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
		if err != nil {
			logger.Warn("skipping TLE entry with invalid epoch", "name", name, "error", err)
			continue
		}

		entries = append(entries, Entry{
			CatalogNumber: catnum,
			Name:          strings.TrimSpace(name),
			Epoch:         epoch,
			Line1:         line1,
			Line2:         line2,
			Source:        source,
		})
	}

	return entries, nil
}

// EntryFromLines builds a single entry from raw element lines, for
// callers that supply a TLE directly rather than through a catalog
// fetch. Source is left empty.
func EntryFromLines(name, line1, line2 string) (Entry, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")
	if !isLine1(line1) || !isLine2(line2) {
		return Entry{}, fmt.Errorf("malformed element lines")
	}
	if len(line1) < 32 {
		return Entry{}, fmt.Errorf("line1 too short")
	}
	catnum, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid catalog number: %w", err)
	}
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid epoch: %w", err)
	}
	return Entry{
		CatalogNumber: catnum,
		Name:          strings.TrimSpace(name),
		Epoch:         epoch,
		Line1:         line1,
		Line2:         line2,
	}, nil
}

func isLine1(s string) bool { return strings.HasPrefix(s, "1 ") }
func isLine2(s string) bool { return strings.HasPrefix(s, "2 ") }

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to
// time.Time. Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// Day of year is 1-based.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
