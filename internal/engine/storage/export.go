package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rendis/mealspin/internal/model"
)

// VenueColumns is the CSV header of an exported venue.
var VenueColumns = []string{
	"name", "kind", "category", "category_label", "raw_category",
	"distance_m", "rating", "address", "lat", "lng", "url", "provider_id",
}

var shortlistColumns = append([]string{"group", "added_by", "added_at"}, VenueColumns...)

// ExportPath names a CSV next to the database, e.g. lunch.db → lunch_shortlist.csv.
func ExportPath(dbPath, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath))
	return filepath.Join(filepath.Dir(dbPath), base+"_"+suffix+".csv")
}

// WriteVenues writes a wheel as CSV.
func WriteVenues(w io.Writer, venues []model.Venue) error {
	rows := make([][]string, 0, len(venues))
	for _, v := range venues {
		rows = append(rows, venueRecord(v))
	}
	return writeCSV(w, VenueColumns, rows)
}

// WriteShortlist writes shortlist entries as CSV, prefixed with who added
// each venue to which group and when.
func WriteShortlist(w io.Writer, entries []ShortlistEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, append(
			[]string{e.Group, e.AddedBy, e.AddedAt.UTC().Format(time.RFC3339)},
			venueRecord(e.Venue)...))
	}
	return writeCSV(w, shortlistColumns, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	// WriteAll flushes
	return cw.WriteAll(rows)
}

func venueRecord(v model.Venue) []string {
	return []string{
		v.Name,
		string(v.Kind),
		string(v.Category),
		v.CategoryLabel,
		v.RawCategory,
		fmt.Sprintf("%.0f", v.Distance),
		fmt.Sprintf("%.1f", v.Rating),
		v.Address,
		fmt.Sprintf("%.6f", v.Lat),
		fmt.Sprintf("%.6f", v.Lng),
		v.URL,
		v.ProviderID,
	}
}
