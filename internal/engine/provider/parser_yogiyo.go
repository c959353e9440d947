package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rendis/mealspin/internal/model"
)

var digitsRe = regexp.MustCompile(`\d+`)

// ParseYogiyoResponse parses a restaurant listing. It returns the venues that
// are open and deliver within maxDeliveryMinutes, plus the number of raw
// items on the page (for pagination).
func ParseYogiyoResponse(body []byte, maxDeliveryMinutes int) ([]model.Venue, int, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, 0, fmt.Errorf("decoding yogiyo response: %w", err)
	}

	items := safeSlice(root["restaurants"])
	var venues []model.Venue
	for _, it := range items {
		r, ok := it.(map[string]any)
		if !ok {
			continue
		}

		id := safeString(r["id"])
		name := strings.TrimSpace(safeString(r["name"]))
		if id == "" || name == "" {
			continue
		}

		// a missing flag counts as open
		if open, ok := r["is_open"].(bool); ok && !open {
			continue
		}
		if !withinDeliveryTime(safeString(r["estimated_delivery_time"]), maxDeliveryMinutes) {
			continue
		}

		var cats []string
		for _, c := range safeSlice(r["categories"]) {
			if s := safeString(c); s != "" {
				cats = append(cats, s)
			}
		}

		raw, _ := json.Marshal(r)
		venues = append(venues, model.Venue{
			ProviderID:  id,
			Name:        name,
			RawCategory: strings.Join(cats, ", "),
			Kind:        model.KindDelivery,
			Rating:      safeFloat(r["review_avg"]),
			Lat:         safeFloat(r["lat"]),
			Lng:         safeFloat(r["lng"]),
			Address:     safeString(r["address"]),
			Raw:         raw,
		})
	}
	return venues, len(items), nil
}

// withinDeliveryTime compares the upper bound of an estimate such as
// "30~40분" against limit. A missing estimate passes; one without any number
// fails once a limit is set.
func withinDeliveryTime(estimate string, limit int) bool {
	if limit <= 0 || estimate == "" {
		return true
	}
	nums := digitsRe.FindAllString(estimate, -1)
	if len(nums) == 0 {
		return false
	}
	hi := 0
	for _, n := range nums {
		v, err := strconv.Atoi(n)
		if err != nil {
			return true
		}
		hi = max(hi, v)
	}
	return hi <= limit
}

// safeSlice converts any to []any, returns nil if not a slice.
func safeSlice(data any) []any {
	slice, ok := data.([]any)
	if !ok {
		return nil
	}
	return slice
}

// safeString extracts a string from any. Handles string and json.Number.
func safeString(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// safeFloat extracts a float64 from any. Handles float64, json.Number, and numeric strings.
func safeFloat(data any) float64 {
	switch v := data.(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}
