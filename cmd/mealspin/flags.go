package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rendis/mealspin/internal/model"
)

// parseMode maps the -mode flag to the requested venue kinds.
func parseMode(mode string) (inPerson, delivery bool, err error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "in-person", "inperson", "map":
		return true, false, nil
	case "delivery":
		return false, true, nil
	case "both", "all":
		return true, true, nil
	}
	return false, false, fmt.Errorf("unknown mode %q (in-person, delivery or both)", mode)
}

func modeLabel(p model.SearchParams) string {
	switch {
	case p.WantInPerson && p.WantDelivery:
		return "both"
	case p.WantDelivery:
		return "delivery"
	default:
		return "in-person"
	}
}

// venueLine renders a candidate as a single summary row.
func venueLine(v model.Venue) string {
	var b strings.Builder
	b.WriteString(v.Name)
	b.WriteString("  (")
	b.WriteString(string(v.Category))
	if v.CategoryLabel != "" && v.Category == model.CategoryOther {
		b.WriteString(": " + v.CategoryLabel)
	}
	switch {
	case v.Kind == model.KindDelivery && v.Rating > 0:
		fmt.Fprintf(&b, ", delivery ★%.1f", v.Rating)
	case v.Kind == model.KindDelivery:
		b.WriteString(", delivery")
	case v.Distance > 0:
		fmt.Fprintf(&b, ", %.0fm", v.Distance)
	}
	b.WriteString(")")
	return b.String()
}

// printWheel lists candidates, marking the one at marked (-1 marks none).
func printWheel(w io.Writer, venues []model.Venue, marked int) {
	for i, v := range venues {
		pointer := "  "
		if i == marked {
			pointer = "▶ "
		}
		fmt.Fprintf(w, "  %s%2d. %s\n", pointer, i+1, venueLine(v))
	}
}
