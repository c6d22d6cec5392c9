// Package report renders garage occupancy as the fixed-width chat report.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/pfrederiksen/garage-status/internal/garage"
)

const (
	// Title heads every report
	Title = "**Current UCF Garage Saturation**"

	codeFence = "```"

	nameWidth    = 6
	countWidth   = 12
	percentWidth = 12
)

// Render formats the garages as a titled code block, one line per garage
func Render(garages garage.Set) string {
	var msg strings.Builder

	msg.WriteString(Title)
	msg.WriteString(codeFence)
	for _, g := range garages {
		msg.WriteString(FormatLine(g))
	}
	msg.WriteString(codeFence)

	return msg.String()
}

// FormatLine formats one garage as a newline-terminated report line.
//
// "Garage " is dropped from the name so "Garage A" prints as "A:".
func FormatLine(g garage.Garage) string {
	name := strings.Replace(g.Name, "Garage ", "", 1) + ":"
	count := fmt.Sprintf("%d / %d", g.Saturation, g.Capacity)
	percent := fmt.Sprintf("(%2d%% full)", int(math.Round(g.PercentFull)))

	return fmt.Sprintf("%*s%*s%*s\n", nameWidth, name, countWidth, count, percentWidth, percent)
}
