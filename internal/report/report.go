// Package report renders analysis targets as an aligned markdown table
// and short headline lines for posting.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"spendwatch/internal/analyzer"
	"spendwatch/internal/logger"
)

// FormatTargets renders the top targets by amount as a markdown table.
// limit caps the number of rows; 0 means all. Returns "" for an empty
// target list.
func FormatTargets(targets []analyzer.Target, limit int) string {
	if len(targets) == 0 {
		return ""
	}

	sorted := make([]analyzer.Target, len(targets))
	copy(sorted, targets)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	rows := [][]string{{"Award ID", "Amount", "Recipient", "Description"}}

	for _, target := range sorted {
		rows = append(rows, []string{
			target.ID,
			formatAmount(target.Amount),
			target.Recipient,
			target.Description,
		})
	}

	widths := make([]int, len(rows[0]))

	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder

	writeRow := func(row []string) {
		sb.WriteString("|")

		for i, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			sb.WriteString(" |")
		}

		sb.WriteString("\n")
	}

	writeRow(rows[0])

	sb.WriteString("|")

	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("|")
	}

	sb.WriteString("\n")

	for _, row := range rows[1:] {
		writeRow(row)
	}

	return sb.String()
}

// Headline renders one target as a single post-sized line.
func Headline(target analyzer.Target) string {
	return fmt.Sprintf("%s to %s: %s (%s)",
		formatAmount(target.Amount), target.Recipient, target.Description, target.ID)
}

func formatAmount(amount float64) string {
	whole := int64(amount)

	var parts []string
	for whole >= 1000 {
		parts = append([]string{fmt.Sprintf("%03d", whole%1000)}, parts...)
		whole /= 1000
	}

	parts = append([]string{fmt.Sprintf("%d", whole)}, parts...)

	return "$" + strings.Join(parts, ",")
}

// Poster is the social-media boundary. The only shipped implementation
// logs the text instead of posting it.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// LogPoster writes would-be posts to the log.
type LogPoster struct {
	Logger *logger.Logger
}

func (p *LogPoster) Post(_ context.Context, text string) error {
	p.Logger.Info("post", "text", text)
	return nil
}
