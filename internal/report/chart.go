package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/inventure/venturesim/internal/portfolio"
)

// DefaultChartWidth is the bar length of the most likely row.
const DefaultChartWidth = 50

// maxChartRows bounds the chart height; wider distributions are binned.
const maxChartRows = 30

type chartRow struct {
	lo, hi      int
	probability float64
}

// WriteChart draws the distribution of Series B counts as horizontal bars.
// The row holding target is marked.
func WriteChart(w io.Writer, dist []portfolio.Bucket, target, width int) error {
	if len(dist) == 0 {
		_, err := io.WriteString(w, "(no trials)\n")
		return err
	}
	if width < 1 {
		width = DefaultChartWidth
	}

	rows := binDistribution(dist, maxChartRows)

	var peak float64
	labelWidth := 0
	for _, r := range rows {
		peak = max(peak, r.probability)
		labelWidth = max(labelWidth, len(rowLabel(r)))
	}

	var b strings.Builder
	b.WriteString("Distribution of Series B projects\n")
	for _, r := range rows {
		n := 0
		if peak > 0 {
			n = int(r.probability / peak * float64(width))
		}
		if n == 0 && r.probability > 0 {
			n = 1
		}
		fmt.Fprintf(&b, "%*s | %-*s %6s", labelWidth, rowLabel(r), width, strings.Repeat("#", n), Percent(r.probability))
		if target >= r.lo && target <= r.hi {
			b.WriteString("  <- target")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func rowLabel(r chartRow) string {
	if r.lo == r.hi {
		return fmt.Sprint(r.lo)
	}
	return fmt.Sprintf("%d-%d", r.lo, r.hi)
}

// binDistribution groups the sorted buckets into at most maxRows rows of
// equal count width. With few enough buckets each gets its own row.
func binDistribution(dist []portfolio.Bucket, maxRows int) []chartRow {
	if len(dist) <= maxRows {
		rows := make([]chartRow, len(dist))
		for i, d := range dist {
			rows[i] = chartRow{lo: d.Count, hi: d.Count, probability: d.Probability}
		}
		return rows
	}

	lo := dist[0].Count
	span := dist[len(dist)-1].Count - lo + 1
	binWidth := (span + maxRows - 1) / maxRows
	nbins := (span + binWidth - 1) / binWidth

	rows := make([]chartRow, nbins)
	for i := range rows {
		rows[i].lo = lo + i*binWidth
		rows[i].hi = rows[i].lo + binWidth - 1
	}
	for _, d := range dist {
		rows[(d.Count-lo)/binWidth].probability += d.Probability
	}
	return rows
}
