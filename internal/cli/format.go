package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles renders to w; colors are dropped automatically when w is not a terminal.
type styles struct {
	header lipgloss.Style
	winner lipgloss.Style
	loser  lipgloss.Style
	muted  lipgloss.Style
	title  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header: r.NewStyle().Bold(true),
		winner: r.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true),
		loser:  r.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		title:  r.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true),
	}
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func formatSignedPercent(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

// formatNumber groups digits in thousands: 1234567 -> "1,234,567".
func formatNumber(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

func truncate(name string, max int) string {
	r := []rune(name)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return name
}
