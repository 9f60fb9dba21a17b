package evaluation

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/barsim/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Width(26)
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratio(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func colored(v float64, text string) string {
	switch {
	case v > 0:
		return gainStyle.Render(text)
	case v < 0:
		return lossStyle.Render(text)
	default:
		return text
	}
}

// Report renders the evaluation of a strategy as a human readable block.
func Report(name string, e types.Evaluation) string {
	rows := []struct {
		label string
		value string
	}{
		{"Total Return:", colored(e.TotalReturn, percent(e.TotalReturn))},
		{"Annualized Return:", colored(e.AnnualizedReturn, percent(e.AnnualizedReturn))},
		{"Annualized Sharpe Ratio:", ratio(e.SharpeRatio)},
		{"Sortino Ratio:", ratio(e.SortinoRatio)},
		{"Max Drawdown:", colored(-e.MaxDrawdown, percent(e.MaxDrawdown))},
		{"Calmar Ratio:", ratio(e.CalmarRatio)},
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Results for %s:", name)))
	sb.WriteString("\n")

	for _, row := range rows {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row.label), row.value))
		sb.WriteString("\n")
	}

	return sb.String()
}
