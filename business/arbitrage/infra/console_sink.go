// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/app"
	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
)

var _ app.RankSink = (*ConsoleSink)(nil)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// ConsoleSink prints the ranks of each scan as a table.
type ConsoleSink struct {
	mu      sync.Mutex
	out     io.Writer
	maxRows int
	now     func() time.Time
}

// NewConsoleSink writes at most maxRows ranks per scan to out.
func NewConsoleSink(out io.Writer, maxRows int) *ConsoleSink {
	if maxRows <= 0 {
		maxRows = 10
	}
	return &ConsoleSink{out: out, maxRows: maxRows, now: time.Now}
}

// UpdateRanks renders ranks. An empty scan prints a single dimmed line.
func (s *ConsoleSink) UpdateRanks(_ context.Context, exchange domain.ExchangeID, ranks []domain.Rank) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().Format("15:04:05")
	if len(ranks) == 0 {
		fmt.Fprintln(s.out, mutedStyle.Render(fmt.Sprintf("[%s] %s: no ranked cycles", stamp, exchange)))
		return
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("[%s] %s: %d ranked cycles", stamp, exchange, len(ranks))))
	b.WriteString("\n")
	b.WriteString("┌────┬──────────────────────┬────────────┬────────────┬──────────────┐\n")
	b.WriteString("│  # │ Path                 │     Rate % │   Profit % │ Min notional │\n")
	b.WriteString("├────┼──────────────────────┼────────────┼────────────┼──────────────┤\n")
	for i, r := range ranks {
		if i >= s.maxRows {
			break
		}
		profit := fmt.Sprintf("%10s", r.BestProfitRate().StringFixed(4))
		if r.BestProfitRate().IsPositive() {
			profit = positiveStyle.Render(profit)
		}
		fmt.Fprintf(&b, "│%3d │ %-20s │ %10s │ %s │ %12s │\n",
			i,
			r.StepA.String()+">"+r.StepB.String()+">"+r.StepC.String(),
			r.Rate.StringFixed(4),
			profit,
			r.Cycle.MinNotional.StringFixed(2),
		)
	}
	b.WriteString("└────┴──────────────────────┴────────────┴────────────┴──────────────┘")
	fmt.Fprintln(s.out, b.String())
}
