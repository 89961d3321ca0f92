package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
)

// Stats describes one finished render.
type Stats struct {
	ID          uuid.UUID
	Width       int
	Height      int
	Samples     int
	Workers     int
	Duration    time.Duration
	PrimaryRays int64
}

// RaysPerSecond is the primary ray throughput.
func (s Stats) RaysPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.PrimaryRays) / s.Duration.Seconds()
}

// Table formats the statistics for the log.
func (s Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Render", "Resolution", "SPP", "Threads", "Primary rays", "Rays/sec"})
	table.Append([]string{
		s.ID.String(),
		fmt.Sprintf("%dx%d", s.Width, s.Height),
		fmt.Sprintf("%d", s.Samples),
		fmt.Sprintf("%d", s.Workers),
		fmt.Sprintf("%d", s.PrimaryRays),
		fmt.Sprintf("%.0f", s.RaysPerSecond()),
	})
	table.SetFooter([]string{"", "", "", "", "TOTAL", s.Duration.Round(time.Millisecond).String()})
	table.Render()
	return buf.String()
}
