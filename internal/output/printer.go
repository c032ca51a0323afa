package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/wesleyorama2/routemeter/internal/loadgen"
)

// Printer writes bench results and snapshots in one output format.
type Printer struct {
	w       io.Writer
	format  OutputFormat
	scheme  *ColorScheme
	noColor bool
}

// NewPrinter creates a printer for w. Colors are used only for text
// output to a terminal unless noColor is set.
func NewPrinter(w io.Writer, format OutputFormat, noColor bool) *Printer {
	if format == "" {
		format = FormatText
	}
	noColor = !UseColor(w, noColor)
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Printer{w: w, format: format, scheme: scheme, noColor: noColor}
}

// BenchReport is the structured form of a bench run.
type BenchReport struct {
	Method string          `json:"method" yaml:"method"`
	URL    string          `json:"url" yaml:"url"`
	Result *loadgen.Result `json:"result" yaml:"result"`
	Server *SnapshotView   `json:"server,omitempty" yaml:"server,omitempty"`
}

// Bench prints a bench run and, when present, the server's view of it.
func (p *Printer) Bench(report BenchReport) error {
	if p.format != FormatText {
		return encode(p.w, p.format, report)
	}

	r := report.Result
	var b strings.Builder
	fmt.Fprintf(&b, "▶ BENCH %s %s\n", p.scheme.Title.Sprint(report.Method), p.scheme.Name.Sprint(report.URL))

	icon := SuccessIcon(p.noColor)
	outcome := p.scheme.Good
	switch {
	case r.Requests > 0 && r.Failed == r.Requests:
		icon, outcome = ErrorIcon(p.noColor), p.scheme.Bad
	case r.Failed > 0:
		icon, outcome = WarningIcon(p.noColor), p.scheme.Warn
	}
	p.field(&b, "Requests", fmt.Sprintf("%d %s", r.Requests,
		outcome.Sprintf("(%d ok, %d failed) %s", r.Succeeded, r.Failed, icon)))
	p.field(&b, "Elapsed", fmt.Sprintf("%s (%.1f req/s)", FormatDuration(r.Elapsed), r.Throughput))
	p.field(&b, "Received", FormatBytes(r.Bytes))
	p.field(&b, "Latency", fmt.Sprintf("min %s  mean %s  p50 %s  p90 %s  p95 %s  p99 %s  max %s",
		FormatDuration(r.Latency.Min), FormatDuration(r.Latency.Mean), FormatDuration(r.Latency.P50),
		FormatDuration(r.Latency.P90), FormatDuration(r.Latency.P95), FormatDuration(r.Latency.P99),
		FormatDuration(r.Latency.Max)))
	if len(r.StatusCodes) > 0 {
		p.field(&b, "Status", formatStatusCodes(r.StatusCodes))
	}
	if r.Pacing != nil {
		p.field(&b, "Pacing", fmt.Sprintf("%.1f req/s, waited %s", r.Pacing.Rate, FormatDuration(r.Pacing.Waited)))
	}
	msgs := make([]string, 0, len(r.Errors))
	for msg := range r.Errors {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	for _, msg := range msgs {
		p.field(&b, "Error", p.scheme.Bad.Sprintf("%s (x%d)", msg, r.Errors[msg]))
	}

	if report.Server != nil {
		b.WriteString("\n")
		p.writeSnapshot(&b, report.Server)
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

// Snapshot prints a registry snapshot.
func (p *Printer) Snapshot(v *SnapshotView) error {
	if p.format != FormatText {
		return encode(p.w, p.format, v)
	}
	var b strings.Builder
	p.writeSnapshot(&b, v)
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) writeSnapshot(b *strings.Builder, v *SnapshotView) {
	fmt.Fprintf(b, "▶ METRICS %s\n", p.scheme.Label.Sprint(v.Timestamp.Format(time.RFC3339)))
	if v.Empty() {
		b.WriteString("  (no metrics)\n")
		return
	}

	for _, t := range v.Timers {
		fmt.Fprintf(b, "  %s %s\n", p.scheme.Highlight.Sprint("timer"), p.scheme.Name.Sprint(t.Name))
		p.field(b, "  Count", fmt.Sprintf("%d (%.2f/s mean, %.2f/s 1m)", t.Count, t.MeanRate, t.Rate1))
		p.field(b, "  Time", fmt.Sprintf("min %s  mean %s  p50 %s  p95 %s  p99 %s  max %s",
			FormatDuration(t.Min), FormatDuration(t.Mean), FormatDuration(t.P50),
			FormatDuration(t.P95), FormatDuration(t.P99), FormatDuration(t.Max)))
	}
	for _, h := range v.Histograms {
		fmt.Fprintf(b, "  %s %s\n", p.scheme.Highlight.Sprint("histogram"), p.scheme.Name.Sprint(h.Name))
		p.field(b, "  Count", fmt.Sprintf("%d", h.Count))
		p.field(b, "  Values", fmt.Sprintf("min %d  mean %.1f  p50 %d  p95 %d  p99 %d  max %d",
			h.Min, h.Mean, h.P50, h.P95, h.P99, h.Max))
	}
	for _, m := range v.Meters {
		fmt.Fprintf(b, "  %s %s\n", p.scheme.Highlight.Sprint("meter"), p.scheme.Name.Sprint(m.Name))
		p.field(b, "  Count", fmt.Sprintf("%d (%.2f/s mean, %.2f/s 1m, %.2f/s 5m, %.2f/s 15m)",
			m.Count, m.MeanRate, m.Rate1, m.Rate5, m.Rate15))
	}
}

func (p *Printer) field(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s %s\n", p.scheme.Label.Sprintf("%-10s", label+":"), value)
}

// FormatDuration rounds d to a readable precision.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond).String()
	default:
		return d.String()
	}
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatStatusCodes(codes map[int]int64) string {
	keys := make([]int, 0, len(codes))
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d x%d", k, codes[k]))
	}
	return strings.Join(parts, ", ")
}
