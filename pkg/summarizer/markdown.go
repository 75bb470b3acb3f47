package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Stabilization Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Input\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Original", s.Input.OriginalPath)
	row(&b, "Processed", s.Input.ProcessedPath)
	row(&b, "Stabilized", s.Input.StabilizedPath)
	row(&b, "Frame size", fmt.Sprintf("%dx%d", s.Input.Width, s.Input.Height))
	row(&b, "Frames", fmt.Sprintf("%d", s.Input.FrameCount))
	b.WriteString("\n")

	b.WriteString("## Settings\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Warmup", fmt.Sprintf("%d", s.Settings.Warmup))
	row(&b, "Batch size", fmt.Sprintf("%d", s.Settings.BatchSize))
	row(&b, "Report after", fmt.Sprintf("%d", s.Settings.ReportAfter))
	flow := s.Settings.FlowSource
	if s.Settings.FlowDir != "" {
		flow = fmt.Sprintf("%s (%s)", flow, s.Settings.FlowDir)
	}
	row(&b, "Optical flow", flow)
	if s.Settings.Engine != "" {
		row(&b, "Engine", s.Settings.Engine)
	}
	b.WriteString("\n")

	b.WriteString("## Output\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Frames written", fmt.Sprintf("%d", s.Frames.Written))
	row(&b, "Passthrough", fmt.Sprintf("%d", s.Frames.Passthrough))
	row(&b, "Stabilized", fmt.Sprintf("%d", s.Frames.Stabilized))
	if s.Elapsed > 0 {
		row(&b, "Elapsed", s.Elapsed.Round(time.Millisecond).String())
	}
	b.WriteString("\n")

	b.WriteString("## Timing\n\n")
	if s.Timing == nil {
		b.WriteString("Not enough frames for a timing report.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Per-frame averages over %d frames.\n\n", s.Timing.Frames)
	b.WriteString("| Phase | ms |\n|-------|----|\n")
	row(&b, "Load", fmt.Sprintf("%.2f", s.Timing.LoadMs))
	row(&b, "Optical flow", fmt.Sprintf("%.2f", s.Timing.FlowMs))
	row(&b, "Stabilize", fmt.Sprintf("%.2f", s.Timing.StabilizeMs))
	row(&b, "Save", fmt.Sprintf("%.2f", s.Timing.SaveMs))
	row(&b, "Overall", fmt.Sprintf("%.2f", s.Timing.OverallMs))

	return b.String()
}

func row(b *strings.Builder, name, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(b, "| %s | %s |\n", name, value)
}

var _ Formatter = (*MarkdownFormatter)(nil)
