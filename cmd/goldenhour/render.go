package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/neexbeast/golden-hour/internal/quality"
	"github.com/neexbeast/golden-hour/internal/report"
	"github.com/neexbeast/golden-hour/internal/solar"
)

const clockFormat = "15:04"

var (
	bold      = color.New(color.Bold)
	dim       = color.New(color.Faint)
	goodBadge = color.New(color.FgGreen, color.Bold)
	badBadge  = color.New(color.FgRed, color.Bold)

	qualityColors = map[quality.Level]*color.Color{
		quality.Excellent: color.New(color.FgGreen),
		quality.Good:      color.New(color.FgCyan),
		quality.Moderate:  color.New(color.FgYellow),
		quality.Poor:      color.New(color.FgRed),
	}
)

func renderWindow(w io.Writer, coord solar.Coordinate, win *solar.GoldenHourWindow, now time.Time) {
	bold.Fprintf(w, "Golden hour at %s on %s (UTC)\n", coord, win.MorningStart.Format(time.DateOnly))
	renderWindowLines(w, win)

	if p, ok := win.InProgress(now); ok {
		fmt.Fprintf(w, "  Now: %s golden hour in progress, face %s\n", p, solar.CompassPoint(win.FocusAzimuth(now)))
		return
	}
	next := win.Next(now)
	when := next.Start.Format(clockFormat)
	if next.Tomorrow {
		when += " tomorrow"
	}
	fmt.Fprintf(w, "  Next: %s at %s\n", next.Period, when)
}

func renderWindowLines(w io.Writer, win *solar.GoldenHourWindow) {
	fmt.Fprintf(w, "  Morning  %s - %s  sun %3.0f° %s\n",
		win.MorningStart.Format(clockFormat), win.MorningEnd.Format(clockFormat),
		win.MorningSunAzimuth, solar.CompassPoint(win.MorningSunAzimuth))
	fmt.Fprintf(w, "  Evening  %s - %s  sun %3.0f° %s\n",
		win.EveningStart.Format(clockFormat), win.EveningEnd.Format(clockFormat),
		win.EveningSunAzimuth, solar.CompassPoint(win.EveningSunAzimuth))
}

func renderReport(w io.Writer, r *report.Report) {
	title := r.Coordinate.String()
	if r.Place != nil {
		title = r.Place.Name
		if r.Place.Country != "" {
			title += ", " + r.Place.Country
		}
	}
	bold.Fprintf(w, "Golden hour in %s on %s (UTC)\n", title, r.Window.MorningStart.Format(time.DateOnly))
	renderWindowLines(w, &r.Window)

	next := r.Next.Start.Format(clockFormat)
	if r.Next.Tomorrow {
		next += " tomorrow"
	}
	fmt.Fprintf(w, "  Next: %s at %s\n", r.Next.Period, next)

	if r.Current != nil {
		fmt.Fprintln(w)
		renderConditions(w, "Now", r.Current)
	}
	for _, wf := range []*report.WindowForecast{r.Morning, r.Evening} {
		if wf == nil {
			continue
		}
		fmt.Fprintln(w)
		label := fmt.Sprintf("%s window (forecast for %s)", wf.Period, wf.Sample.Timestamp.UTC().Format(clockFormat))
		renderConditions(w, label, &wf.Conditions)
	}
	dim.Fprintf(w, "\nPolicy %s, generated %s\n", r.Policy, r.GeneratedAt.Format(time.RFC3339))
}

func renderConditions(w io.Writer, label string, c *report.Conditions) {
	badge := badBadge
	if c.Verdict.Good {
		badge = goodBadge
	}
	fmt.Fprintf(w, "%s: %s [%s] %s\n", label, badge.Sprint(c.Verdict.Badge), c.Verdict.Icon, c.Verdict.Message)

	q := c.Afterglow.Quality
	qc, ok := qualityColors[q]
	if !ok {
		qc = dim
	}
	fmt.Fprintf(w, "  Afterglow: %s (%s)\n", qc.Sprint(q.String()), c.Afterglow.Description)
	for _, f := range c.Afterglow.Factors {
		fmt.Fprintf(w, "    - %s\n", f)
	}
}
