package seasonservice

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// defaultChartSize is how many leaders are plotted when no names are given.
const defaultChartSize = 5

// ChartPalette holds the non-series colors of a chart.
type ChartPalette struct {
	Background drawing.Color
	TextColor  drawing.Color
	GridColor  drawing.Color
}

// DefaultPalette is a dark pit-wall theme.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("15151E"),
	TextColor:  drawing.ColorFromHex("F0F0F0"),
	GridColor:  drawing.ColorFromHex("38383F"),
}

// chartLine is one competitor's series ready to plot.
type chartLine struct {
	name   string
	color  string
	dashed bool
	xs     []float64
	ys     []float64
}

// PointsChart renders cumulative points per event marker.
func (s *SeasonService) PointsChart(ctx context.Context, names []string) ([]byte, error) {
	lines, err := read(s, ctx, "PointsChart", func(context.Context) ([]chartLine, error) {
		return s.chartLines(names, func(st seasondomain.Standings, name string) ([]float64, []float64) {
			hist := st.Points[name]
			xs, ys := make([]float64, len(hist)), make([]float64, len(hist))
			for i, p := range hist {
				xs[i], ys[i] = float64(p.Marker), float64(p.Value)
			}
			return xs, ys
		})
	})
	if err != nil {
		return nil, err
	}
	return RenderHistoryChart("Points", lines, DefaultPalette)
}

// RatingChart renders rating after every feature race.
func (s *SeasonService) RatingChart(ctx context.Context, names []string) ([]byte, error) {
	lines, err := read(s, ctx, "RatingChart", func(context.Context) ([]chartLine, error) {
		return s.chartLines(names, func(st seasondomain.Standings, name string) ([]float64, []float64) {
			hist := st.Ratings[name]
			xs, ys := make([]float64, len(hist)), make([]float64, len(hist))
			for i, p := range hist {
				xs[i], ys[i] = float64(p.Marker), p.Value.InexactFloat64()
			}
			return xs, ys
		})
	})
	if err != nil {
		return nil, err
	}
	return RenderHistoryChart("Rating", lines, DefaultPalette)
}

// chartLines selects names (or the current leaders) and extracts their
// series. Callers hold mu.
func (s *SeasonService) chartLines(names []string, series func(seasondomain.Standings, string) ([]float64, []float64)) ([]chartLine, error) {
	roster := s.ledger.Roster()
	st := s.ledger.Standings()

	if len(names) == 0 {
		for i, row := range st.Competitors {
			if i == defaultChartSize {
				break
			}
			names = append(names, row.Name)
		}
	}

	var unknown []string
	for _, n := range names {
		if !roster.Has(n) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompetitors, strings.Join(unknown, ", "))
	}

	lines := make([]chartLine, 0, len(names))
	for _, n := range names {
		team, _ := roster.TeamOf(n)
		members, _ := roster.Members(team.Name)
		xs, ys := series(st, n)
		lines = append(lines, chartLine{
			name:   n,
			color:  team.Color,
			dashed: members[1] == n,
			xs:     xs,
			ys:     ys,
		})
	}
	return lines, nil
}

// RenderHistoryChart draws one line per competitor. Teammates share the team
// color; the second driver is dashed.
func RenderHistoryChart(title string, lines []chartLine, palette ChartPalette) ([]byte, error) {
	minX, maxX := 0.0, 0.0
	minY, maxY := 0.0, 0.0
	first := true
	for _, l := range lines {
		for i := range l.xs {
			if first {
				minY, maxY = l.ys[i], l.ys[i]
				first = false
			}
			maxX = max(maxX, l.xs[i])
			minY = min(minY, l.ys[i])
			maxY = max(maxY, l.ys[i])
		}
	}
	if first || maxX == minX {
		return renderNoDataPlaceholder(palette, "No races recorded yet")
	}
	if maxY-minY < 1 {
		pad := (1 - (maxY - minY)) / 2
		minY, maxY = minY-pad, maxY+pad
	}

	series := make([]chart.Series, 0, len(lines))
	for _, l := range lines {
		style := chart.Style{
			StrokeColor: drawing.ColorFromHex(strings.TrimPrefix(l.color, "#")),
			StrokeWidth: 2,
			DotWidth:    3,
			DotColor:    drawing.ColorFromHex(strings.TrimPrefix(l.color, "#")),
		}
		if l.dashed {
			style.StrokeDashArray = []float64{6, 4}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    l.name,
			XValues: l.xs,
			YValues: l.ys,
			Style:   style,
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 450,
		TitleStyle: chart.Style{
			FontColor: palette.TextColor,
		},
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:  "Race",
			Style: chart.Style{FontColor: palette.TextColor},
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return seasondomain.EventMarker(f).String()
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:  title,
			Style: chart.Style{FontColor: palette.TextColor},
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
			GridMajorStyle: chart.Style{
				StrokeColor: palette.GridColor,
				StrokeWidth: 1,
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph, chart.Style{
		FillColor: palette.Background,
		FontColor: palette.TextColor,
	})}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", strings.ToLower(title), err)
	}
	return buffer.Bytes(), nil
}

// renderNoDataPlaceholder draws msg on a blank canvas. chart.Chart refuses
// to render without a series, so this paints on the renderer directly.
func renderNoDataPlaceholder(palette ChartPalette, msg string) ([]byte, error) {
	const (
		width  = 400
		height = 200
	)

	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, fmt.Errorf("create placeholder renderer: %w", err)
	}
	r.SetDPI(chart.DefaultDPI)
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load chart font: %w", err)
	}

	r.SetFillColor(palette.Background)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(palette.TextColor)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, fmt.Errorf("render placeholder chart: %w", err)
	}
	return buffer.Bytes(), nil
}
