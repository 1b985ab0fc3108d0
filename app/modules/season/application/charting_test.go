package seasonservice

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHistoryChart(t *testing.T) {
	tests := []struct {
		name  string
		lines []chartLine
	}{
		{name: "no lines", lines: nil},
		{name: "only the starting marker", lines: []chartLine{
			{name: "Lando Norris", color: "FF8000", xs: []float64{0}, ys: []float64{0}},
		}},
		{name: "two features", lines: []chartLine{
			{name: "Lando Norris", color: "FF8000", xs: []float64{0, 1, 2}, ys: []float64{0, 25, 43}},
			{name: "Oscar Piastri", color: "FF8000", dashed: true, xs: []float64{0, 1, 2}, ys: []float64{0, 18, 33}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			png, err := RenderHistoryChart("Points", tt.lines, DefaultPalette)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
		})
	}
}
