package charts

import "image/color"

// Marker is the point shape used for a series.
type Marker int

const (
	MarkerCircle Marker = iota
	MarkerSquare
	MarkerTriangle
	MarkerDiamond
	MarkerCross
)

var markerCycle = []Marker{MarkerCircle, MarkerCross, MarkerSquare, MarkerTriangle, MarkerDiamond}

// Style is the full look of every chart. It is handed to the Renderer explicitly,
// nothing is configured process-wide.
type Style struct {
	Background color.Color
	Grid       color.Color
	Axis       color.Color
	Text       color.Color
	Palette    []color.Color

	HistogramFill color.Color
	HistogramEdge color.Color

	TitleSize  float64
	LabelSize  float64
	TickSize   float64
	LineWidth  float64
	PointSize  float64
	GridWidth  float64
	LegendSize float64

	HistogramBins int
	FontPaths     []string
}

// DefaultStyle is a white background with a light grey grid and a ten colour palette.
func DefaultStyle() Style {
	return Style{
		Background: color.White,
		Grid:       color.RGBA{234, 234, 242, 255},
		Axis:       color.RGBA{204, 204, 204, 255},
		Text:       color.RGBA{38, 38, 38, 255},
		Palette: []color.Color{
			color.RGBA{76, 114, 176, 255},
			color.RGBA{221, 132, 82, 255},
			color.RGBA{85, 168, 104, 255},
			color.RGBA{196, 78, 82, 255},
			color.RGBA{129, 114, 179, 255},
			color.RGBA{147, 120, 96, 255},
			color.RGBA{218, 139, 195, 255},
			color.RGBA{140, 140, 140, 255},
			color.RGBA{204, 185, 116, 255},
			color.RGBA{100, 181, 205, 255},
		},
		HistogramFill: color.RGBA{135, 206, 235, 255}, // skyblue
		HistogramEdge: color.Black,

		TitleSize:  18,
		LabelSize:  15,
		TickSize:   12,
		LineWidth:  2,
		PointSize:  4,
		GridWidth:  1,
		LegendSize: 13,

		HistogramBins: 10,
		FontPaths:     defaultFontPaths,
	}
}

// colorAt cycles through the palette.
func (s Style) colorAt(i int) color.Color {
	if len(s.Palette) == 0 {
		return color.Black
	}
	return s.Palette[i%len(s.Palette)]
}

func markerAt(i int) Marker {
	return markerCycle[i%len(markerCycle)]
}
