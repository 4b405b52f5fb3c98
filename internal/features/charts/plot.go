package charts

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"

	"github.com/fogleman/gg"
)

const (
	marginLeft   = 100.0
	marginRight  = 40.0
	marginTop    = 70.0
	marginBottom = 80.0

	tickLength   = 6.0
	legendPad    = 10.0
	legendRowGap = 8.0
)

// plot is one drawing surface with a data-to-pixel mapping for its plot area.
type plot struct {
	dc    *gg.Context
	style Style
	fonts *fonts

	left, right, top, bottom float64
	xmin, xmax, ymin, ymax   float64
}

func newPlot(style Style, f *fonts, width, height int) *plot {
	dc := gg.NewContext(width, height)
	dc.SetColor(style.Background)
	dc.Clear()

	return &plot{
		dc:     dc,
		style:  style,
		fonts:  f,
		left:   marginLeft,
		right:  float64(width) - marginRight,
		top:    marginTop,
		bottom: float64(height) - marginBottom,
	}
}

// setRange fixes the data range. Degenerate ranges are widened so the mapping stays finite.
func (p *plot) setRange(xmin, xmax, ymin, ymax float64) {
	if xmax <= xmin {
		xmin, xmax = xmin-1, xmax+1
	}
	if ymax <= ymin {
		ymin, ymax = ymin-1, ymax+1
	}
	p.xmin, p.xmax, p.ymin, p.ymax = xmin, xmax, ymin, ymax
}

// pad grows the current range by frac of its span on every side.
func (p *plot) pad(frac float64) {
	dx := (p.xmax - p.xmin) * frac
	dy := (p.ymax - p.ymin) * frac
	p.xmin, p.xmax = p.xmin-dx, p.xmax+dx
	p.ymin, p.ymax = p.ymin-dy, p.ymax+dy
}

// checkRange fails when the data range cannot be mapped to pixels.
// gg never returns on NaN or Inf coordinates, so every view calls this before drawing.
func (p *plot) checkRange() error {
	for _, v := range []float64{p.xmin, p.xmax, p.ymin, p.ymax, p.xmax - p.xmin, p.ymax - p.ymin} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("cannot plot range x=[%g, %g] y=[%g, %g]", p.xmin, p.xmax, p.ymin, p.ymax)
		}
	}
	return nil
}

func (p *plot) px(v float64) float64 {
	return p.left + (v-p.xmin)/(p.xmax-p.xmin)*(p.right-p.left)
}

func (p *plot) py(v float64) float64 {
	return p.bottom - (v-p.ymin)/(p.ymax-p.ymin)*(p.bottom-p.top)
}

func (p *plot) setFont(size float64) {
	p.dc.SetFontFace(p.fonts.face(size))
}

// drawGrid draws horizontal grid lines at yticks and, when xticks is non-nil,
// vertical ones, plus tick labels on both axes.
func (p *plot) drawGrid(xticks, yticks []float64, xlabel, ylabel func(float64) string) {
	dc := p.dc
	dc.SetColor(p.style.Grid)
	dc.SetLineWidth(p.style.GridWidth)

	for _, v := range yticks {
		y := p.py(v)
		dc.DrawLine(p.left, y, p.right, y)
		dc.Stroke()
	}
	for _, v := range xticks {
		x := p.px(v)
		dc.DrawLine(x, p.top, x, p.bottom)
		dc.Stroke()
	}

	dc.SetColor(p.style.Axis)
	dc.SetLineWidth(1.25)
	dc.DrawRectangle(p.left, p.top, p.right-p.left, p.bottom-p.top)
	dc.Stroke()

	p.setFont(p.style.TickSize)
	dc.SetColor(p.style.Text)
	for _, v := range yticks {
		dc.DrawStringAnchored(ylabel(v), p.left-tickLength-4, p.py(v), 1, 0.5)
	}
	for _, v := range xticks {
		dc.DrawStringAnchored(xlabel(v), p.px(v), p.bottom+tickLength+4, 0.5, 1)
	}
}

// drawCategoryLabels labels category slots centred at the given pixel positions.
func (p *plot) drawCategoryLabels(labels []string, centers []float64) {
	p.setFont(p.style.TickSize)
	p.dc.SetColor(p.style.Text)
	for i, label := range labels {
		p.dc.DrawStringAnchored(label, centers[i], p.bottom+tickLength+4, 0.5, 1)
	}
}

func (p *plot) drawTitles(title, xlabel, ylabel string) {
	dc := p.dc
	w := float64(dc.Width())

	dc.SetColor(p.style.Text)
	p.setFont(p.style.TitleSize)
	dc.DrawStringAnchored(title, w/2, p.top/2, 0.5, 0.5)

	p.setFont(p.style.LabelSize)
	dc.DrawStringAnchored(xlabel, (p.left+p.right)/2, p.bottom+marginBottom*0.6, 0.5, 0.5)

	cx, cy := marginLeft*0.25, (p.top+p.bottom)/2
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), cx, cy)
	dc.DrawStringAnchored(ylabel, cx, cy, 0.5, 0.5)
	dc.Pop()
}

func (p *plot) drawMarker(m Marker, x, y, r float64, c color.Color) {
	dc := p.dc
	dc.SetColor(c)
	switch m {
	case MarkerSquare:
		dc.DrawRectangle(x-r, y-r, 2*r, 2*r)
		dc.Fill()
	case MarkerTriangle:
		dc.DrawRegularPolygon(3, x, y, r*1.3, 0)
		dc.Fill()
	case MarkerDiamond:
		dc.DrawRegularPolygon(4, x, y, r*1.3, 0)
		dc.Fill()
	case MarkerCross:
		dc.SetLineWidth(r * 0.7)
		dc.DrawLine(x-r, y-r, x+r, y+r)
		dc.DrawLine(x-r, y+r, x+r, y-r)
		dc.Stroke()
	default:
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}
}

type legendEntry struct {
	label  string
	color  color.Color
	marker Marker
	line   bool
}

// drawLegend places a boxed legend in the upper right corner of the plot area.
func (p *plot) drawLegend(title string, entries []legendEntry) {
	if len(entries) == 0 {
		return
	}
	dc := p.dc
	p.setFont(p.style.LegendSize)

	_, rowHeight := dc.MeasureString("Hg")
	width, _ := dc.MeasureString(title)
	for _, e := range entries {
		w, _ := dc.MeasureString(e.label)
		width = math.Max(width, w+30)
	}
	rows := len(entries)
	if title != "" {
		rows++
	}
	boxW := width + 2*legendPad
	boxH := float64(rows)*(rowHeight+legendRowGap) + legendPad
	x0 := p.right - boxW - 10
	y0 := p.top + 10

	dc.SetColor(color.RGBA{255, 255, 255, 230})
	dc.DrawRoundedRectangle(x0, y0, boxW, boxH, 4)
	dc.FillPreserve()
	dc.SetColor(p.style.Axis)
	dc.SetLineWidth(1)
	dc.Stroke()

	y := y0 + legendPad + rowHeight/2
	if title != "" {
		dc.SetColor(p.style.Text)
		dc.DrawStringAnchored(title, x0+legendPad, y, 0, 0.5)
		y += rowHeight + legendRowGap
	}
	for _, e := range entries {
		mx := x0 + legendPad + 10
		if e.line {
			dc.SetColor(e.color)
			dc.SetLineWidth(p.style.LineWidth)
			dc.DrawLine(mx-10, y, mx+10, y)
			dc.Stroke()
		}
		p.drawMarker(e.marker, mx, y, p.style.PointSize, e.color)
		dc.SetColor(p.style.Text)
		dc.DrawStringAnchored(e.label, mx+20, y, 0, 0.5)
		y += rowHeight + legendRowGap
	}
}

// save writes the PNG and rejects an empty result.
func (p *plot) save(path string) error {
	if err := p.dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat chart file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return fmt.Errorf("chart file is empty after rendering")
	}
	return nil
}

// niceTicks returns about target evenly spaced round values covering [lo, hi].
func niceTicks(lo, hi float64, target int) []float64 {
	if target < 2 {
		target = 2
	}
	if hi <= lo {
		return []float64{lo}
	}
	step := niceNum((hi-lo)/float64(target-1), true)
	start := math.Ceil(lo/step) * step
	var ticks []float64
	for v := start; v <= hi+step*1e-9; v += step {
		// snap away float noise like 0.30000000000000004
		ticks = append(ticks, math.Round(v/step)*step)
	}
	return ticks
}

func niceNum(x float64, round bool) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	switch {
	case round && f < 1.5:
		nf = 1
	case round && f < 3:
		nf = 2
	case round && f < 7:
		nf = 5
	case round:
		nf = 10
	case f <= 1:
		nf = 1
	case f <= 2:
		nf = 2
	case f <= 5:
		nf = 5
	default:
		nf = 10
	}
	return nf * math.Pow(10, exp)
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.Abs(v) >= 1e6 || math.Abs(v) < 1e-3 {
		return strconv.FormatFloat(v, 'g', 4, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
