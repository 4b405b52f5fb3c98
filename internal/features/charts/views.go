package charts

import (
	"fmt"
	"math"
	"time"

	"sales-analysis/internal/features/summary"
	"sales-analysis/internal/sales"
)

const (
	lineWidth, lineHeight       = 1000, 600
	defaultWidth, defaultHeight = 800, 500

	barFill = 0.8 // share of a category slot taken by its bar
)

// line draws Sales against Date in table order.
func (r *Renderer) line(t *sales.Table, path string) error {
	type point struct {
		at    time.Time
		sales float64
	}
	points := make([]point, 0, t.Len())
	for _, rec := range t.Records() {
		at, okDate := rec.Date()
		v, okSales := rec.Sales()
		if okDate && okSales {
			points = append(points, point{at: at, sales: v})
		}
	}
	if len(points) == 0 {
		return fmt.Errorf("no rows with both %s and %s", sales.ColumnDate, sales.ColumnSales)
	}

	minT, maxT := points[0].at, points[0].at
	minY, maxY := points[0].sales, points[0].sales
	for _, pt := range points {
		if pt.at.Before(minT) {
			minT = pt.at
		}
		if pt.at.After(maxT) {
			maxT = pt.at
		}
		minY = math.Min(minY, pt.sales)
		maxY = math.Max(maxY, pt.sales)
	}
	if !maxT.After(minT) {
		maxT = minT.Add(24 * time.Hour)
	}

	p := newPlot(r.Style, r.fonts, lineWidth, lineHeight)
	p.setRange(float64(minT.Unix()), float64(maxT.Unix()), minY, maxY)
	p.pad(0.05)
	if err := p.checkRange(); err != nil {
		return err
	}

	xticks := dateTicks(minT, maxT, 6)
	p.drawGrid(xticks, niceTicks(p.ymin, p.ymax, 6),
		func(v float64) string { return time.Unix(int64(v), 0).UTC().Format(sales.DateLayout) },
		formatNumber)

	c := r.Style.colorAt(0)
	p.dc.SetColor(c)
	p.dc.SetLineWidth(r.Style.LineWidth)
	for i, pt := range points {
		x, y := p.px(float64(pt.at.Unix())), p.py(pt.sales)
		if i == 0 {
			p.dc.MoveTo(x, y)
		} else {
			p.dc.LineTo(x, y)
		}
	}
	p.dc.Stroke()
	for _, pt := range points {
		p.drawMarker(MarkerCircle, p.px(float64(pt.at.Unix())), p.py(pt.sales), r.Style.PointSize, c)
	}

	p.drawTitles(ViewLine.Title(), "Date", "Sales")
	p.drawLegend("", []legendEntry{{label: "Sales", color: c, marker: MarkerCircle, line: true}})
	return p.save(path)
}

// bar draws one bar per region with the region's mean sales.
func (r *Renderer) bar(t *sales.Table, path string) error {
	groups, err := summary.GroupMeanBy(t, sales.ColumnRegion, sales.ColumnSales)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return fmt.Errorf("no rows to group by %s", sales.ColumnRegion)
	}

	minY, maxY := 0.0, 0.0
	for _, g := range groups {
		if math.IsNaN(g.Mean) {
			continue
		}
		minY = math.Min(minY, g.Mean)
		maxY = math.Max(maxY, g.Mean)
	}

	p := newPlot(r.Style, r.fonts, defaultWidth, defaultHeight)
	p.setRange(-0.5, float64(len(groups))-0.5, minY, maxY)
	p.ymax += (p.ymax - p.ymin) * 0.05
	if minY < 0 {
		p.ymin -= (p.ymax - p.ymin) * 0.05
	}
	if err := p.checkRange(); err != nil {
		return err
	}

	p.drawGrid(nil, niceTicks(p.ymin, p.ymax, 6), formatNumber, formatNumber)

	labels := make([]string, len(groups))
	centers := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
		centers[i] = p.px(float64(i))
		if math.IsNaN(g.Mean) {
			continue
		}
		x0, x1 := p.px(float64(i)-barFill/2), p.px(float64(i)+barFill/2)
		y0, y1 := p.py(0), p.py(g.Mean)
		p.dc.SetColor(r.Style.colorAt(i))
		p.dc.DrawRectangle(x0, math.Min(y0, y1), x1-x0, math.Abs(y1-y0))
		p.dc.Fill()
	}
	p.drawCategoryLabels(labels, centers)

	p.drawTitles(ViewBar.Title(), "Region", "Average Sales")
	return p.save(path)
}

// histogram draws Profit counts over equal-width buckets.
func (r *Renderer) histogram(t *sales.Table, path string) error {
	values := t.Numbers(sales.ColumnProfit)
	if len(values) == 0 {
		return fmt.Errorf("no %s values", sales.ColumnProfit)
	}
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("%s has non-finite value %g", sales.ColumnProfit, v)
		}
	}

	h := summary.Bin(values, r.Style.HistogramBins)
	maxCount := 0
	for _, c := range h.Counts {
		if c > maxCount {
			maxCount = c
		}
	}

	lo, hi := h.Edges[0], h.Edges[len(h.Edges)-1]
	p := newPlot(r.Style, r.fonts, defaultWidth, defaultHeight)
	p.setRange(lo, hi, 0, float64(maxCount))
	span := hi - lo
	p.xmin, p.xmax = lo-span*0.05, hi+span*0.05
	p.ymax *= 1.05
	if err := p.checkRange(); err != nil {
		return err
	}

	p.drawGrid(niceTicks(lo, hi, 6), niceTicks(0, p.ymax, 6), formatNumber, formatNumber)

	for i, c := range h.Counts {
		if c == 0 {
			continue
		}
		x0, x1 := p.px(h.Edges[i]), p.px(h.Edges[i+1])
		y0, y1 := p.py(0), p.py(float64(c))
		p.dc.DrawRectangle(x0, y1, x1-x0, y0-y1)
		p.dc.SetColor(r.Style.HistogramFill)
		p.dc.FillPreserve()
		p.dc.SetColor(r.Style.HistogramEdge)
		p.dc.SetLineWidth(1)
		p.dc.Stroke()
	}

	p.drawTitles(ViewHistogram.Title(), "Profit", "Frequency")
	return p.save(path)
}

// scatter draws one point per record at (Sales, Profit), styled per region.
func (r *Renderer) scatter(t *sales.Table, path string) error {
	type point struct{ x, y float64 }
	var order []string
	byRegion := make(map[string][]point)

	for _, rec := range t.Records() {
		x, okX := rec.Sales()
		y, okY := rec.Profit()
		if !okX || !okY {
			continue
		}
		region := rec.Region()
		if _, seen := byRegion[region]; !seen {
			order = append(order, region)
		}
		byRegion[region] = append(byRegion[region], point{x, y})
	}
	if len(order) == 0 {
		return fmt.Errorf("no rows with both %s and %s", sales.ColumnSales, sales.ColumnProfit)
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, pts := range byRegion {
		for _, pt := range pts {
			minX, maxX = math.Min(minX, pt.x), math.Max(maxX, pt.x)
			minY, maxY = math.Min(minY, pt.y), math.Max(maxY, pt.y)
		}
	}

	p := newPlot(r.Style, r.fonts, defaultWidth, defaultHeight)
	p.setRange(minX, maxX, minY, maxY)
	p.pad(0.05)
	if err := p.checkRange(); err != nil {
		return err
	}
	p.drawGrid(niceTicks(p.xmin, p.xmax, 6), niceTicks(p.ymin, p.ymax, 6), formatNumber, formatNumber)

	entries := make([]legendEntry, 0, len(order))
	for i, region := range order {
		c, m := r.Style.colorAt(i), markerAt(i)
		for _, pt := range byRegion[region] {
			p.drawMarker(m, p.px(pt.x), p.py(pt.y), r.Style.PointSize+1, c)
		}
		entries = append(entries, legendEntry{label: region, color: c, marker: m})
	}

	p.drawTitles(ViewScatter.Title(), "Sales", "Profit")
	p.drawLegend(sales.ColumnRegion, entries)
	return p.save(path)
}

// dateTicks spreads n ticks over [from, to] snapped to whole days when the span allows.
func dateTicks(from, to time.Time, n int) []float64 {
	span := to.Sub(from)
	if n < 2 {
		n = 2
	}
	step := span / time.Duration(n-1)
	if step >= 24*time.Hour {
		step = step.Round(24 * time.Hour)
	}
	if step <= 0 {
		return []float64{float64(from.Unix())}
	}
	var ticks []float64
	for at := from; !at.After(to); at = at.Add(step) {
		ticks = append(ticks, float64(at.Unix()))
	}
	return ticks
}
