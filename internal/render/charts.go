// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorAxis     = color.RGBA{0x44, 0x44, 0x44, 0xff}
	colorGrid     = color.RGBA{0xe0, 0xe3, 0xe8, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}

	// seriesColors are assigned to series in order.
	seriesColors = []color.RGBA{
		{0x6b, 0x80, 0xbf, 0xff},
		{0xe0, 0x8e, 0x45, 0xff},
		{0x5a, 0xa4, 0x69, 0xff},
	}
)

const (
	chartWidth  = 760
	chartHeight = 440

	marginLeft   = 72.0
	marginRight  = 24.0
	marginTop    = 72.0
	marginBottom = 72.0

	gridLines = 4
)

// frame is the plot area inside a chart canvas.
type frame struct {
	x, y, w, h float64
}

func plotFrame() frame {
	return frame{
		x: marginLeft,
		y: marginTop,
		w: chartWidth - marginLeft - marginRight,
		h: chartHeight - marginTop - marginBottom,
	}
}

// barChart is a grouped vertical bar chart. Each group has one value per
// series.
type barChart struct {
	Title    string
	Subtitle string
	YLabel   string
	Series   []string
	Groups   []barGroup
}

type barGroup struct {
	Label  string
	Values []float64
}

func (c barChart) maxValue() float64 {
	maxV := 0.0
	for _, g := range c.Groups {
		for _, v := range g.Values {
			maxV = math.Max(maxV, v)
		}
	}
	return niceCeil(maxV)
}

// bar is the geometry of one drawn bar.
type bar struct {
	x, y, w, h float64
	value      float64
	series     int
}

// layout returns bar rectangles and the center x of each group label.
func (c barChart) layout(f frame) ([]bar, []float64) {
	maxV := c.maxValue()
	n := len(c.Groups)
	if n == 0 {
		return nil, nil
	}
	series := max(len(c.Series), 1)
	slot := f.w / float64(n)
	barW := slot * 0.8 / float64(series)

	var bars []bar
	centers := make([]float64, n)
	for i, g := range c.Groups {
		left := f.x + float64(i)*slot + slot*0.1
		centers[i] = f.x + float64(i)*slot + slot/2
		for s, v := range g.Values {
			h := 0.0
			if maxV > 0 {
				h = v / maxV * f.h
			}
			bars = append(bars, bar{
				x:      left + float64(s)*barW,
				y:      f.y + f.h - h,
				w:      barW,
				h:      h,
				value:  v,
				series: s,
			})
		}
	}
	return bars, centers
}

// stepChart plots Kaplan-Meier style step curves on a [0,1] y axis.
type stepChart struct {
	Title    string
	Subtitle string
	XLabel   string
	YLabel   string
	Curves   []stepCurve
}

type stepCurve struct {
	Label  string
	Points []stepPoint
}

type stepPoint struct {
	X int
	Y float64
}

func (c stepChart) maxX() int {
	maxX := 1
	for _, cv := range c.Curves {
		for _, p := range cv.Points {
			maxX = max(maxX, p.X)
		}
	}
	return maxX
}

// path returns the vertices of a step function: each point holds its y
// until the next x.
func (c stepChart) path(f frame, cv stepCurve) ([]float64, []float64) {
	maxX := float64(c.maxX())
	sx := func(x int) float64 { return f.x + float64(x)/maxX*f.w }
	sy := func(y float64) float64 { return f.y + (1-y)*f.h }

	var xs, ys []float64
	for i, p := range cv.Points {
		if i > 0 {
			xs = append(xs, sx(p.X))
			ys = append(ys, sy(cv.Points[i-1].Y))
		}
		xs = append(xs, sx(p.X))
		ys = append(ys, sy(p.Y))
	}
	return xs, ys
}

// niceCeil rounds v up to 1, 2, or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*exp >= v {
			return m * exp
		}
	}
	return 10 * exp
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// --- SVG ---

func writeSVGFile(path string, draw func(io.Writer)) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	draw(file)
	return nil
}

func startSVG(canvas *svg.SVG, title, subtitle string) {
	canvas.Start(chartWidth, chartHeight)
	canvas.Title(title)
	canvas.Rect(0, 0, chartWidth, chartHeight, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 12, chartWidth-24, 44, 8, 8, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(28, 32, title, fmt.Sprintf("fill:%s;font-size:15px;font-family:monospace;font-weight:bold", css(colorText)))
	if subtitle != "" {
		canvas.Text(28, 49, subtitle, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}
}

func axesSVG(canvas *svg.SVG, f frame, top float64, yFormat func(float64) string) {
	for i := 0; i <= gridLines; i++ {
		frac := float64(i) / gridLines
		y := int(f.y + f.h - frac*f.h)
		canvas.Line(int(f.x), y, int(f.x+f.w), y, fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGrid)))
		canvas.Text(int(f.x)-8, y+4, yFormat(frac*top),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:end", css(colorSubtle)))
	}
	style := fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorAxis))
	canvas.Line(int(f.x), int(f.y), int(f.x), int(f.y+f.h), style)
	canvas.Line(int(f.x), int(f.y+f.h), int(f.x+f.w), int(f.y+f.h), style)
}

func legendSVG(canvas *svg.SVG, labels []string) {
	x := chartWidth - 200
	for i, l := range labels {
		y := 24 + i*14
		canvas.Rect(x, y, 10, 10, fmt.Sprintf("fill:%s", css(seriesColor(i))))
		canvas.Text(x+16, y+9, l, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorText)))
	}
}

func (c barChart) renderSVG(w io.Writer) {
	f := plotFrame()
	canvas := svg.New(w)
	startSVG(canvas, c.Title, c.Subtitle)
	axesSVG(canvas, f, c.maxValue(), formatValue)

	bars, centers := c.layout(f)
	for _, b := range bars {
		canvas.Rect(int(b.x), int(b.y), max(int(b.w)-2, 1), int(b.h), fmt.Sprintf("fill:%s", css(seriesColor(b.series))))
		canvas.Text(int(b.x+b.w/2), int(b.y)-4, formatValue(b.value),
			fmt.Sprintf("fill:%s;font-size:10px;font-family:monospace;text-anchor:middle", css(colorText)))
	}
	for i, g := range c.Groups {
		canvas.Text(int(centers[i]), int(f.y+f.h)+18, truncate(g.Label, 18),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorText)))
	}
	if c.YLabel != "" {
		canvas.Text(16, int(f.y)-12, c.YLabel, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}
	if len(c.Series) > 1 {
		legendSVG(canvas, c.Series)
	}
	canvas.End()
}

func (c stepChart) renderSVG(w io.Writer) {
	f := plotFrame()
	canvas := svg.New(w)
	startSVG(canvas, c.Title, c.Subtitle)
	axesSVG(canvas, f, 1, func(v float64) string { return fmt.Sprintf("%.2f", v) })

	labels := make([]string, len(c.Curves))
	for i, cv := range c.Curves {
		labels[i] = cv.Label
		fx, fy := c.path(f, cv)
		if len(fx) == 0 {
			continue
		}
		xs := make([]int, len(fx))
		ys := make([]int, len(fy))
		for j := range fx {
			xs[j], ys[j] = int(fx[j]), int(fy[j])
		}
		canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(seriesColor(i))))
	}
	canvas.Text(int(f.x+f.w), int(f.y+f.h)+18, fmt.Sprintf("%d", c.maxX()),
		fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:end", css(colorSubtle)))
	canvas.Text(int(f.x), int(f.y+f.h)+18, "0", fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	canvas.Text(int(f.x+f.w/2), int(f.y+f.h)+40, c.XLabel,
		fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	canvas.Text(16, int(f.y)-12, c.YLabel, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	legendSVG(canvas, labels)
	canvas.End()
}

// --- PNG ---

func startPNG(title, subtitle string) *gg.Context {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 12, chartWidth-24, 44, 8)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(title, 28, 28, 0, 0.5)
	if subtitle != "" {
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(subtitle, 28, 46, 0, 0.5)
	}
	return dc
}

func axesPNG(dc *gg.Context, f frame, top float64, yFormat func(float64) string) {
	dc.SetLineWidth(1)
	for i := 0; i <= gridLines; i++ {
		frac := float64(i) / gridLines
		y := f.y + f.h - frac*f.h
		dc.SetColor(colorGrid)
		dc.DrawLine(f.x, y, f.x+f.w, y)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(yFormat(frac*top), f.x-8, y, 1, 0.5)
	}
	dc.SetColor(colorAxis)
	dc.SetLineWidth(1.5)
	dc.DrawLine(f.x, f.y, f.x, f.y+f.h)
	dc.Stroke()
	dc.DrawLine(f.x, f.y+f.h, f.x+f.w, f.y+f.h)
	dc.Stroke()
}

func legendPNG(dc *gg.Context, labels []string) {
	x := float64(chartWidth - 200)
	for i, l := range labels {
		y := float64(24 + i*14)
		dc.SetColor(seriesColor(i))
		dc.DrawRectangle(x, y, 10, 10)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(l, x+16, y+5, 0, 0.5)
	}
}

func (c barChart) renderPNG(path string) error {
	f := plotFrame()
	dc := startPNG(c.Title, c.Subtitle)
	axesPNG(dc, f, c.maxValue(), formatValue)

	bars, centers := c.layout(f)
	for _, b := range bars {
		dc.SetColor(seriesColor(b.series))
		dc.DrawRectangle(b.x, b.y, math.Max(b.w-2, 1), b.h)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(formatValue(b.value), b.x+b.w/2, b.y-8, 0.5, 0.5)
	}
	for i, g := range c.Groups {
		dc.DrawStringAnchored(truncate(g.Label, 18), centers[i], f.y+f.h+16, 0.5, 0.5)
	}
	if c.YLabel != "" {
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(c.YLabel, 16, f.y-12, 0, 0.5)
	}
	if len(c.Series) > 1 {
		legendPNG(dc, c.Series)
	}
	return dc.SavePNG(path)
}

func (c stepChart) renderPNG(path string) error {
	f := plotFrame()
	dc := startPNG(c.Title, c.Subtitle)
	axesPNG(dc, f, 1, func(v float64) string { return fmt.Sprintf("%.2f", v) })

	labels := make([]string, len(c.Curves))
	dc.SetLineWidth(2)
	for i, cv := range c.Curves {
		labels[i] = cv.Label
		xs, ys := c.path(f, cv)
		dc.SetColor(seriesColor(i))
		for j := 1; j < len(xs); j++ {
			dc.DrawLine(xs[j-1], ys[j-1], xs[j], ys[j])
			dc.Stroke()
		}
	}
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored("0", f.x, f.y+f.h+16, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%d", c.maxX()), f.x+f.w, f.y+f.h+16, 1, 0.5)
	dc.DrawStringAnchored(c.XLabel, f.x+f.w/2, f.y+f.h+38, 0.5, 0.5)
	dc.DrawStringAnchored(c.YLabel, 16, f.y-12, 0, 0.5)
	legendPNG(dc, labels)
	return dc.SavePNG(path)
}

func seriesColor(i int) color.RGBA {
	return seriesColors[i%len(seriesColors)]
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
