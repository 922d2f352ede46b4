package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/mazeper/utils/floatutils"
	"github.com/samuelfneumann/mazeper/utils/intutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Panel dimensions of Curves in pixels
const (
	PanelWidth  = 800
	PanelHeight = 240
	margin      = 40
)

var (
	rawColour    = color.RGBA{150, 180, 230, 255}
	smoothColour = color.RGBA{0, 60, 200, 255}
	axisColour   = color.RGBA{60, 60, 60, 255}
)

// Series is one panel of learning curves: the values of each episode
// and their moving average over Window episodes
type Series struct {
	Title  string
	Values []float64

	// Window is the width of the moving average. If 0 or 1, only the
	// raw values are drawn.
	Window int
}

// Rewards returns the episodic return panel, smoothed over 50 episodes
func Rewards(returns []float64) Series {
	return Series{Title: "Reward", Values: returns, Window: 50}
}

// SuccessRate returns the cumulative success rate panel
func SuccessRate(rates []float64) Series {
	return Series{Title: "Success rate %", Values: rates}
}

// StepsToSuccess returns the panel of steps taken in successful
// episodes, 0 for failures, smoothed over 50 episodes
func StepsToSuccess(steps []float64) Series {
	return Series{Title: "Steps to success", Values: steps, Window: 50}
}

// Curves draws each series in its own panel, stacked vertically
func Curves(series ...Series) image.Image {
	dc := gg.NewContext(PanelWidth, PanelHeight*intutils.Max(1, len(series)))
	dc.SetColor(color.White)
	dc.Clear()

	for i, s := range series {
		panel(dc, s, float64(i*PanelHeight))
	}
	return dc.Image()
}

// panel draws s into the panel whose top edge is at top
func panel(dc *gg.Context, s Series, top float64) {
	left, right := float64(margin), float64(PanelWidth-margin/2)
	upper, lower := top+margin, top+PanelHeight-margin/2

	dc.SetColor(axisColour)
	dc.SetLineWidth(1)
	dc.DrawRectangle(left, upper, right-left, lower-upper)
	dc.Stroke()

	title := s.Title
	if len(s.Values) > 0 {
		title = fmt.Sprintf("%v (mean %.2f)", s.Title,
			stat.Mean(s.Values, nil))
	}
	dc.DrawStringAnchored(title, PanelWidth/2, top+margin/2, 0.5, 0.5)

	if len(s.Values) == 0 {
		return
	}

	lo, hi := floats.Min(s.Values), floats.Max(s.Values)
	if hi == lo {
		hi, lo = hi+1, lo-1
	}
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", hi), left-4, upper, 1, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.4g", lo), left-4, lower, 1, 0.5)

	n := len(s.Values)
	xOf := func(i int) float64 {
		if n == 1 {
			return (left + right) / 2
		}
		return left + float64(i)/float64(n-1)*(right-left)
	}
	yOf := func(v float64) float64 {
		return lower - (v-lo)/(hi-lo)*(lower-upper)
	}

	line(dc, s.Values, 0, xOf, yOf, rawColour, 1)

	window := intutils.Min(s.Window, n)
	if window > 1 {
		avg := floatutils.MovingAverage(s.Values, window)
		line(dc, avg, window-1, xOf, yOf, smoothColour, 2)
	}
}

// line draws values as a polyline, placing values[i] at episode
// offset+i
func line(dc *gg.Context, values []float64, offset int,
	xOf func(int) float64, yOf func(float64) float64, c color.Color,
	width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.MoveTo(xOf(offset), yOf(values[0]))
	for i, v := range values[1:] {
		dc.LineTo(xOf(offset+i+1), yOf(v))
	}
	dc.Stroke()
}

// SaveCurves draws the series as Curves does and saves them as a PNG
// to filename
func SaveCurves(filename string, series ...Series) error {
	if err := gg.SavePNG(filename, Curves(series...)); err != nil {
		return fmt.Errorf("saveCurves: %w", err)
	}
	return nil
}
