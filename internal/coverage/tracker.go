// Package coverage tracks how much of the covering scratch layer has been
// cleared.
package coverage

import (
	"fmt"
	"image"
	"math"

	"scratchcard/internal/models"
)

const opaque = 0xff

// Tracker holds the alpha channel of the covering surface. A unit is cleared
// when its alpha is zero.
type Tracker struct {
	surface *image.Alpha
}

// New creates a fully opaque surface of width x height units.
func New(width, height int) (*Tracker, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", models.ErrSurfaceUnavailable, width, height)
	}

	surface := image.NewAlpha(image.Rect(0, 0, width, height))
	for i := range surface.Pix {
		surface.Pix[i] = opaque
	}
	return &Tracker{surface: surface}, nil
}

// Size returns the surface dimensions.
func (t *Tracker) Size() (width, height int) {
	b := t.surface.Bounds()
	return b.Dx(), b.Dy()
}

// TotalUnits returns width times height.
func (t *Tracker) TotalUnits() int {
	w, h := t.Size()
	return w * h
}

// Clear makes every unit within radius of center transparent. Only the part
// of the disc inside the surface is touched; a non-positive radius or a
// non-finite coordinate clears nothing.
func (t *Tracker) Clear(center models.Point, radius float64) {
	if !(radius > 0) || !finite(center.X) || !finite(center.Y) || !finite(radius) {
		return
	}

	w, h := t.Size()
	if center.X+radius < 0 || center.Y+radius < 0 ||
		center.X-radius > float64(w-1) || center.Y-radius > float64(h-1) {
		return
	}
	x0 := int(math.Max(0, math.Ceil(center.X-radius)))
	x1 := int(math.Min(float64(w-1), math.Floor(center.X+radius)))
	y0 := int(math.Max(0, math.Ceil(center.Y-radius)))
	y1 := int(math.Min(float64(h-1), math.Floor(center.Y+radius)))
	if x0 > x1 || y0 > y1 {
		return
	}

	r2 := radius * radius
	for y := y0; y <= y1; y++ {
		dy := float64(y) - center.Y
		row := t.surface.Pix[y*t.surface.Stride:]
		for x := x0; x <= x1; x++ {
			dx := float64(x) - center.X
			if dx*dx+dy*dy <= r2 {
				row[x] = 0
			}
		}
	}
}

// ClearedFraction scans the whole alpha channel and returns the share of
// cleared units.
func (t *Tracker) ClearedFraction() float64 {
	w, h := t.Size()
	cleared := 0
	for y := 0; y < h; y++ {
		row := t.surface.Pix[y*t.surface.Stride : y*t.surface.Stride+w]
		for _, a := range row {
			if a == 0 {
				cleared++
			}
		}
	}
	return float64(cleared) / float64(w*h)
}

// RevealAll clears the whole surface.
func (t *Tracker) RevealAll() {
	for i := range t.surface.Pix {
		t.surface.Pix[i] = 0
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
