package render

import (
	"fmt"
	"math"

	"github.com/dshills/codepix/internal/progress"
)

// Dimension is the computed layout of the output image.
type Dimension struct {
	// Width and Height are the image dimensions in pixels.
	Width  int
	Height int

	// LinesPerColumn is the number of line slots in one column.
	LinesPerColumn int

	// Columns is the number of columns.
	Columns int
}

// ComputeDimension searches for the column count whose resulting image
// aspect ratio is closest to target. Candidates are tried in increasing
// order starting at one column; ties prefer the smaller column count. With
// forceFullColumns only layouts where the columns divide totalLines exactly
// are considered (one column always qualifies).
func ComputeDimension(target float64, columnWidth, totalLines, lineHeight int, forceFullColumns bool, prog progress.Progress) (Dimension, error) {
	if target <= 0 {
		return Dimension{}, fmt.Errorf("%w: got %g", ErrInvalidAspectRatio, target)
	}
	if totalLines <= 0 {
		return Dimension{}, fmt.Errorf("%w: nothing to lay out", ErrNoLines)
	}

	best := Dimension{}
	bestDist := math.Inf(1)
	for columns := 1; columns <= totalLines; columns++ {
		linesPerColumn := (totalLines + columns - 1) / columns
		if forceFullColumns && columns*linesPerColumn != totalLines {
			continue
		}
		width := columns * columnWidth
		height := linesPerColumn * lineHeight
		ratio := float64(width) / float64(height)
		if dist := math.Abs(ratio - target); dist < bestDist {
			bestDist = dist
			best = Dimension{
				Width:          width,
				Height:         height,
				LinesPerColumn: linesPerColumn,
				Columns:        columns,
			}
		}
		// The ratio grows monotonically with the column count; once it
		// passes the target no later candidate can be closer.
		if ratio >= target {
			break
		}
	}

	prog.Info(fmt.Sprintf("%d columns of %d lines, aspect ratio %.2f (target %.2f)",
		best.Columns, best.LinesPerColumn,
		float64(best.Width)/float64(best.Height), target))
	return best, nil
}
