package render

// Offsets maps a global line index to the pixel position of its line slot on
// the canvas. Both render paths and the trailing-space filler use this one
// function, so placement is pixel-identical everywhere.
func Offsets(lineIndex, linesPerColumn, columnWidth, lineHeight int) (x, y int) {
	column := lineIndex / linesPerColumn
	row := lineIndex % linesPerColumn
	return column * columnWidth, row * lineHeight
}
