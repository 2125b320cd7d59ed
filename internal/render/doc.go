// Package render turns an ordered collection of source files into a single
// syntax-highlighted raster image: one glyph-row per source line, lines
// flowing down fixed-width columns chosen to approximate a target aspect
// ratio.
//
// The package is organised around five pieces:
//
//   - ComputeDimension picks the image layout from the aspect ratio and the
//     total line count.
//   - Cache resolves per-file highlighters over the chroma syntax and style
//     registries and clones cheaply so every worker owns its state.
//   - RenderChunk draws one file's lines into a pixel region through a
//     pluggable per-line HighlightFunc.
//   - Offsets maps a global line index to its canvas position; both render
//     paths and the trailing fill share it, which is what makes parallel
//     output pixel-identical to sequential output.
//   - Render orchestrates the whole thing: planning, allocation, the
//     sequential or worker-pool path, compositing, and trailing fill.
//
// File discovery, image encoding, and the CLI live outside this package and
// interact with it only through Source slices, the progress sink, and the
// caller-owned interrupt flag.
package render
