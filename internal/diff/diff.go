// Package diff holds the small shared constants the write/edit tools use
// when deciding whether a before/after pair is small enough to embed as an
// inline "__DIFF__:" marker for the terminal's streaming diff preview.
package diff

// MaxDiffSize bounds how large either side of a diff marker payload may be
// before it is dropped: a preview marker is meant to render instantly, not
// to carry an entire generated file through the event pipeline.
const MaxDiffSize = 64 * 1024
