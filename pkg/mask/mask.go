// Package mask declares the DNN mask file adapter (*.dmask.csv).
//
// The mask file layout is not defined yet. Read and Write exist so callers
// can be written against the final surface; both fail with
// MASK_NOT_IMPLEMENTED.
package mask

import (
	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

// Layer selects channels and columns of one layer. Nil slices select all.
type Layer struct {
	Channels []int
	Columns  []int
}

// Mask maps layer names to their selections.
type Mask map[string]Layer

// Read parses the mask file at path.
func Read(path string) (Mask, error) {
	return nil, dnnerrors.MaskNotImplemented("read").WithContext("path", path)
}

// Write writes m to the mask file at path.
func Write(path string, m Mask) error {
	return dnnerrors.MaskNotImplemented("write").WithContext("path", path)
}
