package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// -----------------------------------------------------------------------------
// Smart Constructors with Auto-Attached Suggestions
// -----------------------------------------------------------------------------
// These constructors derive the category from the code and attach suggestions
// from the default registry.

// Newf creates an error whose category is derived from code, with suggestions attached.
func Newf(code, format string, args ...interface{}) *DnnError {
	return AttachSuggestions(New(code, CodeCategory(code), fmt.Sprintf(format, args...)))
}

// Wrapf wraps cause with an error whose category is derived from code.
func Wrapf(cause error, code, format string, args ...interface{}) *DnnError {
	return AttachSuggestions(Wrap(cause, code, CodeCategory(code), fmt.Sprintf(format, args...)))
}

// Config creates a configuration error with auto-attached suggestions.
func Config(code, message string) *DnnError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// ConfigWrap wraps an error as a configuration error with auto-attached suggestions.
func ConfigWrap(cause error, code, message string) *DnnError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// -----------------------------------------------------------------------------
// Quick Constructors
// -----------------------------------------------------------------------------

// Internal returns err as a DnnError. Errors that are not already DnnErrors
// become INTERNAL_ERROR with err's message.
func Internal(err error) *DnnError {
	if err == nil {
		return nil
	}
	if de, ok := AsDnnError(err); ok {
		return de
	}
	return New(ErrInternalError, CategoryInternal, err.Error())
}

// FromOS classifies an error returned by the os package for path.
// Not-found and permission errors keep their own codes; anything else becomes
// IO_READ_FAILED or IO_WRITE_FAILED depending on write. The original error
// stays in the chain, so errors.Is(err, fs.ErrNotExist) still holds.
func FromOS(err error, path string, write bool) *DnnError {
	if err == nil {
		return nil
	}
	var de *DnnError
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		de = Wrapf(err, ErrIOFileNotFound, "file not found: %s", path)
	case stderrors.Is(err, fs.ErrPermission):
		de = Wrapf(err, ErrIOPermissionDenied, "permission denied: %s", path)
	case write:
		de = Wrapf(err, ErrIOWriteFailed, "failed to write %s", path)
	default:
		de = Wrapf(err, ErrIOReadFailed, "failed to read %s", path)
	}
	return de.WithContext("path", path)
}

// StimMissingHeader creates a STIM_MISSING_HEADER error for a required key.
func StimMissingHeader(key string) *DnnError {
	return Newf(ErrStimMissingHeader, "required header %q is missing", key).
		WithContext("key", key)
}

// StimRaggedTable creates a STIM_RAGGED_TABLE error for a column or row of the wrong length.
func StimRaggedTable(what string, got, want int) *DnnError {
	return Newf(ErrStimRaggedTable, "%s has %d values, expected %d", what, got, want).
		WithContext("got", fmt.Sprintf("%d", got)).
		WithContext("want", fmt.Sprintf("%d", want))
}

// ActMissingRawShape creates an ACT_MISSING_RAW_SHAPE error for a layer.
func ActMissingRawShape(layer string, cause error) *DnnError {
	de := Newf(ErrActMissingRawShape, "layer %q has no raw_shape attribute", layer).
		WithContext("layer", layer)
	if cause != nil {
		de.WithCause(cause)
	}
	return de
}

// ActLayerNotFound creates an ACT_LAYER_NOT_FOUND error.
func ActLayerNotFound(layer string) *DnnError {
	return Newf(ErrActLayerNotFound, "layer %q not found", layer).
		WithContext("layer", layer)
}

// ActUnsupportedDType creates an ACT_UNSUPPORTED_DTYPE error for the given Go value.
func ActUnsupportedDType(layer string, values interface{}) *DnnError {
	return Newf(ErrActUnsupportedDType, "layer %q: unsupported array type %T", layer, values).
		WithContext("layer", layer).
		WithContext("type", fmt.Sprintf("%T", values))
}

// ActStorage wraps an error from the HDF5 library.
func ActStorage(cause error, op, path string) *DnnError {
	return Wrapf(cause, ErrActStorageFailed, "hdf5 %s failed", op).
		WithContext("path", path)
}

// MaskNotImplemented creates a MASK_NOT_IMPLEMENTED error for op.
func MaskNotImplemented(op string) *DnnError {
	return Newf(ErrMaskNotImplemented, "mask %s is not implemented", op)
}
