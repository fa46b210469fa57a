package errors

// -----------------------------------------------------------------------------
// Stimulus File Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrStimMissingHeader indicates one of the required type/title/path lines is absent.
	ErrStimMissingHeader = "STIM_MISSING_HEADER"

	// ErrStimMissingData indicates the "data=" line naming the table columns is absent.
	ErrStimMissingData = "STIM_MISSING_DATA"

	// ErrStimRaggedTable indicates table columns or rows of unequal length.
	ErrStimRaggedTable = "STIM_RAGGED_TABLE"

	// ErrStimMalformedLine indicates a header line without '=' or an empty key.
	ErrStimMalformedLine = "STIM_MALFORMED_LINE"

	// ErrStimDuplicateColumn indicates the same column name appears twice.
	ErrStimDuplicateColumn = "STIM_DUPLICATE_COLUMN"

	// ErrStimColumnNotFound indicates a lookup of a column the table does not have.
	ErrStimColumnNotFound = "STIM_COLUMN_NOT_FOUND"

	// ErrStimColumnKind indicates a text column was requested as numeric or vice versa.
	ErrStimColumnKind = "STIM_COLUMN_KIND"
)

// -----------------------------------------------------------------------------
// Activation File Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrActMissingRawShape indicates a dataset without its raw_shape attribute.
	ErrActMissingRawShape = "ACT_MISSING_RAW_SHAPE"

	// ErrActShapeMismatch indicates data size disagrees with its shape or raw shape.
	ErrActShapeMismatch = "ACT_SHAPE_MISMATCH"

	// ErrActLayerNotFound indicates a requested layer is not in the container.
	ErrActLayerNotFound = "ACT_LAYER_NOT_FOUND"

	// ErrActUnsupportedDType indicates array values of a type the container cannot hold.
	ErrActUnsupportedDType = "ACT_UNSUPPORTED_DTYPE"

	// ErrActInvalidLayerName indicates an empty layer name or one containing '/'.
	ErrActInvalidLayerName = "ACT_INVALID_LAYER_NAME"

	// ErrActStorageFailed indicates the HDF5 library rejected an operation.
	ErrActStorageFailed = "ACT_STORAGE_FAILED"
)

// -----------------------------------------------------------------------------
// Mask File Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrMaskNotImplemented indicates the mask format has no defined behavior yet.
	ErrMaskNotImplemented = "MASK_NOT_IMPLEMENTED"
)

// -----------------------------------------------------------------------------
// I/O Error Codes
// -----------------------------------------------------------------------------

const (
	ErrIOFileNotFound     = "IO_FILE_NOT_FOUND"
	ErrIOPermissionDenied = "IO_PERMISSION_DENIED"
	ErrIOReadFailed       = "IO_READ_FAILED"
	ErrIOWriteFailed      = "IO_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the configuration file could not be parsed.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigWriteFailed indicates the config file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

const (
	ErrInternalError = "INTERNAL_ERROR"
)

// CodeCategory returns the category for a given error code.
// Returns CategoryInternal if the code is not recognized.
func CodeCategory(code string) Category {
	switch code {
	case ErrStimMissingHeader, ErrStimMissingData, ErrStimRaggedTable,
		ErrStimMalformedLine, ErrStimDuplicateColumn, ErrStimColumnNotFound,
		ErrStimColumnKind,
		ErrActMissingRawShape, ErrActShapeMismatch, ErrActLayerNotFound,
		ErrActInvalidLayerName:
		return CategoryFormat

	case ErrActUnsupportedDType:
		return CategoryType

	case ErrIOFileNotFound, ErrIOPermissionDenied, ErrIOReadFailed,
		ErrIOWriteFailed, ErrActStorageFailed:
		return CategoryIO

	case ErrConfigNotFound, ErrConfigParseFailed, ErrConfigInvalid,
		ErrConfigWriteFailed:
		return CategoryConfig

	default:
		return CategoryInternal
	}
}
