package models

import "errors"

var (
	// ErrUnsupportedKind is returned for a column spec kind outside label, num, text, category.
	ErrUnsupportedKind = errors.New("unsupported transformer kind")
	// ErrUnsupportedNormalizer is returned for an unknown normalizer type name.
	ErrUnsupportedNormalizer = errors.New("unsupported normalizer")
	// ErrUnknownColumn is returned when no transformer is configured for a column.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotApplicable is returned when attaching a normalizer to the label column.
	ErrNotApplicable = errors.New("not applicable to label column")
	// ErrMissingTransformer is returned when an output column has no transformer.
	ErrMissingTransformer = errors.New("missing transformer")
	// ErrMissingColumn is returned when a required column is absent from the data source or a row.
	ErrMissingColumn = errors.New("missing column")
	// ErrDuplicateColumn is returned when the output column list repeats a column.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrUninitializedFeature is returned when a normalizer is applied to a feature it never saw.
	ErrUninitializedFeature = errors.New("feature not initialized")
	// ErrDivisionByZero is returned by min-max normalization when min equals max.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrEmptyLabel is returned for a blank label cell.
	ErrEmptyLabel = errors.New("label must not be empty")
	// ErrInvalidNumber is returned when label or numeric text does not parse as a float.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrNotConfigured is returned when the engine is used before configuration and discovery.
	ErrNotConfigured = errors.New("engine not configured")
	// ErrSnapshotNotFound is returned when a stored snapshot does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
