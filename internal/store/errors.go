package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrStateConflict is returned by CompareAndTransition when the stored
	// state no longer equals the expected state (0 rows updated). Callers
	// reload and either retry or surface the terminal state they observe.
	ErrStateConflict = errors.New("grant state conflict")

	// ErrNoAsset is returned by ResolveAssetKey when the lesson exists but
	// has no asset of the requested kind.
	ErrNoAsset = errors.New("lesson has no asset of this kind")
)
