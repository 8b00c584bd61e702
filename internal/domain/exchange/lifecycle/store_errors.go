// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"

	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
)

const (
	FieldVersion         = "version"
	CodeConcurrentUpdate = "concurrent_update"
)

// FromStore translates store sentinels into workflow errors. A lost
// conditional write means another request moved the session first.
// Other errors pass through unchanged and end up as internal failures.
func FromStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		return &Error{Kind: KindStateConflict, Field: FieldVersion, Code: CodeConcurrentUpdate,
			Detail: "session was modified concurrently; reload and retry", Err: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Code: CodeSessionNotFound, Detail: "session not found", Err: err}
	}
	return err
}
