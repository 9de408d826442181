package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/holdscan/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrInvalidRecord   = errors.New("invalid holding record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSnapshot checks a snapshot before it is written. ID and timestamp may still be
// empty; SaveSnapshot fills them in.
func validateSnapshot(snap *model.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if len(snap.Records) == 0 {
		return fmt.Errorf("%w: no records", ErrInvalidSnapshot)
	}
	for i, rec := range snap.Records {
		if err := validateRecord(rec); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

// validateRecord rejects records carrying neither a name nor a market value.
func validateRecord(rec model.Record) error {
	if strings.TrimSpace(rec.Name) == "" && rec.MarketValue == nil {
		return fmt.Errorf("%w: no name and no market value", ErrInvalidRecord)
	}
	return nil
}
