package persistence

import (
	"errors"
	"fmt"

	"github.com/billing/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// conflictOnDuplicate maps a duplicate-key violation to the domain conflict
// error so callers see a retryable CONFLICT instead of a driver error.
// Relies on TranslateError being set on the connection, which turns unique
// violations into gorm.ErrDuplicatedKey.
func conflictOnDuplicate(err error, document string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", shared.ErrConflict, document)
	}
	return err
}
