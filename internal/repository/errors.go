package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record lookup by id matches nothing.
// Lookup misses are not exceptional at the repository boundary.
var ErrNotFound = errors.New("record not found")

// translate maps gorm errors to repository sentinels.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
