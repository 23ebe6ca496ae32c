package indexer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every NotFoundError through errors.Is.
	ErrNotFound = errors.New("record not found")
	// ErrForbidden is returned when a non-admin actor calls an admin operation.
	ErrForbidden = errors.New("admin capability required")
	// ErrNoValidIDs is returned when an id specification has no usable token.
	ErrNoValidIDs = errors.New("no valid ids in specification")
	// ErrNotConfirmed is returned when executing a delete plan that was not confirmed.
	ErrNotConfirmed = errors.New("delete plan not confirmed")
	// ErrPlanExecuted is returned when a delete plan is confirmed or executed twice.
	ErrPlanExecuted = errors.New("delete plan already executed")
	// ErrExportUnavailable is returned for export formats that are disabled.
	ErrExportUnavailable = errors.New("export format unavailable")
	// ErrUnknownType is returned for record types missing from the catalog.
	ErrUnknownType = errors.New("unknown record type")
	// ErrUnknownField is returned for fields the record type does not carry.
	ErrUnknownField = errors.New("unknown field")
	// ErrNoVault is returned by backup operations when no vault is configured.
	ErrNoVault = errors.New("no backup vault configured")
)

// NotFoundError reports a record that vanished or never existed.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %d not found", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
