// Package repository persists storefront-owned records in MySQL.  The
// backend remains the system of record for events and sales; this layer
// only stores what the storefront itself produces, such as the check-in
// audit trail.
package repository

import "errors"

// ErrInvalidAudit is returned when an audit row lacks a transaction id,
// action or outcome.  Nothing is written in that case.
var ErrInvalidAudit = errors.New("invalid audit row")
