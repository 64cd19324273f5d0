// Package ir provides the shared record types for hrsync.
//
// This package contains type definitions and the canonical encoding used
// to compare and fingerprint records. All other internal packages import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - Dates are civil dates (Date), never wall-clock timestamps
//   - Nullable fields are pointers so that "absent" and "empty" stay distinct
//   - Salaries are decimal.Decimal, never float64
//   - JSON field names match the destination system's payload shape
//   - Record equality is canonical-JSON byte equality (see canonical.go)
package ir
