// Package transform projects source-system records into the destination
// system's field shape, and normalizes destination records into the same
// shape so the two can be compared.
//
// Every function here is pure: inputs are the decoded feeds, the identity
// library and the lookup tables, all read-only. A record that cannot be
// projected yields a *MalformedError so callers can skip it and carry on
// with the batch. Missing optional blocks (address, phone, email) are not
// errors; they project to null fields.
package transform
