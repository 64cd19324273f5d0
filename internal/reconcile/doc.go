// Package reconcile compares projected source records with normalized
// destination records and classifies each into the operations needed to
// converge the destination.
//
// All functions are pure and deterministic: output order follows input
// order, so two runs over the same snapshots produce identical plans.
//
// Record equality is canonical-JSON equality (ir.CanonicalEqual): two
// records are equal iff every destination field serializes identically.
package reconcile
