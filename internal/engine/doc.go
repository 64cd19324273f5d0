// Package engine runs one synchronization of one country.
//
// A run has three phases:
//
//  1. Prepare: read both systems once (source workers, destination
//     employees, hierarchy) and build the identity library. These reads
//     make up the SyncContext, which is owned by the run and never shared
//     with another country's run.
//  2. Plan: project source records, read whatever else the run type needs
//     and reconcile, producing an ordered Plan of operations. Planning
//     never writes to either system.
//  3. Submit: apply the plan's mutations through a bounded worker pool.
//     Operations on one employee run in plan order on one goroutine, and a
//     per-employee lock keeps concurrent runs from interleaving on the
//     same employee.
//
// Every planned operation, including unchanged and skipped records, is
// written to the run ledger in plan order once submission finishes. The
// run report is derived from the ledger.
//
// ERROR HANDLING:
//
// Per-record problems (malformed source data, a failed page, a rejected
// write) are logged at Warn and recorded; the run continues. Auth failures
// and an exceeded operation budget stop the run. When a run stops, writes
// already in flight finish so that an absence is never left without its
// days.
package engine
