// Package harness runs sync scenarios against fixture systems.
//
// A scenario describes the source and destination as they are before a
// run, picks a country and run type, and asserts on what the engine sent
// and what it recorded in the ledger. The engine is the real one; only the
// two systems are fixtures.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: personal_update
//	description: "What this scenario validates"
//	country: usa
//	run_type: 3
//	today: "2026-10-16"
//	tables: ../tables
//	source:
//	  workers:
//	    - {aoid: aoid-1, position: POS1, display_id: EMP1}
//	  time_off:
//	    aoid-1:
//	      - status: Approved
//	        requests:
//	          - policy: PTO
//	            earning_type: Vacation
//	            days: [{date: "2026-10-12", value: "8"}]
//	destination:
//	  employees:
//	    - {id: emp-1, display_id: EMP1, position: POS1}
//	  fail:
//	    PUT employees emp-1: 500
//	assertions:
//	  - type: call_contains
//	    call: PUT employees emp-1
//	  - type: counts
//	    kind: personal
//	    expect: {failed: 1}
//
// Dates are quoted so YAML keeps them as strings.
//
// # Calls
//
// Writes are logged as "METHOD collection [id]": "PUT employees emp-1",
// "POST absences", "DELETE absences abs-1", "POST days <absence> <date>
// <part>" and "PUSH <aoid> <display id>". Created records get ids of the
// form "<collection>-new-N". Reads are not logged but can be failed with
// "GET workers", "GET employees", "GET jobs", "GET hierarchy",
// "GET employees <display id>", "GET absences <employee>" and
// "GET timeoff <aoid>".
//
// # Assertion Types
//
//   - call_contains: a call was sent
//   - call_order: calls were sent in the given order
//   - call_count: a call was sent exactly N times
//   - counts: the report counts of a kind include the expected fields
//   - ledger_contains: a ledger entry includes the expected fields
//   - status: the run finished with the given status
//   - run_error: the run error contains a substring
//
// # Deterministic Testing
//
// Every scenario runs with one worker, a clock fixed to the scenario's
// today, sequential run ids and a fresh in-memory ledger, so its snapshot
// (see Snapshot) is byte-identical across runs and can be kept as a golden
// file.
package harness
