// Package queryir is a small query representation for the OData-style
// collection reads hrsync makes against both upstream APIs.
//
// Filters are built as values rather than format strings so that quoting,
// null comparison and date literals are rendered in exactly one place
// (package queryodata) and can be checked before a request is sent.
//
//	[client] → [queryir.Collection] → [queryodata.Compile] → url.Values
//
// SUPPORTED FRAGMENT:
//
//   - Collection(path, filter, top, skip, count)
//   - Predicates: Equals, GreaterOrEqual, And
//   - Literals: String, Bool, Date, Null
//
// There is no Or: every filter the sync issues is a conjunction.
//
// SEALED INTERFACES:
//
// Query, Predicate and Literal are sealed with marker methods, so compilers
// can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case GreaterOrEqual:
//	case And:
//	}
package queryir
