// Package feed defines the decoded wire shapes of both HR systems.
//
// Every nested block is a pointer or slice so that a record missing a
// block decodes cleanly; accessors return nil or "" instead of failing.
// Transformers in internal/transform read these shapes; nothing here
// applies business rules.
package feed
