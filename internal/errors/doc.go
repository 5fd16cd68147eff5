// Package errors provides structured, actionable errors for weft.
//
// Every error carries a code (e.g. "W002") registered in this package, a
// category, a short message and optional detail and suggestion text. Codes
// let callers and tests match failures without string comparison:
//
//	err := errors.New(errors.CodeStrictSlotMismatch).
//	    WithDetail(`expected directive "Text", got "List"`).
//	    WithSuggestion("Use a loose slot where the value type may change")
//
//	if errors.HasCode(err, errors.CodeStrictSlotMismatch) { ... }
//
// # Categories
//
//   - protocol: misuse of the binding, slot or hook protocol. Always fatal.
//   - runtime: failures of user callbacks (render, effects, reducers).
//   - config: invalid or unreadable configuration.
//   - cli: command line failures.
package errors
