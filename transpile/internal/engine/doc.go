// Package engine orchestrates the resumable transformation.
//
// Transformation pipeline:
//  1. Reject already transformed trees, check names, validate statements
//  2. Transpile each function body into dispatch steps via the handler registry
//  3. Resolve guard fast-forwards once the step count is known
//  4. Wrap the dispatch switch with declarations, restore prologue and
//     capture epilogue
package engine
