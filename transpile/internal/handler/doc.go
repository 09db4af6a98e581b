// Package handler provides statement-level handlers for the resumable
// transform.
//
// Handler categories:
//   - Simple: expression, variable, return and throw statements add steps
//     built from flattened expressions
//   - Structural: function declarations are hoisted, empty statements dropped
//   - Control flow: blocks, if, while and for nest a child block behind a
//     marker step and an index guard
package handler
