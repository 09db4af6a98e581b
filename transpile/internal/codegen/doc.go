// Package codegen provides the build-time bookkeeping for the resumable
// transform.
//
// # Responsibilities
//
//   - Number dispatch steps with one counter per function
//   - Accumulate the steps of one lexical block and render its switch
//   - Own the variable set, temporaries and the step-to-temporary
//     assignment map of a function
//
// This package is internal to the transpiler.
package codegen
