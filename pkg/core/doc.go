// Package core defines the shared language of the formatter.
//
// This package contains the resolved formatting configuration consumed by
// the layout engine: line width, indentation, letter case, blank-line
// policy and the weighted option sets that drive layout decisions.
// Loading, merging and defaulting configuration happen elsewhere; core only
// describes the fully-resolved result.
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
