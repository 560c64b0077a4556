// Package graph builds a live.Registry from a declarative configuration.
//
// Signals are typed as number (float64), string or bool. Computed nodes
// apply a named operation to their dependencies:
//
//	sum, product, min, max, avg   numbers -> number
//	concat, join                  strings -> string (join uses sep)
//	length                        string  -> number
//	and, or                       bools   -> bool
//	not                           bool    -> bool
//
// A computed node may only depend on nodes declared before it, so a
// configuration can never describe a cycle.
package graph
