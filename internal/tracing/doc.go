// Package tracing instruments compiled units so that every completed method
// dispatch reports its receiver, arguments, result and source location to
// a registered observer.
//
// Transform compiles a unit while recording the source span of each
// dispatch node, then rewrites the graph: every traceable dispatch gets a
// TracingAction in place of its CallAction, and its last operand is wrapped
// in an EnterSite marker. Operands are evaluated left to right, so the
// marker runs after every operand and immediately before the dispatch,
// storing the site on the executing Thread where the TracingAction picks it
// up.
package tracing
