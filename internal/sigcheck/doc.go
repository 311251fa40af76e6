// Package sigcheck validates call sites of a compiled module against the
// declared signatures of their callees.
//
// A Validator visits call sites in program order. For each resolved callee it
// records the parameter classes in a Registry (frozen at first sight, counted
// on every call); for callees with a body it also compares the argument count
// and each argument's TypeClass against the declaration and reports mismatches
// through a diag.Reporter. Render prints the registry as the
// "List of function calls:" block.
//
// Classification is coarse: void, i8, i32, float, double and
// pointers are the only known classes, and only identical known classes are
// compatible.
package sigcheck
