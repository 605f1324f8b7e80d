// Package vm executes compiled spell programs against live spell state.
//
// A VM is bound to exactly one Spell and one Program. Execution is
// synchronous and single-threaded: RunReady once at spawn, then
// RunProcessTick once per engine tick. Component implementations follow
// a two-phase protocol - a dry run that prices the cast, then a commit
// that applies it - with the efficiency economy between the phases:
// repeated use of a component raises its efficiency level and drives
// the needed energy down toward the base cost.
//
// The Registry and any Catalogue are immutable after construction and
// shared across entities; everything mutable lives on the Spell.
package vm
