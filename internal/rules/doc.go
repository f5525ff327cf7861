// Package rules implements smart playlist rule trees: typed field/operator
// rules composed into all/any groups, validated at save time and evaluated
// in memory against the catalog's denormalized song views.
//
// Evaluation is purely functional over a snapshot of songs; nothing here
// touches the database. A group with no rules and no subgroups matches
// nothing, so an empty smart playlist stays empty instead of matching the
// whole library.
package rules
