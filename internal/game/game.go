// Package game holds the pure rules of the memory match: deck generation
// and the turn transitions applied to a shared match record.
package game

// Patch is a combined partial update, keyed by path relative to the match
// record. Applying it to the shared record yields the state returned next
// to it.
type Patch map[string]any
