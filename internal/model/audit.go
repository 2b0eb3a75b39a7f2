package model

import "time"

// ModificationEntry records one field-level change. Entries are
// immutable once appended.
type ModificationEntry struct {
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	ModifiedBy Actor     `json:"modified_by"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReverseChronological holds entries newest first. New entries are
// prepended, never inserted or rewritten. ModificationHistory uses
// this convention.
type ReverseChronological[T any] []T

// Prepend returns a new list with e at the head. The receiver is left
// untouched.
func (l ReverseChronological[T]) Prepend(entries ...T) ReverseChronological[T] {
	next := make(ReverseChronological[T], 0, len(entries)+len(l))
	next = append(next, entries...)
	next = append(next, l...)
	return next
}

// Chronological holds entries oldest first. New entries are appended
// to the tail. ServiceHistory uses this convention; the most recent
// entry is the last one, not the first. The two history orderings are
// deliberately opposite and both are relied upon by consumers.
type Chronological[T any] []T

// Append returns a new list with e at the tail. The receiver is left
// untouched.
func (l Chronological[T]) Append(entries ...T) Chronological[T] {
	next := make(Chronological[T], 0, len(l)+len(entries))
	next = append(next, l...)
	next = append(next, entries...)
	return next
}
