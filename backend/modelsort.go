package qbackend

import (
	"sort"
)

// SortableModel can be implemented by models to use SortedInsert, which
// keeps a sorted region of the model sorted during insertions.
type SortableModel interface {
	// Inherently implemented by models
	BeginInsertRows(first, last int)
	EndInsertRows()
}

// SortedInsert inserts one row into the sorted region of count rows that
// starts at row offset, and returns the model row it was inserted at.
//
// before(i) reports whether the new row belongs before the i-th row of the
// region; it must be false for a prefix of the region and true for the rest,
// as with sort.Search. insert(i) must add the row to the data at region
// position i; it is called between the insert brackets.
func SortedInsert(model SortableModel, offset, count int, before func(i int) bool, insert func(i int)) int {
	n := sort.Search(count, before)
	row := offset + n
	model.BeginInsertRows(row, row)
	insert(n)
	model.EndInsertRows()
	return row
}
