package library

import (
	"strings"

	qbackend "github.com/CrimsonAS/peruse/backend"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CategoryEntriesModel is one level of the category tree. Its rows are the
// sub-categories, sorted by name, followed by the books, sorted by the
// model's SortRole.
//
// Sub-categories are child objects of the model and follow its changes:
// EntryDataUpdated and EntryRemoved emitted on a model are re-emitted on
// every sub-category.
type CategoryEntriesModel struct {
	qbackend.Object
	qbackend.Model

	name       string
	sortRole   SortRole
	collator   *collate.Collator
	categories []*CategoryEntriesModel
	entries    []*BookEntry

	// PDFThumbnails is used by BookFromFile for books that are not listed.
	PDFThumbnails bool

	EntryDataUpdated qbackend.Signal[*BookEntry]
	EntryRemoved     qbackend.Signal[*BookEntry]
}

// NewCategoryEntriesModel creates the root of a category tree.
func NewCategoryEntriesModel(sortRole SortRole) *CategoryEntriesModel {
	return newCategoryEntriesModel(nil, "", sortRole, collate.New(language.Und))
}

func newCategoryEntriesModel(parent *CategoryEntriesModel, name string, sortRole SortRole, collator *collate.Collator) *CategoryEntriesModel {
	m := &CategoryEntriesModel{name: name, sortRole: sortRole, collator: collator}
	var parentObj qbackend.AnyObject
	if parent != nil {
		parentObj = parent
		m.PDFThumbnails = parent.PDFThumbnails
	}
	if err := qbackend.InitObject(m, parentObj); err != nil {
		panic(err)
	}
	m.InitModel(m)

	m.EntryDataUpdated.Connect(m, m.entryDataChanged)
	m.EntryRemoved.Connect(m, m.entryRemove)
	if parent != nil {
		parent.EntryDataUpdated.Connect(m, m.EntryDataUpdated.Emit)
		parent.EntryRemoved.Connect(m, m.EntryRemoved.Emit)
		m.Destroyed.Connect(parent, func(qbackend.AnyObject) {
			parent.EntryDataUpdated.Disconnect(m)
			parent.EntryRemoved.Disconnect(m)
			parent.removeCategory(m)
		})
	}
	return m
}

var _ qbackend.ListModel = &CategoryEntriesModel{}

func (m *CategoryEntriesModel) RoleNames() []string {
	return roleNames
}

func (m *CategoryEntriesModel) RowCount() int {
	return len(m.categories) + len(m.entries)
}

func (m *CategoryEntriesModel) Row(row int) interface{} {
	if row < len(m.categories) {
		c := m.categories[row]
		v := make([]interface{}, len(roleNames))
		v[2] = c.name
		v[10] = c.Handle()
		v[11] = c.BookCount()
		return v
	}
	return m.entries[row-len(m.categories)].row()
}

func (m *CategoryEntriesModel) Name() string {
	return m.name
}

func (m *CategoryEntriesModel) SetName(name string) {
	m.name = name
}

func (m *CategoryEntriesModel) SortRole() SortRole {
	return m.sortRole
}

// Categories returns the sub-categories in row order.
func (m *CategoryEntriesModel) Categories() []*CategoryEntriesModel {
	return append([]*CategoryEntriesModel(nil), m.categories...)
}

// Entries returns the books in row order.
func (m *CategoryEntriesModel) Entries() []*BookEntry {
	return append([]*BookEntry(nil), m.entries...)
}

// Append inserts entry among the books. With TitleRole it goes after every
// book whose title does not sort after its own; with CreatedRole it goes
// after every book created at the same time or later.
func (m *CategoryEntriesModel) Append(entry *BookEntry, role SortRole) {
	var before func(i int) bool
	if role == CreatedRole {
		before = func(i int) bool { return entry.Created.After(m.entries[i].Created) }
	} else {
		before = func(i int) bool { return m.collator.CompareString(m.entries[i].Title, entry.Title) > 0 }
	}
	qbackend.SortedInsert(m, len(m.categories), len(m.entries), before, func(i int) {
		m.entries = append(m.entries, nil)
		copy(m.entries[i+1:], m.entries[i:])
		m.entries[i] = entry
	})
}

// AddCategoryEntry files entry under the category path categoryName, whose
// levels are separated by "/". Missing categories are created. The entry is
// appended to every category along the path but not to m itself.
func (m *CategoryEntriesModel) AddCategoryEntry(categoryName string, entry *BookEntry) {
	if categoryName == "" {
		return
	}
	next, rest, _ := strings.Cut(categoryName, "/")

	var category *CategoryEntriesModel
	for _, c := range m.categories {
		if c.name == next {
			category = c
			break
		}
	}
	if category == nil {
		category = newCategoryEntriesModel(m, next, m.sortRole, m.collator)
		qbackend.SortedInsert(m, 0, len(m.categories),
			func(i int) bool { return m.collator.CompareString(m.categories[i].name, next) > 0 },
			func(i int) {
				m.categories = append(m.categories, nil)
				copy(m.categories[i+1:], m.categories[i:])
				m.categories[i] = category
			})
		logger().Debug("created category", "name", next, "parent", m.name)
	}
	category.Append(entry, m.sortRole)
	category.AddCategoryEntry(rest, entry)
}

// LeafModelForEntry returns the first category without sub-categories that
// lists entry, searching sub-categories in row order, or nil.
func (m *CategoryEntriesModel) LeafModelForEntry(entry *BookEntry) *CategoryEntriesModel {
	if len(m.categories) == 0 {
		for _, e := range m.entries {
			if e == entry {
				return m
			}
		}
		return nil
	}
	for _, c := range m.categories {
		if leaf := c.LeafModelForEntry(entry); leaf != nil {
			return leaf
		}
	}
	return nil
}

// Get returns the book at position index among the books, not counting
// sub-categories.
func (m *CategoryEntriesModel) Get(index int) (*BookEntry, bool) {
	if index < 0 || index >= len(m.entries) {
		return nil, false
	}
	return m.entries[index], true
}

// Entry is one row of a CategoryEntriesModel. Exactly one of Book and
// Category is set.
type Entry struct {
	Book     *BookEntry
	Category *CategoryEntriesModel
}

// GetEntry returns the row at position row.
func (m *CategoryEntriesModel) GetEntry(row int) (Entry, bool) {
	switch {
	case row < 0 || row >= m.RowCount():
		return Entry{}, false
	case row < len(m.categories):
		return Entry{Category: m.categories[row]}, true
	default:
		return Entry{Book: m.entries[row-len(m.categories)]}, true
	}
}

// IndexOfFile returns the position among the books of the book read from
// filename, or -1.
func (m *CategoryEntriesModel) IndexOfFile(filename string) int {
	for i, e := range m.entries {
		if e.Filename == filename {
			return i
		}
	}
	return -1
}

// IndexIsBook reports whether row is a book rather than a sub-category.
func (m *CategoryEntriesModel) IndexIsBook(row int) bool {
	return row >= len(m.categories) && row < m.RowCount()
}

func (m *CategoryEntriesModel) BookCount() int {
	return len(m.entries)
}

// BookFromFile returns the listed book read from filename, or otherwise a
// new entry describing the file.
func (m *CategoryEntriesModel) BookFromFile(filename string) (*BookEntry, error) {
	if i := m.IndexOfFile(filename); i >= 0 {
		return m.entries[i], nil
	}
	return NewBookEntry(filename, m.PDFThumbnails)
}

// EntryDataChanged announces that the fields of entry changed.
func (m *CategoryEntriesModel) EntryDataChanged(entry *BookEntry) {
	m.EntryDataUpdated.Emit(entry)
}

// RemoveEntry removes entry from this model and every sub-category.
func (m *CategoryEntriesModel) RemoveEntry(entry *BookEntry) {
	m.EntryRemoved.Emit(entry)
}

func (m *CategoryEntriesModel) entryDataChanged(entry *BookEntry) {
	for i, e := range m.entries {
		if e == entry {
			m.Updated(len(m.categories) + i)
			return
		}
	}
}

func (m *CategoryEntriesModel) removeCategory(category *CategoryEntriesModel) {
	for i, c := range m.categories {
		if c == category {
			m.BeginRemoveRows(i, i)
			m.categories = append(m.categories[:i:i], m.categories[i+1:]...)
			m.EndRemoveRows()
			return
		}
	}
}

func (m *CategoryEntriesModel) entryRemove(entry *BookEntry) {
	for i, e := range m.entries {
		if e == entry {
			row := len(m.categories) + i
			m.BeginRemoveRows(row, row)
			m.entries = append(m.entries[:i:i], m.entries[i+1:]...)
			m.EndRemoveRows()
			return
		}
	}
}
