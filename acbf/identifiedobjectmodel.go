package acbf

import (
	qbackend "github.com/CrimsonAS/peruse/backend"
	uuid "github.com/satori/go.uuid"
)

// IdentifiedObjectRow is the data of one row of an IdentifiedObjectModel,
// with one field per role.
type IdentifiedObjectRow struct {
	ID     string           `json:"id"`
	Type   ObjectKind       `json:"type"`
	Handle uuid.UUID        `json:"object"`
	Object IdentifiedObject `json:"-"`
}

// IdentifiedObjectModel lists every identified object of one document.
//
// Binding a document walks it once; afterwards new binaries and references
// are appended as they are added, and objects are removed as they are
// destroyed. Rebinding is a single model reset. The model never owns the
// objects it lists.
type IdentifiedObjectModel struct {
	qbackend.Model

	document *Document
	objects  []IdentifiedObject
	tracked  map[uuid.UUID]qbackend.Subscription
	docSubs  qbackend.Subscriptions

	DocumentChanged qbackend.Signal[*Document]
}

func NewIdentifiedObjectModel() *IdentifiedObjectModel {
	m := &IdentifiedObjectModel{tracked: make(map[uuid.UUID]qbackend.Subscription)}
	m.InitModel(m)
	return m
}

var _ qbackend.ListModel = &IdentifiedObjectModel{}

// RoleNames are the JSON names of IdentifiedObjectRow's fields.
func (m *IdentifiedObjectModel) RoleNames() []string {
	return qbackend.RoleNamesOf(IdentifiedObjectRow{})
}

func (m *IdentifiedObjectModel) RowCount() int {
	if m.document == nil {
		return 0
	}
	return len(m.objects)
}

func (m *IdentifiedObjectModel) Row(row int) interface{} {
	r, _ := m.Get(row)
	return r
}

// Get returns the row at position row. ok is false for rows out of range and
// for every row while no document is bound.
func (m *IdentifiedObjectModel) Get(row int) (r IdentifiedObjectRow, ok bool) {
	if m.document == nil || row < 0 || row >= len(m.objects) {
		return r, false
	}
	obj := m.objects[row]
	return IdentifiedObjectRow{
		ID:     obj.ID(),
		Type:   obj.ReferenceObject().Kind(),
		Handle: obj.Handle(),
		Object: obj,
	}, true
}

// Document returns the bound document, or nil.
func (m *IdentifiedObjectModel) Document() *Document {
	return m.document
}

// SetDocument binds the model to document, or unbinds it for nil. Binding
// the document that is already bound does nothing.
func (m *IdentifiedObjectModel) SetDocument(document *Document) {
	if m.document == document {
		return
	}

	m.BeginResetModel()
	m.docSubs.Disconnect()
	for handle, sub := range m.tracked {
		sub.Disconnect()
		delete(m.tracked, handle)
	}
	m.objects = nil
	m.document = document

	if document != nil {
		qbackend.Walk(document, func(obj qbackend.AnyObject) bool {
			if o, ok := obj.(IdentifiedObject); ok && !o.IsDestroyed() {
				m.track(o)
			}
			return true
		})
		m.docSubs = append(m.docSubs,
			document.Data().BinaryAdded.Connect(m, func(b *Binary) { m.appendObject(b) }),
			document.References().ReferenceAdded.Connect(m, func(r *Reference) { m.appendObject(r) }),
			document.Destroyed.Connect(m, func(qbackend.AnyObject) { m.SetDocument(nil) }),
		)
	}
	m.EndResetModel()
	m.DocumentChanged.Emit(document)
}

// track records obj and follows its destruction. It does not notify.
func (m *IdentifiedObjectModel) track(obj IdentifiedObject) bool {
	handle := obj.Handle()
	if _, exists := m.tracked[handle]; exists {
		return false
	}
	m.objects = append(m.objects, obj)
	m.tracked[handle] = qbackend.DestroyedSignal(obj).Connect(m, func(qbackend.AnyObject) {
		m.removeObject(handle)
	})
	return true
}

func (m *IdentifiedObjectModel) appendObject(obj IdentifiedObject) {
	if _, exists := m.tracked[obj.Handle()]; exists {
		return
	}
	row := len(m.objects)
	m.BeginInsertRows(row, row)
	m.track(obj)
	m.EndInsertRows()
}

// removeObject runs from the object's Destroyed signal and finds the row by
// the handle recorded when the object was tracked.
func (m *IdentifiedObjectModel) removeObject(handle uuid.UUID) {
	row := -1
	for i, o := range m.objects {
		if uuid.Equal(o.Handle(), handle) {
			row = i
			break
		}
	}
	if row < 0 {
		return
	}

	m.BeginRemoveRows(row, row)
	m.objects = append(m.objects[:row:row], m.objects[row+1:]...)
	sub := m.tracked[handle]
	delete(m.tracked, handle)
	m.EndRemoveRows()
	sub.Disconnect()
}
