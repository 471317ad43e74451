package qbackend

import "fmt"

// Model is embedded in another type to create a list model, equivalent to a
// QAbstractListModel.
//
// To be a model, a type must embed Model, implement the ModelDataSource
// interface, and call InitModel with itself before use.
//
// Every structural change must be bracketed: call the Begin method before
// touching the data and the matching End method afterwards. Observers get a
// PhaseBegin event while the old data is still in place and a PhaseEnd event
// once the new data is, so they never see a row count that disagrees with
// the rows they were told about.
type Model struct {
	data    ModelDataSource
	pending *ModelEvent
	events  Signal[ModelEvent]
}

// Types embedding Model must implement ModelDataSource to provide data
type ModelDataSource interface {
	Row(row int) interface{}
	RowCount() int
	RoleNames() []string
}

// ChangeKind is the kind of structural change a ModelEvent describes.
type ChangeKind int

const (
	ModelReset ChangeKind = iota
	RowsInserted
	RowsRemoved
	RowsMoved
	RowsUpdated
)

func (k ChangeKind) String() string {
	switch k {
	case ModelReset:
		return "reset"
	case RowsInserted:
		return "insert"
	case RowsRemoved:
		return "remove"
	case RowsMoved:
		return "move"
	case RowsUpdated:
		return "update"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Phase says whether an event comes before or after the change.
type Phase int

const (
	PhaseBegin Phase = iota
	PhaseEnd
)

// ModelEvent describes one change to a model. First and Last are inclusive
// row numbers; Destination is only meaningful for RowsMoved and is the row
// before which the moved rows are placed, counted before the move.
type ModelEvent struct {
	Kind        ChangeKind
	Phase       Phase
	First       int
	Last        int
	Destination int
}

// InitModel connects the model to the data it describes.
func (m *Model) InitModel(data ModelDataSource) {
	m.data = data
}

// DataSource returns the value passed to InitModel.
func (m *Model) DataSource() ModelDataSource {
	return m.data
}

// Subscribe calls fn for every change event until the subscription is
// disconnected.
func (m *Model) Subscribe(fn func(ModelEvent)) Subscription {
	return m.events.Connect(nil, fn)
}

// ObserverCount returns the number of active subscriptions.
func (m *Model) ObserverCount() int {
	return m.events.Len()
}

// Changing returns true between a Begin call and its matching End call.
func (m *Model) Changing() bool {
	return m.pending != nil
}

func (m *Model) begin(ev ModelEvent) {
	if m.pending != nil {
		panic(fmt.Sprintf("model %s started while %s is in progress", ev.Kind, m.pending.Kind))
	}
	ev.Phase = PhaseBegin
	m.pending = &ev
	m.events.Emit(ev)
}

func (m *Model) end(kind ChangeKind) {
	if m.pending == nil || m.pending.Kind != kind {
		panic(fmt.Sprintf("model %s ended without a matching begin", kind))
	}
	ev := *m.pending
	ev.Phase = PhaseEnd
	m.pending = nil
	m.events.Emit(ev)
}

func (m *Model) BeginResetModel() {
	m.begin(ModelEvent{Kind: ModelReset, First: -1, Last: -1})
}

func (m *Model) EndResetModel() {
	m.end(ModelReset)
}

// BeginInsertRows announces that rows first..last will be inserted, so the
// row currently at first moves to last+1.
func (m *Model) BeginInsertRows(first, last int) {
	if first < 0 || last < first {
		panic(fmt.Sprintf("invalid insert range %d..%d", first, last))
	}
	m.begin(ModelEvent{Kind: RowsInserted, First: first, Last: last})
}

func (m *Model) EndInsertRows() {
	m.end(RowsInserted)
}

// BeginRemoveRows announces that rows first..last will be removed.
func (m *Model) BeginRemoveRows(first, last int) {
	if first < 0 || last < first {
		panic(fmt.Sprintf("invalid remove range %d..%d", first, last))
	}
	m.begin(ModelEvent{Kind: RowsRemoved, First: first, Last: last})
}

func (m *Model) EndRemoveRows() {
	m.end(RowsRemoved)
}

// BeginMoveRows announces that rows first..last will move before the row
// that is currently at destination.
func (m *Model) BeginMoveRows(first, last, destination int) {
	if first < 0 || last < first || (destination >= first && destination <= last+1) {
		panic(fmt.Sprintf("invalid move of %d..%d to %d", first, last, destination))
	}
	m.begin(ModelEvent{Kind: RowsMoved, First: first, Last: last, Destination: destination})
}

func (m *Model) EndMoveRows() {
	m.end(RowsMoved)
}

// Updated notifies observers that the data of row changed. It has no
// bracket, since the row count does not change.
func (m *Model) Updated(row int) {
	if m.pending != nil {
		panic(fmt.Sprintf("model update of row %d during %s", row, m.pending.Kind))
	}
	m.events.Emit(ModelEvent{Kind: RowsUpdated, Phase: PhaseEnd, First: row, Last: row})
}

// Rows returns up to count rows starting at start. A negative count means
// all remaining rows. The range is clamped to the model.
func (m *Model) Rows(start, count int) []interface{} {
	rows, _ := getRows(m.data, start, count, 0)
	return rows
}

// getRows returns rows [start, start+count) clamped to the model, limited to
// batchSize rows when batchSize is positive. moreRows is the number of rows
// that were in range but left out because of batchSize.
func getRows(data ModelDataSource, start, count, batchSize int) ([]interface{}, int) {
	if data == nil {
		return []interface{}{}, 0
	}

	rowCount, moreRows := data.RowCount(), 0
	if start < 0 {
		start = 0
	}
	if count < 0 {
		// negative count is for all (remaining) rows
		count = rowCount - start
	}
	if start >= rowCount {
		return []interface{}{}, 0
	}
	if start+count > rowCount {
		count = rowCount - start
	}

	if batchSize > 0 && count > batchSize {
		moreRows = count - batchSize
		count = batchSize
	}

	rows := make([]interface{}, count)
	for i := 0; i < len(rows); i++ {
		rows[i] = data.Row(start + i)
	}
	return rows, moreRows
}
