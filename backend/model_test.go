package qbackend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CustomModel struct {
	Model
	items []string
}

func newCustomModel(items ...string) *CustomModel {
	m := &CustomModel{items: items}
	m.InitModel(m)
	return m
}

func (m *CustomModel) Row(row int) interface{} {
	return m.items[row]
}

func (m *CustomModel) RowCount() int {
	return len(m.items)
}

func (m *CustomModel) RoleNames() []string {
	return []string{"text"}
}

func (m *CustomModel) Append(s string) {
	m.BeginInsertRows(len(m.items), len(m.items))
	m.items = append(m.items, s)
	m.EndInsertRows()
}

var _ ListModel = &CustomModel{}

type recorder struct {
	events []ModelEvent
	counts []int
}

func record(m *CustomModel) *recorder {
	r := &recorder{}
	m.Subscribe(func(ev ModelEvent) {
		r.events = append(r.events, ev)
		r.counts = append(r.counts, m.RowCount())
	})
	return r
}

func TestModelBrackets(t *testing.T) {
	m := newCustomModel("a", "b")
	r := record(m)

	m.Append("c")
	require.Len(t, r.events, 2)
	assert.Equal(t, ModelEvent{Kind: RowsInserted, Phase: PhaseBegin, First: 2, Last: 2}, r.events[0])
	assert.Equal(t, ModelEvent{Kind: RowsInserted, Phase: PhaseEnd, First: 2, Last: 2}, r.events[1])
	assert.Equal(t, []int{2, 3}, r.counts, "begin sees the old count, end sees the new one")
}

func TestModelReset(t *testing.T) {
	m := newCustomModel("a")
	r := record(m)

	m.BeginResetModel()
	assert.True(t, m.Changing())
	m.items = []string{"x", "y", "z"}
	m.EndResetModel()
	assert.False(t, m.Changing())

	require.Len(t, r.events, 2)
	assert.Equal(t, ModelReset, r.events[0].Kind)
	assert.Equal(t, PhaseBegin, r.events[0].Phase)
	assert.Equal(t, PhaseEnd, r.events[1].Phase)
	assert.Equal(t, []int{1, 3}, r.counts)
}

func TestModelUnbalancedBracketsPanic(t *testing.T) {
	m := newCustomModel("a")

	assert.Panics(t, func() { m.EndInsertRows() })

	m.BeginRemoveRows(0, 0)
	assert.Panics(t, func() { m.BeginInsertRows(0, 0) }, "nested brackets")
	assert.Panics(t, func() { m.EndInsertRows() }, "mismatched end")
	assert.Panics(t, func() { m.Updated(0) }, "update inside a bracket")
	m.items = nil
	m.EndRemoveRows()

	assert.Panics(t, func() { m.BeginInsertRows(2, 1) })
	assert.Panics(t, func() { m.BeginMoveRows(0, 1, 1) }, "destination inside moved range")
}

func TestModelMoveAndUpdate(t *testing.T) {
	m := newCustomModel("a", "b", "c")
	r := record(m)

	m.BeginMoveRows(0, 0, 3)
	m.items = []string{"b", "c", "a"}
	m.EndMoveRows()
	m.Updated(1)

	require.Len(t, r.events, 3)
	assert.Equal(t, ModelEvent{Kind: RowsMoved, Phase: PhaseEnd, First: 0, Last: 0, Destination: 3}, r.events[1])
	assert.Equal(t, ModelEvent{Kind: RowsUpdated, Phase: PhaseEnd, First: 1, Last: 1}, r.events[2])
}

func TestModelSubscriptionDisconnect(t *testing.T) {
	m := newCustomModel()
	r := record(m)
	require.Equal(t, 1, m.ObserverCount())

	sub := m.Subscribe(func(ModelEvent) { t.Fatal("disconnected observer called") })
	sub.Disconnect()
	m.Append("a")
	assert.Len(t, r.events, 2)
}

func TestGetRows(t *testing.T) {
	m := newCustomModel()
	for i := 0; i < 10; i++ {
		m.items = append(m.items, fmt.Sprint(i))
	}

	tests := []struct {
		name             string
		start, count, bs int
		want             []interface{}
		more             int
	}{
		{"all", 0, -1, 0, m.Rows(0, 10), 0},
		{"middle", 3, 2, 0, []interface{}{"3", "4"}, 0},
		{"clamped", 8, 5, 0, []interface{}{"8", "9"}, 0},
		{"past end", 12, 1, 0, []interface{}{}, 0},
		{"negative start", -2, 1, 0, []interface{}{"0"}, 0},
		{"batched", 2, -1, 3, []interface{}{"2", "3", "4"}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, more := getRows(m, tt.start, tt.count, tt.bs)
			assert.Equal(t, tt.want, rows)
			assert.Equal(t, tt.more, more)
		})
	}

	rows, more := getRows(nil, 0, -1, 0)
	assert.Empty(t, rows)
	assert.Zero(t, more)
}
