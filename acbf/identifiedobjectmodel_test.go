package acbf

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"

	qbackend "github.com/CrimsonAS/peruse/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type modelRecorder struct {
	events []qbackend.ModelEvent
}

func recordModel(m *IdentifiedObjectModel) *modelRecorder {
	r := &modelRecorder{}
	m.Subscribe(func(ev qbackend.ModelEvent) { r.events = append(r.events, ev) })
	return r
}

func (r *modelRecorder) kinds() []string {
	var out []string
	for _, ev := range r.events {
		out = append(out, fmt.Sprintf("%s/%d", ev.Kind, ev.Phase))
	}
	return out
}

func rowIDs(m *IdentifiedObjectModel) []string {
	out := []string{}
	for i := 0; i < m.RowCount(); i++ {
		r, ok := m.Get(i)
		if !ok {
			break
		}
		out = append(out, r.ID)
	}
	return out
}

func TestIdentifiedObjectModelUnbound(t *testing.T) {
	m := NewIdentifiedObjectModel()
	assert.Equal(t, 0, m.RowCount())
	assert.Nil(t, m.Document())
	_, ok := m.Get(0)
	assert.False(t, ok)
	assert.Nil(t, m.Row(0).(IdentifiedObjectRow).Object)
	assert.Equal(t, []string{"id", "type", "object"}, m.RoleNames())
}

func TestIdentifiedObjectModelBind(t *testing.T) {
	doc := linkedDocument(t)
	m := NewIdentifiedObjectModel()
	r := recordModel(m)

	var changed []*Document
	m.DocumentChanged.Connect(nil, func(d *Document) { changed = append(changed, d) })

	m.SetDocument(doc)
	assert.Equal(t, []string{"reset/0", "reset/1"}, r.kinds(), "one reset and no inserts")
	assert.Equal(t, []*Document{doc}, changed)
	assert.Same(t, doc, m.Document())
	assert.Equal(t, []string{"cover", "n1", "n2", "balloon"}, rowIDs(m))

	row, ok := m.Get(0)
	require.True(t, ok)
	assert.Equal(t, BinaryType, row.Type)
	cover, _ := doc.Data().Binary("cover")
	assert.Equal(t, cover.Handle(), row.Handle)
	assert.Same(t, cover, row.Object)

	// Binding the same document again is a no-op
	m.SetDocument(doc)
	assert.Len(t, r.events, 2)
	assert.Len(t, changed, 1)

	other := NewDocument()
	other.References().SetReference("x", nil, "")
	m.SetDocument(other)
	assert.Equal(t, []string{"reset/0", "reset/1", "reset/0", "reset/1"}, r.kinds())
	assert.Equal(t, []string{"x"}, rowIDs(m))

	// The old document no longer reaches the model
	doc.References().SetReference("late", nil, "")
	qbackend.Destroy(cover)
	assert.Len(t, r.events, 4)
	assert.Equal(t, []string{"x"}, rowIDs(m))
}

func TestIdentifiedObjectModelFollowsAdditions(t *testing.T) {
	doc := linkedDocument(t)
	m := NewIdentifiedObjectModel()
	m.SetDocument(doc)
	r := recordModel(m)

	doc.Data().AddBinary("page2", "image/png", nil)
	doc.References().SetReference("n3", nil, "")
	assert.Equal(t, []string{"cover", "n1", "n2", "balloon", "page2", "n3"}, rowIDs(m))
	require.Len(t, r.events, 4)
	assert.Equal(t, qbackend.ModelEvent{Kind: qbackend.RowsInserted, Phase: qbackend.PhaseEnd, First: 4, Last: 4}, r.events[1])
	assert.Equal(t, qbackend.ModelEvent{Kind: qbackend.RowsInserted, Phase: qbackend.PhaseEnd, First: 5, Last: 5}, r.events[3])

	// Text areas created after binding are not announced
	doc.Body().AddPage().AddTextArea("late", nil)
	assert.Len(t, r.events, 4)
}

func TestIdentifiedObjectModelReplaceReference(t *testing.T) {
	doc := linkedDocument(t)
	m := NewIdentifiedObjectModel()
	m.SetDocument(doc)
	r := recordModel(m)

	doc.References().SetReference("n1", []string{"replaced"}, "")
	assert.Equal(t, []string{"remove/0", "remove/1", "insert/0", "insert/1"}, r.kinds())
	assert.Equal(t, 1, r.events[0].First)
	assert.Equal(t, []string{"cover", "n2", "balloon", "n1"}, rowIDs(m))
}

func TestIdentifiedObjectModelDestroy(t *testing.T) {
	doc := linkedDocument(t)
	m := NewIdentifiedObjectModel()
	m.SetDocument(doc)
	r := recordModel(m)

	n2, _ := doc.References().Reference("n2")
	qbackend.Destroy(n2)
	require.Len(t, r.events, 2)
	assert.Equal(t, qbackend.ModelEvent{Kind: qbackend.RowsRemoved, Phase: qbackend.PhaseBegin, First: 2, Last: 2}, r.events[0])
	assert.Equal(t, []string{"cover", "n1", "balloon"}, rowIDs(m))
	assert.Len(t, m.tracked, 3)
	assert.Equal(t, 0, n2.Destroyed.Len(), "destroyed objects keep no subscriptions")

	// Destroying the document unbinds the model
	var changed []*Document
	m.DocumentChanged.Connect(nil, func(d *Document) { changed = append(changed, d) })
	qbackend.Destroy(doc)
	assert.Nil(t, m.Document())
	assert.Equal(t, 0, m.RowCount())
	_, ok := m.Get(0)
	assert.False(t, ok)
	assert.Equal(t, []*Document{nil}, changed)
	assert.Empty(t, m.tracked)
}

func TestIdentifiedObjectModelUnbind(t *testing.T) {
	doc := linkedDocument(t)
	m := NewIdentifiedObjectModel()
	m.SetDocument(doc)
	m.SetDocument(nil)

	assert.Equal(t, 0, m.RowCount())
	assert.Empty(t, m.tracked)
	assert.Equal(t, 0, doc.Data().BinaryAdded.Len())
	assert.Equal(t, 0, doc.References().ReferenceAdded.Len())
}

// opaque is an identified object that takes no part in links.
type opaque struct {
	qbackend.Object
	InternalReferenceObject
	id string
}

func newOpaque(parent qbackend.AnyObject, id string) *opaque {
	o := &opaque{id: id}
	mustInit(o, parent)
	o.initReferenceObject(o, ReferenceUnknownType, UnknownType, func() []string { return nil })
	return o
}

func (o *opaque) ID() string                                 { return o.id }
func (o *opaque) ReferenceObject() *InternalReferenceObject { return &o.InternalReferenceObject }

func TestIdentifiedObjectModelListsUnsupportedObjects(t *testing.T) {
	doc := NewDocument()
	o := newOpaque(doc.Body().AddPage(), "opaque")
	n1 := doc.References().SetReference("n1", []string{`<a href="#opaque">x</a>`}, "")

	m := NewIdentifiedObjectModel()
	m.SetDocument(doc)
	require.Equal(t, 2, m.RowCount())
	assert.Equal(t, []string{"n1", "opaque"}, rowIDs(m))

	row, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, UnknownType, row.Type)
	assert.Same(t, o, row.Object)

	err := o.RegisterBackReference(&InternalReference{OriginID: "n1", TargetID: "opaque"})
	assert.True(t, errors.Is(err, ErrUnsupportedRole))
	assert.Empty(t, o.BackReferences())
	assert.Empty(t, n1.ForwardReferences(), "the link target takes no links")
}

// randomDocument builds a document from a drawn sequence of operations.
func randomDocument(t *rapid.T) *Document {
	doc := NewDocument()
	steps := rapid.IntRange(0, 20).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		id := rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}).Draw(t, "id")
		switch rapid.IntRange(0, 2).Draw(t, "op") {
		case 0:
			doc.Data().AddBinary(id, "image/png", nil)
		case 1:
			doc.References().SetReference(id, nil, "")
		case 2:
			pages := doc.Body().Pages()
			if len(pages) == 0 || rapid.Bool().Draw(t, "newPage") {
				doc.Body().AddPage()
				pages = doc.Body().Pages()
			}
			pages[len(pages)-1].AddTextArea(id, nil)
		}
	}
	return doc
}

func TestProperty_CountMatchesReachableObjects(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		doc := randomDocument(rt)
		m := NewIdentifiedObjectModel()
		m.SetDocument(doc)
		want := doc.Data().Count() + doc.References().Count()
		for _, p := range doc.Body().Pages() {
			want += len(p.TextAreas())
		}
		if m.RowCount() != want {
			rt.Fatalf("%d rows for %d binaries, references and text areas", m.RowCount(), want)
		}
	})
}

func TestProperty_DestroyRemovesOneRow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		doc := randomDocument(rt)
		m := NewIdentifiedObjectModel()
		m.SetDocument(doc)
		if m.RowCount() == 0 {
			return
		}

		row := rapid.IntRange(0, m.RowCount()-1).Draw(rt, "row")
		victim, _ := m.Get(row)
		before := append([]IdentifiedObject(nil), m.objects...)

		qbackend.Destroy(victim.Object)
		want := append(before[:row:row], before[row+1:]...)
		if len(m.objects) != len(want) {
			rt.Fatalf("%d rows left, want %d", len(m.objects), len(want))
		}
		for i := range want {
			if m.objects[i] != want[i] {
				rt.Fatalf("row %d changed", i)
			}
		}
	})
}

// readMessages decodes the length prefixed messages written by a connection.
func readMessages(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	rd := bufio.NewReader(bytes.NewReader(data))
	for {
		sizeStr, err := rd.ReadString(' ')
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		size, err := strconv.Atoi(sizeStr[:len(sizeStr)-1])
		require.NoError(t, err)
		blob := make([]byte, size+1)
		_, err = io.ReadFull(rd, blob)
		require.NoError(t, err)
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(blob[:size], &msg))
		out = append(out, msg)
	}
}

type bufferCloser struct {
	bytes.Buffer
}

func (*bufferCloser) Close() error { return nil }

func TestIdentifiedObjectModelOverConnection(t *testing.T) {
	doc := linkedDocument(t)
	m := NewIdentifiedObjectModel()
	m.SetDocument(doc)

	inR, inW := io.Pipe()
	t.Cleanup(func() { inW.Close() })
	out := &bufferCloser{}
	c := qbackend.NewConnectionSplit(inR, out)
	require.NoError(t, c.Publish("identifiedObjects", m))
	require.NoError(t, c.Process())

	doc.Data().AddBinary("page2", "image/png", nil)

	msgs := readMessages(t, out.Bytes())
	require.Len(t, msgs, 3)
	assert.Equal(t, "VERSION", msgs[0]["command"])

	reset := msgs[1]
	assert.Equal(t, "MODEL_RESET", reset["command"])
	assert.Equal(t, "identifiedObjects", reset["identifier"])
	rows := reset["rowData"].([]interface{})
	require.Len(t, rows, 4)
	first := rows[0].(map[string]interface{})
	cover, _ := doc.Data().Binary("cover")
	assert.Equal(t, "cover", first["id"])
	assert.EqualValues(t, BinaryType, first["type"])
	assert.Equal(t, cover.Handle().String(), first["object"])

	insert := msgs[2]
	assert.Equal(t, "MODEL_INSERT", insert["command"])
	assert.EqualValues(t, 4, insert["start"])
}
