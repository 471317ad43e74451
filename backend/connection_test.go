package qbackend

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frontend plays the client side of a connection over a pair of pipes.
type frontend struct {
	t        *testing.T
	w        *io.PipeWriter
	messages chan map[string]interface{}
}

func newTestConnection(t *testing.T) (*Connection, *frontend) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	c := NewConnectionSplit(inR, outW)

	f := &frontend{t: t, w: inW, messages: make(chan map[string]interface{}, 32)}
	go func() {
		defer close(f.messages)
		rd := bufio.NewReader(outR)
		for {
			sizeStr, err := rd.ReadString(' ')
			if err != nil {
				return
			}
			size, _ := strconv.Atoi(sizeStr[:len(sizeStr)-1])
			blob := make([]byte, size+1)
			if _, err := io.ReadFull(rd, blob); err != nil {
				return
			}
			var msg map[string]interface{}
			if err := json.Unmarshal(blob[:size], &msg); err != nil {
				return
			}
			f.messages <- msg
		}
	}()
	t.Cleanup(func() {
		inW.Close()
		outR.Close()
	})
	return c, f
}

func (f *frontend) send(msg string) {
	go fmt.Fprintf(f.w, "%d %s\n", len(msg), msg)
}

func (f *frontend) expect(command string) map[string]interface{} {
	f.t.Helper()
	select {
	case msg, ok := <-f.messages:
		require.True(f.t, ok, "connection closed while waiting for %s", command)
		require.Equal(f.t, command, msg["command"])
		return msg
	case <-time.After(5 * time.Second):
		f.t.Fatalf("timed out waiting for %s", command)
		return nil
	}
}

func waitAndProcess(t *testing.T, c *Connection) error {
	t.Helper()
	select {
	case <-c.ProcessSignal():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return c.Process()
}

func TestConnectionPublish(t *testing.T) {
	c, _ := newTestConnection(t)
	m := newCustomModel("a")

	require.NoError(t, c.Publish("items", m))
	require.Error(t, c.Publish("items", m), "duplicate name")
	require.Error(t, c.Publish("", m), "empty name")
	assert.Equal(t, ListModel(m), c.Model("items"))
	assert.False(t, c.Started())
}

func TestConnectionInitialState(t *testing.T) {
	c, f := newTestConnection(t)
	c.BatchSize = 2
	m := newCustomModel("a", "b", "c")
	require.NoError(t, c.Publish("items", m))

	require.NoError(t, c.Process())
	assert.True(t, c.Started())
	require.Error(t, c.Publish("late", m))

	assert.EqualValues(t, ProtocolVersion, f.expect("VERSION")["version"])
	reset := f.expect("MODEL_RESET")
	assert.Equal(t, "items", reset["identifier"])
	assert.Equal(t, []interface{}{"text"}, reset["roleNames"])
	assert.Equal(t, []interface{}{"a", "b"}, reset["rowData"])
	assert.EqualValues(t, 1, reset["moreRows"])
}

func TestConnectionForwardsModelChanges(t *testing.T) {
	c, f := newTestConnection(t)
	m := newCustomModel("a")
	require.NoError(t, c.Publish("items", m))
	require.NoError(t, c.Process())
	f.expect("VERSION")
	f.expect("MODEL_RESET")

	m.Append("b")
	insert := f.expect("MODEL_INSERT")
	assert.EqualValues(t, 1, insert["start"])
	assert.Equal(t, []interface{}{"b"}, insert["rowData"])

	m.BeginRemoveRows(0, 0)
	m.items = m.items[1:]
	m.EndRemoveRows()
	remove := f.expect("MODEL_REMOVE")
	assert.EqualValues(t, 0, remove["start"])
	assert.EqualValues(t, 0, remove["end"])

	m.items[0] = "B"
	m.Updated(0)
	update := f.expect("MODEL_UPDATE")
	assert.Equal(t, "B", update["data"])

	m.BeginResetModel()
	m.items = []string{"x", "y"}
	m.EndResetModel()
	assert.Equal(t, []interface{}{"x", "y"}, f.expect("MODEL_RESET")["rowData"])
}

func TestConnectionRequestRows(t *testing.T) {
	c, f := newTestConnection(t)
	m := newCustomModel("a", "b", "c", "d")
	require.NoError(t, c.Publish("items", m))
	require.NoError(t, c.Process())
	f.expect("VERSION")
	f.expect("MODEL_RESET")

	f.send(`{"command":"REQUEST_ROWS","identifier":"items","start":1,"count":2}`)
	require.NoError(t, waitAndProcess(t, c))
	rows := f.expect("MODEL_ROWDATA")
	assert.EqualValues(t, 1, rows["start"])
	assert.Equal(t, []interface{}{"b", "c"}, rows["rowData"])

	f.send(`{"command":"RESET","identifier":"items"}`)
	require.NoError(t, waitAndProcess(t, c))
	assert.Len(t, f.expect("MODEL_RESET")["rowData"], 4)
}

func TestConnectionUnknownCommandIsFatal(t *testing.T) {
	c, f := newTestConnection(t)
	require.NoError(t, c.Publish("items", newCustomModel()))
	require.NoError(t, c.Process())
	f.expect("VERSION")
	f.expect("MODEL_RESET")

	f.send(`{"command":"OBJECT_QUERY","identifier":"items"}`)
	err := waitAndProcess(t, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestConnectionUnknownModelIsFatal(t *testing.T) {
	c, f := newTestConnection(t)
	require.NoError(t, c.Process())
	f.expect("VERSION")

	f.send(`{"command":"REQUEST_ROWS","identifier":"missing","start":0,"count":1}`)
	err := waitAndProcess(t, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
