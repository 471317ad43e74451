package qbackend

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/CrimsonAS/peruse/internal/logging"
)

// ProtocolVersion is sent to the frontend in the VERSION message.
const ProtocolVersion = 3

// ListModel is a model that can be published on a Connection. Types that
// embed Model and implement ModelDataSource satisfy it.
type ListModel interface {
	ModelDataSource
	Subscribe(fn func(ModelEvent)) Subscription
}

type Connection struct {
	// BatchSize limits the number of rows sent with MODEL_RESET and
	// MODEL_INSERT; the frontend requests the rest with REQUEST_ROWS. Zero
	// sends every row.
	BatchSize int

	in     io.ReadCloser
	out    io.WriteCloser
	outMu  sync.Mutex
	models map[string]ListModel
	order  []string
	subs   Subscriptions
	err    error

	started       bool
	processSignal chan struct{}
	queue         chan []byte
}

// NewConnection creates a new connection from an open stream. To use the
// connection, models must be published and Run() or Process() must be
// called to start processing data.
func NewConnection(data io.ReadWriteCloser) *Connection {
	return NewConnectionSplit(data, data)
}

// NewConnectionSplit is equivalent to NewConnection, except that it uses
// separate streams for reading and writing. This is useful for certain kinds
// of pipe or when using stdin and stdout.
func NewConnectionSplit(in io.ReadCloser, out io.WriteCloser) *Connection {
	c := &Connection{
		in:            in,
		out:           out,
		models:        make(map[string]ListModel),
		processSignal: make(chan struct{}, 2),
		queue:         make(chan []byte, 128),
	}
	return c
}

type messageBase struct {
	Command string `json:"command"`
}

func (c *Connection) logger() *slog.Logger {
	return logging.Component("qbackend")
}

func (c *Connection) fatal(fmsg string, p ...interface{}) {
	msg := fmt.Sprintf(fmsg, p...)
	c.logger().Error("qbackend: FATAL: " + msg)
	if c.err == nil {
		c.err = fmt.Errorf(fmsg, p...)
		c.subs.Disconnect()
		c.in.Close()
		c.out.Close()
	}
}

func (c *Connection) warn(fmsg string, p ...interface{}) {
	c.logger().Warn(fmt.Sprintf("qbackend: WARNING: "+fmsg, p...))
}

func (c *Connection) sendMessage(msg interface{}) {
	buf, err := json.Marshal(msg)
	if err != nil {
		c.fatal("message encoding failed: %s", err)
		return
	}
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := fmt.Fprintf(c.out, "%d %s\n", len(buf), buf); err != nil {
		c.logger().Debug("write failed", "error", err)
	}
}

// Publish makes model available to the frontend under name. Models must be
// published before the connection starts.
func (c *Connection) Publish(name string, model ListModel) error {
	if c.started {
		return fmt.Errorf("model '%s' must be published before the connection starts", name)
	} else if _, exists := c.models[name]; exists {
		return fmt.Errorf("model '%s' is already published", name)
	} else if name == "" {
		return fmt.Errorf("model name must not be empty")
	}
	c.models[name] = model
	c.order = append(c.order, name)
	return nil
}

// Model returns a published model by its name
func (c *Connection) Model(name string) ListModel {
	return c.models[name]
}

// handle() runs in an internal goroutine to read from 'in'. Messages are
// posted to the queue and processSignal is triggered.
func (c *Connection) handle() {
	defer close(c.processSignal)
	defer close(c.queue)

	rd := bufio.NewReader(c.in)
	for c.err == nil {
		sizeStr, err := rd.ReadString(' ')
		if err == io.EOF && sizeStr == "" {
			// Clean shutdown from the frontend
			return
		} else if err != nil {
			c.fatal("read error: %s", err)
			return
		} else if len(sizeStr) < 2 {
			c.fatal("read invalid message: invalid size")
			return
		}

		byteCnt, _ := strconv.ParseInt(sizeStr[:len(sizeStr)-1], 10, 32)
		if byteCnt < 1 {
			c.fatal("read invalid message: size too short")
			return
		}

		blob := make([]byte, byteCnt)
		if _, err := io.ReadFull(rd, blob); err != nil {
			c.fatal("read error: %s", err)
			return
		}

		// Read the final newline
		if nl, err := rd.ReadByte(); err != nil {
			c.fatal("read error: %s", err)
			return
		} else if nl != '\n' {
			c.fatal("read invalid message: expected terminating newline, read %c", nl)
			return
		}

		// Queue and signal
		c.queue <- blob
		c.processSignal <- struct{}{}
	}
}

// ensureHandler sends the initial state of every published model and starts
// reading from the frontend. The initial messages are sent synchronously, so
// model data is only read from the caller's goroutine.
func (c *Connection) ensureHandler() error {
	if !c.started {
		c.started = true

		c.sendMessage(struct {
			messageBase
			Version int `json:"version"`
		}{messageBase{"VERSION"}, ProtocolVersion})

		for _, name := range c.order {
			name, model := name, c.models[name]
			c.sendReset(name, model)
			c.subs = append(c.subs, model.Subscribe(func(ev ModelEvent) {
				c.modelChanged(name, model, ev)
			}))
		}

		if c.err != nil {
			return c.err
		}
		go c.handle()
	}

	return c.err
}

func (c *Connection) Started() bool {
	return c.started
}

// Run processes messages until the connection is closed. Be aware that when using Run,
// published models could be read by the connection at any time. For better control
// over concurrency, see Process.
//
// Run is equivalent to a loop of Process and ProcessSignal.
func (c *Connection) Run() error {
	if err := c.ensureHandler(); err != nil {
		return err
	}
	for {
		if _, open := <-c.processSignal; !open {
			return c.err
		}
		if err := c.Process(); err != nil {
			return err
		}
	}
}

// Process handles any pending messages on the connection, but does not block to wait
// for new messages. ProcessSignal signals when there are messages to process.
//
// Model data is never read except during calls to Process(), during model change
// notifications, and when the connection starts. By controlling calls to Process,
// applications can avoid concurrency issues with model data.
//
// Process returns nil when no messages are pending. All errors are fatal for the
// connection.
func (c *Connection) Process() error {
	if err := c.ensureHandler(); err != nil {
		return err
	}

	for {
		var data []byte
		select {
		case data = <-c.queue:
		default:
			return c.err
		}

		var msg struct {
			Command    string `json:"command"`
			Identifier string `json:"identifier"`
			Start      int    `json:"start"`
			Count      int    `json:"count"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			c.fatal("process invalid message: %s", err)
			// once queue is closed, the error from fatal will be returned
			continue
		}

		model, modelExists := c.models[msg.Identifier]

		switch msg.Command {
		case "REQUEST_ROWS":
			if !modelExists {
				c.fatal("row request for unknown model %s", msg.Identifier)
				break
			}
			rows, moreRows := getRows(model, msg.Start, msg.Count, c.BatchSize)
			c.sendMessage(struct {
				messageBase
				Identifier string        `json:"identifier"`
				Start      int           `json:"start"`
				Rows       []interface{} `json:"rowData"`
				MoreRows   int           `json:"moreRows"`
			}{messageBase{"MODEL_ROWDATA"}, msg.Identifier, msg.Start, rows, moreRows})

		case "RESET":
			if modelExists {
				c.sendReset(msg.Identifier, model)
			} else {
				c.fatal("reset of unknown model %s", msg.Identifier)
			}

		default:
			c.fatal("unknown command %s", msg.Command)
		}
	}
}

func (c *Connection) ProcessSignal() <-chan struct{} {
	c.ensureHandler()
	return c.processSignal
}

func (c *Connection) sendReset(name string, model ListModel) {
	rows, moreRows := getRows(model, 0, -1, c.BatchSize)
	c.sendMessage(struct {
		messageBase
		Identifier string        `json:"identifier"`
		RoleNames  []string      `json:"roleNames"`
		Rows       []interface{} `json:"rowData"`
		MoreRows   int           `json:"moreRows"`
	}{messageBase{"MODEL_RESET"}, name, model.RoleNames(), rows, moreRows})
}

// modelChanged forwards the completed half of each change to the frontend.
// Removals are sent at PhaseBegin so the frontend drops rows while their
// indices still mean the same thing on both sides; everything else is sent
// at PhaseEnd, once the new rows can be read.
func (c *Connection) modelChanged(name string, model ListModel, ev ModelEvent) {
	if c.err != nil {
		return
	}

	switch ev.Kind {
	case ModelReset:
		if ev.Phase == PhaseEnd {
			c.sendReset(name, model)
		}

	case RowsInserted:
		if ev.Phase != PhaseEnd {
			return
		}
		rows, moreRows := getRows(model, ev.First, ev.Last-ev.First+1, c.BatchSize)
		c.sendMessage(struct {
			messageBase
			Identifier string        `json:"identifier"`
			Start      int           `json:"start"`
			Rows       []interface{} `json:"rowData"`
			MoreRows   int           `json:"moreRows"`
		}{messageBase{"MODEL_INSERT"}, name, ev.First, rows, moreRows})

	case RowsRemoved:
		if ev.Phase != PhaseBegin {
			return
		}
		c.sendMessage(struct {
			messageBase
			Identifier string `json:"identifier"`
			Start      int    `json:"start"`
			End        int    `json:"end"`
		}{messageBase{"MODEL_REMOVE"}, name, ev.First, ev.Last})

	case RowsMoved:
		if ev.Phase != PhaseEnd {
			return
		}
		c.sendMessage(struct {
			messageBase
			Identifier  string `json:"identifier"`
			Start       int    `json:"start"`
			End         int    `json:"end"`
			Destination int    `json:"destination"`
		}{messageBase{"MODEL_MOVE"}, name, ev.First, ev.Last, ev.Destination})

	case RowsUpdated:
		if ev.First < 0 || ev.First >= model.RowCount() {
			c.warn("update of invalid row %d in model %s", ev.First, name)
			return
		}
		c.sendMessage(struct {
			messageBase
			Identifier string      `json:"identifier"`
			Row        int         `json:"row"`
			Data       interface{} `json:"data"`
		}{messageBase{"MODEL_UPDATE"}, name, ev.First, model.Row(ev.First)})
	}
}

// Close disconnects from every published model and closes both streams.
func (c *Connection) Close() error {
	c.subs.Disconnect()
	errIn := c.in.Close()
	errOut := c.out.Close()
	if errIn != nil {
		return errIn
	}
	return errOut
}
