// qbackend is the object and model layer that peruse's document and library
// packages are built on, and the bridge that shows their list models to an
// out-of-process QtQuick/QML frontend.
//
// All frontend/backend communication is stream-based; the Go application does
// not use cgo or any native code. The frontend is expected to run in another
// process and talk to the backend over a pipe or socket.
//
// Objects
//
// In the middle of everything is Object. When Object is embedded in a struct
// and initialized with InitObject, that type is "an object": it has a stable
// handle, a parent, children, and a Destroyed signal.
//
//  type Page struct {
//      qbackend.Object
//      areas []*TextArea
//  }
//
//  p := &Page{}
//  if err := qbackend.InitObject(p, body); err != nil {
//      ...
//  }
//
// Objects form an ownership tree. Destroy emits Destroyed while the object is
// still whole, destroys its children, and detaches it from its parent.
// Anything that keeps a reference to an object it does not own should connect
// to Destroyed and drop the reference there; after Destroy returns the object
// only reports IsDestroyed.
//
// Walk visits a subtree depth first, and Root finds the top of the tree, which
// is how objects find the document they belong to.
//
// Signals
//
// Signal is a synchronous, typed notification. Connect returns a
// Subscription; slots are called in connection order during Emit, and a slot
// that is disconnected while a signal is being emitted is not called
// afterwards. Subscriptions groups the connections of one receiver so they
// can be dropped together.
//
// Data Models
//
// For large, complex, or dynamic data used in QML views, Model provides a
// QAbstractListModel equivalent API. An object which embeds Model, implements
// the ModelDataSource interface, and calls Model's methods for changes to
// data is usable as a model by the frontend.
//
// Changes are bracketed: BeginInsertRows is called before the data changes
// and EndInsertRows after, and likewise for removals, moves and resets.
// Observers see a PhaseBegin event while the data still has its old shape
// and a PhaseEnd event once it has the new one, so a row count read from an
// observer is always consistent. Brackets cannot nest.
//
// SortedInsert keeps a sorted region of a model sorted while inserting.
//
// Connection
//
// Connection publishes models to the frontend. Every message, in both
// directions, is a decimal byte count, a space, a JSON object and a newline.
// Models are published by name before the connection starts; once started,
// the connection sends VERSION and a MODEL_RESET with the initial rows of
// every model, then forwards model changes as they happen and answers the
// frontend's REQUEST_ROWS and RESET commands.
//
// The connection is started by calling Run() or (in a loop) Process(). Model
// data is only read by the connection during those calls and during model
// change notifications, so an application that calls Process from the same
// goroutine that changes its models needs no locking.
package qbackend
