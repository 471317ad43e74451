package qbackend

import (
	"errors"

	uuid "github.com/satori/go.uuid"
)

// Object must be embedded in any struct that takes part in an object tree.
//
// An Object has a stable handle, a parent that owns it, and ordered children
// that it owns. Destroying an object notifies everyone connected to its
// Destroyed signal before anything is torn down, then destroys its children.
//
// Objects are initialized explicitly with InitObject; an uninitialized Object
// has a nil handle and no parent.
type Object struct {
	handle    uuid.UUID
	self      AnyObject
	parent    AnyObject
	children  []AnyObject
	destroyed bool

	// Destroyed is emitted with the dying object while it is still attached
	// to its parent and its children are still alive. Handlers must finish
	// with the object before they return.
	Destroyed Signal[AnyObject]
}

// AnyObject is implemented by every type embedding Object.
type AnyObject interface {
	object() *Object
	Handle() uuid.UUID
	Parent() AnyObject
	IsDestroyed() bool
}

var errNotInitialized = errors.New("object is not initialized")

func (o *Object) object() *Object {
	return o
}

// Handle returns the object's stable identity. Handles are never reused.
func (o *Object) Handle() uuid.UUID {
	return o.handle
}

// Parent returns the owning object, or nil for a root.
func (o *Object) Parent() AnyObject {
	return o.parent
}

// Children returns the owned objects in the order they were added.
func (o *Object) Children() []AnyObject {
	return append([]AnyObject(nil), o.children...)
}

// IsDestroyed returns true once Destroy has been called on the object or on
// any of its ancestors.
func (o *Object) IsDestroyed() bool {
	return o.destroyed
}

// InitObject assigns a handle to obj and makes it a child of parent, which
// may be nil. Initializing an object twice is an error.
func InitObject(obj AnyObject, parent AnyObject) error {
	impl := obj.object()
	if !uuid.Equal(impl.handle, uuid.Nil) {
		return errors.New("object is already initialized")
	}
	u, err := uuid.NewV4()
	if err != nil {
		return err
	}
	impl.handle = u
	impl.self = obj
	if parent != nil {
		return SetParent(obj, parent)
	}
	return nil
}

// SetParent moves obj from its current parent, if any, to the end of
// parent's children. A nil parent detaches obj.
func SetParent(obj AnyObject, parent AnyObject) error {
	impl := obj.object()
	if impl.self == nil {
		return errNotInitialized
	}
	if impl.parent != nil {
		impl.parent.object().removeChild(obj)
		impl.parent = nil
	}
	if parent == nil {
		return nil
	}
	pImpl := parent.object()
	if pImpl.self == nil {
		return errNotInitialized
	}
	for p := parent; p != nil; p = p.object().parent {
		if p.object() == impl {
			return errors.New("object cannot be its own ancestor")
		}
	}
	impl.parent = parent
	pImpl.children = append(pImpl.children, obj)
	return nil
}

// Destroy emits obj's Destroyed signal, destroys its children, detaches it
// from its parent and disconnects everything from its Destroyed signal.
// Destroying an object twice does nothing.
func Destroy(obj AnyObject) {
	impl := obj.object()
	if impl.destroyed {
		return
	}
	impl.destroyed = true
	impl.Destroyed.Emit(obj)

	for _, child := range impl.Children() {
		Destroy(child)
	}

	if impl.parent != nil {
		impl.parent.object().removeChild(obj)
		impl.parent = nil
	}
	impl.Destroyed.DisconnectAll()
}

func (o *Object) removeChild(child AnyObject) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i:i], o.children[i+1:]...)
			return
		}
	}
}

// Walk visits root's descendants depth-first in pre-order, the same order a
// recursive walk over Children would produce, using an explicit worklist.
// root itself is not visited. Returning false from fn skips the subtree of
// that object.
func Walk(root AnyObject, fn func(AnyObject) bool) {
	stack := reversed(root.object().children)
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(obj) {
			continue
		}
		stack = append(stack, reversed(obj.object().children)...)
	}
}

// DestroyedSignal returns the Destroyed signal of any object, for code that
// only holds an AnyObject.
func DestroyedSignal(obj AnyObject) *Signal[AnyObject] {
	return &obj.object().Destroyed
}

// Root returns the topmost ancestor of obj, or obj itself.
func Root(obj AnyObject) AnyObject {
	for obj.object().parent != nil {
		obj = obj.object().parent
	}
	return obj
}

func reversed(objs []AnyObject) []AnyObject {
	out := make([]AnyObject, len(objs))
	for i, o := range objs {
		out[len(objs)-1-i] = o
	}
	return out
}
