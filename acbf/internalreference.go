package acbf

import (
	"fmt"

	qbackend "github.com/CrimsonAS/peruse/backend"
	uuid "github.com/satori/go.uuid"
)

// SupportedReferenceType declares which ends of an internal link an object
// can be. It is fixed when the object is created.
type SupportedReferenceType int

const (
	ReferenceUnknownType     SupportedReferenceType = 0
	ReferenceOrigin          SupportedReferenceType = 1
	ReferenceTarget          SupportedReferenceType = 2
	ReferenceOriginAndTarget                        = ReferenceOrigin | ReferenceTarget
)

func (t SupportedReferenceType) CanBeOrigin() bool { return t&ReferenceOrigin != 0 }
func (t SupportedReferenceType) CanBeTarget() bool { return t&ReferenceTarget != 0 }

func (t SupportedReferenceType) String() string {
	switch t {
	case ReferenceUnknownType:
		return "unknown"
	case ReferenceOrigin:
		return "origin"
	case ReferenceTarget:
		return "target"
	case ReferenceOriginAndTarget:
		return "origin-and-target"
	}
	return fmt.Sprintf("SupportedReferenceType(%d)", int(t))
}

// ObjectKind classifies identified objects for presentation. It is encoded
// as a number, matching the type role of the object model.
type ObjectKind int

const (
	UnknownType ObjectKind = iota
	ReferenceType
	BinaryType
)

func (k ObjectKind) String() string {
	switch k {
	case ReferenceType:
		return "reference"
	case BinaryType:
		return "binary"
	}
	return "unknown"
}

// IdentifiedObject is implemented by every object that can be the origin or
// target of an internal link.
type IdentifiedObject interface {
	qbackend.AnyObject
	ID() string
	ReferenceObject() *InternalReferenceObject
}

// objectResolver is implemented by the root of a tree that can look up
// identified objects, normally a Document.
type objectResolver interface {
	IdentifiedObject(id string) (IdentifiedObject, error)
}

// InternalReference is one link from the paragraphs of an origin to a
// target. It refers to both ends by identifier only; the origin's handle
// distinguishes it from a later object reusing the same identifier.
type InternalReference struct {
	OriginID     string
	OriginHandle uuid.UUID
	TargetID     string
	// Paragraph is the index of the paragraph containing the link.
	Paragraph int
	// Text is the link text.
	Text string

	targetHandle uuid.UUID
}

func (r *InternalReference) String() string {
	return fmt.Sprintf("%s -> %s", r.OriginID, r.TargetID)
}

// InternalReferenceObject is embedded in identified objects and tracks the
// links that go out of the object (forward references) and into it (back
// references).
//
// Forward references are computed from the object's paragraphs the first
// time they are needed and cached until InvalidateForwardReferences. Each
// resolved forward reference is registered as a back reference on its
// target, and withdrawn again when the forward references are recomputed or
// the origin is destroyed.
type InternalReferenceObject struct {
	owner     IdentifiedObject
	refType   SupportedReferenceType
	kind      ObjectKind
	content   func() []string
	forward   []*InternalReference
	haveCache bool
	back      []*InternalReference

	ForwardReferencesChanged qbackend.Signal[IdentifiedObject]
	BackReferencesChanged    qbackend.Signal[IdentifiedObject]
}

// initReferenceObject sets the capability descriptor. content returns the
// paragraphs links are read from and may be nil for objects that cannot be
// an origin.
func (o *InternalReferenceObject) initReferenceObject(owner IdentifiedObject, refType SupportedReferenceType, kind ObjectKind, content func() []string) {
	o.owner = owner
	o.refType = refType
	o.kind = kind
	o.content = content
	qbackend.DestroyedSignal(owner).Connect(o, func(qbackend.AnyObject) {
		o.ownerDestroyed()
	})
}

func (o *InternalReferenceObject) SupportedReferenceType() SupportedReferenceType {
	return o.refType
}

func (o *InternalReferenceObject) Kind() ObjectKind {
	return o.kind
}

// ForwardReferences returns the resolved links in the owner's paragraphs, in
// paragraph order.
func (o *InternalReferenceObject) ForwardReferences() []*InternalReference {
	if !o.haveCache && o.refType.CanBeOrigin() {
		_ = o.UpdateForwardReferences()
	}
	return append([]*InternalReference(nil), o.forward...)
}

// InvalidateForwardReferences drops the cached forward references. They are
// recomputed by the next ForwardReferences call.
func (o *InternalReferenceObject) InvalidateForwardReferences() {
	o.haveCache = false
}

// contentChanged is called by owners after their paragraphs change. Forward
// references that were already computed are recomputed right away, so the
// back references on their targets stay current.
func (o *InternalReferenceObject) contentChanged() {
	wasCached := o.haveCache
	o.InvalidateForwardReferences()
	if wasCached {
		_ = o.UpdateForwardReferences()
	}
}

// UpdateForwardReferences reads the links in the owner's paragraphs again,
// resolves each one through the document and registers it with its target.
// Links that do not resolve, or whose target rejects them, are left out.
// ForwardReferencesChanged is emitted if the result differs from the
// previous one.
func (o *InternalReferenceObject) UpdateForwardReferences() error {
	if !o.refType.CanBeOrigin() {
		return &UnsupportedReferenceRoleError{
			ObjectID:  o.owner.ID(),
			Role:      ReferenceOrigin,
			Supported: o.refType,
		}
	}

	resolver := resolverFor(o.owner)
	old := o.forward
	o.withdrawForward(resolver)

	var refs []*InternalReference
	if resolver != nil && o.content != nil && !o.owner.IsDestroyed() {
		for _, l := range extractLinks(o.content()) {
			target, err := resolver.IdentifiedObject(l.Target)
			if err != nil {
				logger().Debug("unresolved link", "origin", o.owner.ID(), "target", l.Target)
				continue
			}
			ref := &InternalReference{
				OriginID:     o.owner.ID(),
				OriginHandle: o.owner.Handle(),
				TargetID:     l.Target,
				Paragraph:    l.Paragraph,
				Text:         l.Text,
				targetHandle: target.Handle(),
			}
			if err := target.ReferenceObject().RegisterBackReference(ref); err != nil {
				continue
			}
			refs = append(refs, ref)
		}
	}

	o.forward = refs
	o.haveCache = true
	if !sameLinks(old, refs) {
		o.ForwardReferencesChanged.Emit(o.owner)
	}
	return nil
}

// RegisterBackReference records that ref points at this object. Registering
// the same reference again does nothing.
func (o *InternalReferenceObject) RegisterBackReference(ref *InternalReference) error {
	if !o.refType.CanBeTarget() {
		err := &UnsupportedReferenceRoleError{
			ObjectID:  o.owner.ID(),
			Role:      ReferenceTarget,
			Supported: o.refType,
		}
		logger().Warn("rejected back reference", "error", err, "origin", ref.OriginID)
		return err
	}
	for _, r := range o.back {
		if r == ref {
			return nil
		}
	}
	o.back = append(o.back, ref)
	o.BackReferencesChanged.Emit(o.owner)
	return nil
}

// BackReferences returns the links registered against this object.
func (o *InternalReferenceObject) BackReferences() []*InternalReference {
	return append([]*InternalReference(nil), o.back...)
}

func (o *InternalReferenceObject) removeBackReference(ref *InternalReference) {
	for i, r := range o.back {
		if r == ref {
			o.back = append(o.back[:i:i], o.back[i+1:]...)
			o.BackReferencesChanged.Emit(o.owner)
			return
		}
	}
}

// withdrawForward removes the current forward references from their
// targets. A target is only touched if it is still the object the link was
// resolved to.
func (o *InternalReferenceObject) withdrawForward(resolver objectResolver) {
	if resolver == nil {
		return
	}
	for _, ref := range o.forward {
		target, err := resolver.IdentifiedObject(ref.TargetID)
		if err != nil || !uuid.Equal(target.Handle(), ref.targetHandle) {
			continue
		}
		target.ReferenceObject().removeBackReference(ref)
	}
}

// ownerDestroyed runs while the owner is still attached to its document.
func (o *InternalReferenceObject) ownerDestroyed() {
	resolver := resolverFor(o.owner)
	o.withdrawForward(resolver)
	o.forward = nil

	// Origins pointing here must not keep a link to the dying object.
	if resolver != nil {
		for _, ref := range o.back {
			origin, err := resolver.IdentifiedObject(ref.OriginID)
			if err == nil && uuid.Equal(origin.Handle(), ref.OriginHandle) {
				origin.ReferenceObject().dropForward(ref)
			}
		}
	}
	o.back = nil
}

// dropForward removes one forward reference whose target went away and
// marks the cache stale, so a new object with the same identifier is found
// by the next ForwardReferences call.
func (o *InternalReferenceObject) dropForward(ref *InternalReference) {
	for i, r := range o.forward {
		if r == ref {
			o.forward = append(o.forward[:i:i], o.forward[i+1:]...)
			o.haveCache = false
			o.ForwardReferencesChanged.Emit(o.owner)
			return
		}
	}
}

func resolverFor(obj qbackend.AnyObject) objectResolver {
	r, _ := qbackend.Root(obj).(objectResolver)
	return r
}

func sameLinks(a, b []*InternalReference) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].TargetID != b[i].TargetID || a[i].Paragraph != b[i].Paragraph || a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}
