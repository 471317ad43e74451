package acbf

import (
	"encoding/xml"
	"io"

	qbackend "github.com/CrimsonAS/peruse/backend"
	"github.com/antchfx/xmlquery"
)

// Namespace is the ACBF 1.1 XML namespace.
const Namespace = "http://www.acbf.info/xml/acbf/1.1"

// Document is the root of an ACBF object tree.
type Document struct {
	qbackend.Object

	data       *Data
	references *References
	body       *Body

	rootAttrs []xmlquery.Attr
	sections  []*section
}

// section is a top level element of the document, in file order. Sections
// that are not modelled keep their parsed XML.
type section struct {
	name string
	node *xmlquery.Node
}

func NewDocument() *Document {
	d := &Document{}
	mustInit(d, nil)
	d.data = newData(d)
	d.references = newReferences(d)
	d.body = newBody(d)
	return d
}

// ReadDocument parses a complete ACBF document.
func ReadDocument(r io.Reader) (*Document, LoadResult, error) {
	d := NewDocument()
	res, err := d.FromXML(r)
	return d, res, err
}

// mustInit initializes a newly allocated object. That only fails if the
// system random source does.
func mustInit(obj, parent qbackend.AnyObject) {
	if err := qbackend.InitObject(obj, parent); err != nil {
		panic(err)
	}
}

func (d *Document) Data() *Data {
	return d.data
}

func (d *Document) References() *References {
	return d.references
}

func (d *Document) Body() *Body {
	return d.body
}

// FromXML reads the sections of an <ACBF> document. The data and references
// sections are loaded into the document's stores; every other section is
// kept as it is and written back by ToXML.
//
// As with References.Load, unusable elements are skipped and reported in the
// result, and only an XML syntax error fails.
func (d *Document) FromXML(r io.Reader) (LoadResult, error) {
	var res LoadResult
	sp, err := xmlquery.CreateStreamParser(r, "/*/*")
	if err != nil {
		return res, err
	}
	for {
		n, err := sp.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			logger().Warn("failed to read ACBF document", "error", err)
			return res, &ParseError{Section: "document", Err: err}
		}

		if d.rootAttrs == nil && n.Parent != nil {
			if n.Parent.Data != "ACBF" {
				logger().Warn("unexpected document element", "element", n.Parent.Data)
			}
			d.rootAttrs = append([]xmlquery.Attr{}, n.Parent.Attr...)
		}

		switch n.Data {
		case "data":
			res.add(d.data.loadSection(n))
			d.setSection(n.Data, nil)
		case "references":
			res.add(d.references.loadSection(n))
			d.setSection(n.Data, nil)
		default:
			d.setSection(n.Data, n)
		}
	}
	return res, nil
}

func (d *Document) setSection(name string, node *xmlquery.Node) {
	for _, s := range d.sections {
		if s.name == name {
			s.node = node
			return
		}
	}
	d.sections = append(d.sections, &section{name: name, node: node})
}

// ToXML writes the document. Sections keep the order they were read in; a
// document that was not read from XML gets references followed by data.
func (d *Document) ToXML(w io.Writer) error {
	root := elementNode("ACBF")
	if d.rootAttrs != nil {
		root.Attr = append([]xmlquery.Attr{}, d.rootAttrs...)
	} else {
		root.Attr = []xmlquery.Attr{{Name: xml.Name{Local: "xmlns"}, Value: Namespace}}
	}

	sections := append([]*section{}, d.sections...)
	for _, name := range []string{"references", "data"} {
		found := false
		for _, s := range sections {
			found = found || s.name == name
		}
		if !found {
			sections = append(sections, &section{name: name})
		}
	}

	for _, s := range sections {
		switch s.name {
		case "data":
			xmlquery.AddChild(root, d.data.toNode())
		case "references":
			xmlquery.AddChild(root, d.references.toNode())
		default:
			if s.node != nil {
				xmlquery.AddChild(root, s.node)
			}
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return root.WriteWithOptions(w, xmlquery.WithOutputSelf())
}

// IdentifiedObject looks up an identified object by its identifier. Binaries
// are searched first, then references, then the rest of the document in
// depth-first order. Destroyed objects are never returned.
func (d *Document) IdentifiedObject(id string) (IdentifiedObject, error) {
	if b, err := d.data.Binary(id); err == nil && !b.IsDestroyed() {
		return b, nil
	}
	if r, err := d.references.Reference(id); err == nil && !r.IsDestroyed() {
		return r, nil
	}

	var found IdentifiedObject
	qbackend.Walk(d, func(obj qbackend.AnyObject) bool {
		if found != nil || obj == qbackend.AnyObject(d.data) || obj == qbackend.AnyObject(d.references) {
			return false
		}
		if o, ok := obj.(IdentifiedObject); ok && !o.IsDestroyed() && o.ID() == id {
			found = o
			return false
		}
		return true
	})
	if found == nil {
		return nil, &NotFoundError{Resource: "identified object", ID: id}
	}
	return found, nil
}

// IdentifiedObjects returns every identified object in the document in
// depth-first order.
func (d *Document) IdentifiedObjects() []IdentifiedObject {
	var objs []IdentifiedObject
	qbackend.Walk(d, func(obj qbackend.AnyObject) bool {
		if o, ok := obj.(IdentifiedObject); ok {
			objs = append(objs, o)
		}
		return true
	})
	return objs
}

// ResolveReferences recomputes the forward references of every object that
// can be an origin, which registers all back references in the document.
func (d *Document) ResolveReferences() {
	for _, o := range d.IdentifiedObjects() {
		if o.ReferenceObject().SupportedReferenceType().CanBeOrigin() {
			_ = o.ReferenceObject().UpdateForwardReferences()
		}
	}
}
