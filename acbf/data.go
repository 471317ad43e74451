package acbf

import (
	"encoding/base64"
	"strings"

	qbackend "github.com/CrimsonAS/peruse/backend"
	"github.com/antchfx/xmlquery"
)

// Binary is an embedded file, usually an image, from the data section. It
// can be the target of links but has no paragraphs of its own.
type Binary struct {
	qbackend.Object
	InternalReferenceObject

	id          string
	contentType string
	data        []byte
}

func newBinary(parent qbackend.AnyObject, id, contentType string, data []byte) *Binary {
	b := &Binary{id: id, contentType: contentType, data: data}
	mustInit(b, parent)
	b.initReferenceObject(b, ReferenceTarget, BinaryType, nil)
	return b
}

func (b *Binary) ID() string {
	return b.id
}

func (b *Binary) ReferenceObject() *InternalReferenceObject {
	return &b.InternalReferenceObject
}

func (b *Binary) ContentType() string {
	return b.contentType
}

func (b *Binary) Data() []byte {
	return b.data
}

func (b *Binary) toNode() *xmlquery.Node {
	n := elementNode("binary", "id", b.id, "content-type", b.contentType)
	xmlquery.AddChild(n, &xmlquery.Node{
		Type: xmlquery.TextNode,
		Data: base64.StdEncoding.EncodeToString(b.data),
	})
	return n
}

// Data is the data section of a document.
type Data struct {
	qbackend.Object

	binaries map[string]*Binary
	order    []*Binary

	// BinaryAdded is emitted after a binary was created and stored.
	BinaryAdded qbackend.Signal[*Binary]
}

func newData(parent qbackend.AnyObject) *Data {
	d := &Data{binaries: make(map[string]*Binary)}
	mustInit(d, parent)
	return d
}

// AddBinary creates a binary and stores it under id, destroying any binary
// previously stored under the same id. As with References.SetReference, links
// to the old binary reach the new one when their origins are resolved again.
func (d *Data) AddBinary(id, contentType string, data []byte) *Binary {
	if old, ok := d.binaries[id]; ok {
		qbackend.Destroy(old)
	}

	b := newBinary(d, id, contentType, data)
	d.binaries[id] = b
	d.order = append(d.order, b)
	b.Destroyed.Connect(d, func(qbackend.AnyObject) {
		if d.binaries[b.id] == b {
			delete(d.binaries, b.id)
		}
		for i, o := range d.order {
			if o == b {
				d.order = append(d.order[:i:i], d.order[i+1:]...)
				break
			}
		}
	})
	d.BinaryAdded.Emit(b)
	return b
}

// Binary returns the binary with the given identifier, or a NotFoundError.
func (d *Data) Binary(id string) (*Binary, error) {
	if b, ok := d.binaries[id]; ok {
		return b, nil
	}
	return nil, &NotFoundError{Resource: "binary", ID: id}
}

func (d *Data) Binaries() []*Binary {
	return append([]*Binary(nil), d.order...)
}

func (d *Data) Count() int {
	return len(d.order)
}

func (d *Data) loadSection(section *xmlquery.Node) LoadResult {
	var res LoadResult
	for _, n := range childElements(section) {
		if n.Data != "binary" {
			res.add(skipped(&MalformedReferenceError{Element: n.Data, Line: n.LineNumber, Reason: "unsupported subsection"}))
			continue
		}
		id := n.SelectAttr("id")
		if id == "" {
			res.add(skipped(&MalformedReferenceError{Element: n.Data, Line: n.LineNumber, Reason: "missing id attribute"}))
			continue
		}
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.InnerText()), ""))
		if err != nil {
			res.add(skipped(&MalformedReferenceError{Element: n.Data, Line: n.LineNumber, Reason: "invalid base64 content: " + err.Error()}))
			continue
		}
		d.AddBinary(id, n.SelectAttr("content-type"), data)
		res.Loaded++
	}
	logger().Debug("created data section", "binaries", d.Count())
	return res
}

func (d *Data) toNode() *xmlquery.Node {
	n := elementNode("data")
	for _, b := range d.order {
		xmlquery.AddChild(n, b.toNode())
	}
	return n
}
