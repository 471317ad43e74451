package acbf

import (
	qbackend "github.com/CrimsonAS/peruse/backend"
)

// Body holds the pages of a document.
type Body struct {
	qbackend.Object
}

func newBody(parent qbackend.AnyObject) *Body {
	b := &Body{}
	mustInit(b, parent)
	return b
}

func (b *Body) AddPage() *Page {
	p := &Page{}
	mustInit(p, b)
	return p
}

func (b *Body) Pages() []*Page {
	var pages []*Page
	for _, c := range b.Children() {
		if p, ok := c.(*Page); ok {
			pages = append(pages, p)
		}
	}
	return pages
}

// Page holds the text areas of one page.
type Page struct {
	qbackend.Object
}

// AddTextArea adds a text area with the given paragraphs. Text areas are
// found by the document's identifier lookup, but they are not announced to
// indexes that are already bound.
func (p *Page) AddTextArea(id string, paragraphs []string) *TextArea {
	t := &TextArea{id: id, paragraphs: append([]string(nil), paragraphs...)}
	mustInit(t, p)
	t.initReferenceObject(t, ReferenceOriginAndTarget, UnknownType, t.Paragraphs)
	return t
}

func (p *Page) TextAreas() []*TextArea {
	var areas []*TextArea
	for _, c := range p.Children() {
		if t, ok := c.(*TextArea); ok {
			areas = append(areas, t)
		}
	}
	return areas
}

// TextArea is a speech balloon or caption. It can link to other objects and
// be linked to.
type TextArea struct {
	qbackend.Object
	InternalReferenceObject

	id         string
	paragraphs []string
}

func (t *TextArea) ID() string {
	return t.id
}

func (t *TextArea) ReferenceObject() *InternalReferenceObject {
	return &t.InternalReferenceObject
}

func (t *TextArea) Paragraphs() []string {
	return append([]string(nil), t.paragraphs...)
}

func (t *TextArea) SetParagraphs(paragraphs []string) {
	t.paragraphs = append([]string(nil), paragraphs...)
	t.contentChanged()
}
