package acbf

import (
	"io"

	qbackend "github.com/CrimsonAS/peruse/backend"
	"github.com/antchfx/xmlquery"
)

// Reference is one entry of the references section, usually a footnote. Its
// paragraphs may link to other identified objects, and other objects may
// link to it.
type Reference struct {
	qbackend.Object
	InternalReferenceObject

	id         string
	language   string
	paragraphs []string
}

func newReference(parent qbackend.AnyObject, id string, paragraphs []string, language string) *Reference {
	r := &Reference{
		id:         id,
		language:   language,
		paragraphs: normalizeParagraphs(paragraphs),
	}
	mustInit(r, parent)
	r.initReferenceObject(r, ReferenceOriginAndTarget, ReferenceType, r.Paragraphs)
	return r
}

func (r *Reference) ID() string {
	return r.id
}

func (r *Reference) ReferenceObject() *InternalReferenceObject {
	return &r.InternalReferenceObject
}

// Language is the value of the lang attribute, empty if unset.
func (r *Reference) Language() string {
	return r.language
}

func (r *Reference) SetLanguage(language string) {
	r.language = language
}

// Paragraphs returns the inner markup of each <p> element. Text that was not
// well formed markup when stored is returned escaped, as Save writes it.
func (r *Reference) Paragraphs() []string {
	return append([]string(nil), r.paragraphs...)
}

func (r *Reference) SetParagraphs(paragraphs []string) {
	r.paragraphs = normalizeParagraphs(paragraphs)
	r.contentChanged()
}

func (r *Reference) toNode() *xmlquery.Node {
	n := elementNode("reference", "id", r.id, "lang", r.language)
	for _, p := range r.paragraphs {
		xmlquery.AddChild(n, paragraphNode(p))
	}
	return n
}

// References is the references section of a document: a set of Reference
// objects keyed by identifier. Identifiers are unique; storing a reference
// under an identifier that is in use replaces the old one.
type References struct {
	qbackend.Object

	references map[string]*Reference
	order      []*Reference

	// ReferenceAdded is emitted after a reference was created and stored.
	ReferenceAdded qbackend.Signal[*Reference]
}

func newReferences(parent qbackend.AnyObject) *References {
	s := &References{references: make(map[string]*Reference)}
	mustInit(s, parent)
	return s
}

// NewReferences returns an empty references section that is not part of a
// document. Links in its references are not resolved.
func NewReferences() *References {
	return newReferences(nil)
}

// Reference returns the reference with the given identifier, or a
// NotFoundError.
func (s *References) Reference(id string) (*Reference, error) {
	if r, ok := s.references[id]; ok {
		return r, nil
	}
	return nil, &NotFoundError{Resource: "reference", ID: id}
}

// References returns every reference in the order they were stored.
func (s *References) References() []*Reference {
	return append([]*Reference(nil), s.order...)
}

func (s *References) Count() int {
	return len(s.order)
}

// SetReference creates a reference and stores it under id. A reference
// already stored under id is destroyed first, which removes it from the
// document and from every index following it.
//
// Links to the old reference are dropped from their origins, which emit
// ForwardReferencesChanged. The new reference has no back references until
// those origins compute their forward references again, so a caller showing
// back references should call ForwardReferences on the origins (or
// Document.ResolveReferences) when it sees that signal.
func (s *References) SetReference(id string, paragraphs []string, language string) *Reference {
	if old, ok := s.references[id]; ok {
		qbackend.Destroy(old)
	}

	ref := newReference(s, id, paragraphs, language)
	s.references[id] = ref
	s.order = append(s.order, ref)
	ref.Destroyed.Connect(s, func(qbackend.AnyObject) {
		s.forget(ref)
	})
	s.ReferenceAdded.Emit(ref)
	return ref
}

func (s *References) forget(ref *Reference) {
	if s.references[ref.id] == ref {
		delete(s.references, ref.id)
	}
	for i, r := range s.order {
		if r == ref {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// Load reads a <references> element from r and stores every reference in
// it. Elements that cannot be used are skipped and reported in the result;
// only a syntax error in the XML stream fails the load, in which case the
// references read up to that point are kept.
func (s *References) Load(r io.Reader) (LoadResult, error) {
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
			logger().Warn("failed to read references", "error", err, "references", s.Count())
			return res, &ParseError{Section: "references", Err: err}
		}
		res.add(s.loadElement(n))
	}
	logger().Debug("created reference section", "references", s.Count())
	return res, nil
}

// loadSection reads the children of an already parsed <references> element.
func (s *References) loadSection(section *xmlquery.Node) LoadResult {
	var res LoadResult
	for _, n := range childElements(section) {
		res.add(s.loadElement(n))
	}
	logger().Debug("created reference section", "references", s.Count())
	return res
}

func (s *References) loadElement(n *xmlquery.Node) LoadResult {
	if n.Data != "reference" {
		return skipped(&MalformedReferenceError{Element: n.Data, Line: n.LineNumber, Reason: "unsupported subsection"})
	}
	id := n.SelectAttr("id")
	if id == "" {
		return skipped(&MalformedReferenceError{Element: n.Data, Line: n.LineNumber, Reason: "missing id attribute"})
	}

	var paragraphs []string
	for _, c := range childElements(n) {
		if c.Data != "p" {
			logger().Warn("skipping unsupported element in reference", "element", c.Data, "reference", id)
			continue
		}
		paragraphs = append(paragraphs, innerXML(c))
	}
	s.SetReference(id, paragraphs, n.SelectAttr("lang"))
	return LoadResult{Loaded: 1}
}

// Save writes the section as a <references> element, references in the
// order they were stored.
func (s *References) Save(w io.Writer) error {
	return s.toNode().WriteWithOptions(w, xmlquery.WithOutputSelf())
}

func (s *References) toNode() *xmlquery.Node {
	n := elementNode("references")
	for _, r := range s.order {
		xmlquery.AddChild(n, r.toNode())
	}
	return n
}

func skipped(err *MalformedReferenceError) LoadResult {
	logger().Warn("skipping element", "error", err)
	return LoadResult{Skipped: []error{err}}
}
