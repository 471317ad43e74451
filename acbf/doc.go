// Package acbf is an in-memory model of Advanced Comic Book Format documents,
// limited to what is needed to track internal references.
//
// Document
//
// A Document owns its sub-stores as qbackend objects: Data holds the
// binaries, References holds the reference section, and Body holds the pages
// and their text areas. Everything else in an ACBF file is kept as XML and
// written back unchanged.
//
// Identified objects
//
// Any object that embeds InternalReferenceObject is an IdentifiedObject. Its
// SupportedReferenceType says whether it can be the origin of links (its
// paragraphs contain <a href="#id"> markup), their target, or both. Forward
// references are read lazily from the paragraphs and resolved through the
// document; every resolved link is registered as a back reference on its
// target.
//
//  doc, _, err := acbf.ReadDocument(f)
//  note, _ := doc.References().Reference("note1")
//  for _, ref := range note.ForwardReferences() {
//      fmt.Println(ref.TargetID)
//  }
//
// Index
//
// IdentifiedObjectModel is a list model of every identified object in a
// document. It walks the document once when bound and then follows
// BinaryAdded, ReferenceAdded and each object's destruction, so it can be
// published on a qbackend.Connection and stay correct as the document changes.
package acbf

import (
	"log/slog"

	"github.com/CrimsonAS/peruse/internal/logging"
)

func logger() *slog.Logger {
	return logging.Component("acbf")
}
