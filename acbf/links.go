package acbf

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var linkExpr = xpath.MustCompile("//a[@href]")

type link struct {
	Target    string
	Paragraph int
	Text      string
}

// extractLinks returns the internal links (href="#id") in paragraphs, which
// hold inline ACBF markup. Paragraphs that are not well formed are skipped.
func extractLinks(paragraphs []string) []link {
	var links []link
	for i, para := range paragraphs {
		if !strings.Contains(para, "href") {
			continue
		}
		p, err := parseParagraph(para)
		if err != nil {
			logger().Debug("skipping unparseable paragraph", "paragraph", i, "error", err)
			continue
		}
		for _, a := range xmlquery.QuerySelectorAll(p, linkExpr) {
			href := a.SelectAttr("href")
			if !strings.HasPrefix(href, "#") || len(href) < 2 {
				continue
			}
			links = append(links, link{Target: href[1:], Paragraph: i, Text: a.InnerText()})
		}
	}
	return links
}

// parseParagraph parses the inner markup of a paragraph and returns the
// detached <p> element holding it.
func parseParagraph(para string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader("<p>" + para + "</p>"))
	if err != nil {
		return nil, err
	}
	p := doc.SelectElement("p")
	xmlquery.RemoveFromTree(p)
	return p, nil
}

// innerXML returns the markup inside n, exactly as it will be written back.
func innerXML(n *xmlquery.Node) string {
	return n.OutputXMLWithOptions(xmlquery.WithPreserveSpace())
}

// paragraphNode builds a <p> element for para. Markup that does not parse is
// written as escaped text.
func paragraphNode(para string) *xmlquery.Node {
	if p, err := parseParagraph(para); err == nil {
		return p
	}
	p := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "p"}
	xmlquery.AddChild(p, &xmlquery.Node{Type: xmlquery.TextNode, Data: para})
	return p
}

// normalizeParagraphs returns paragraphs in the form they are written and
// read back: markup is re-serialized, anything that does not parse becomes
// escaped text.
func normalizeParagraphs(paragraphs []string) []string {
	if len(paragraphs) == 0 {
		return nil
	}
	out := make([]string, len(paragraphs))
	for i, para := range paragraphs {
		out[i] = innerXML(paragraphNode(para))
	}
	return out
}

func elementNode(name string, attrs ...string) *xmlquery.Node {
	n := &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] != "" {
			xmlquery.AddAttr(n, attrs[i], attrs[i+1])
		}
	}
	return n
}

// childElements returns the element children of n.
func childElements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
