package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MaxAnchorLen caps the length of generated heading anchors.
const MaxAnchorLen = 15

// Slugify turns heading text into an anchor: surrounding space is trimmed,
// every character outside [A-Za-z0-9-_.!~*'()] is dropped, the result is cut
// to MaxAnchorLen characters and lowercased.
func Slugify(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	for _, r := range s {
		if b.Len() == MaxAnchorLen {
			break
		}
		if anchorChar(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func anchorChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_.!~*'()", r)
}

// headingIDs sets the id of every heading to the Slugify of its text
// content. Emphasis markers and inline HTML do not contribute; code spans do.
// Duplicate anchors within a page are kept as is rather than suffixed, so
// every id stays within MaxAnchorLen.
type headingIDs struct{}

func (headingIDs) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		h.SetAttributeString("id", []byte(Slugify(plainText(h, src))))
		return ast.WalkSkipChildren, nil
	})
}

// plainText returns the text content of a heading as a reader sees it:
// entities and backslash escapes resolved, code spans kept verbatim.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.CodeSpan:
			for child := t.FirstChild(); child != nil; child = child.NextSibling() {
				if txt, ok := child.(*ast.Text); ok {
					b.Write(txt.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(decodeText(t.Segment.Value(src)))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			if t.IsCode() {
				b.Write(t.Value)
			} else {
				b.Write(decodeText(t.Value))
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func decodeText(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}
