package frontmatter

import (
	"bytes"
	"errors"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a source file split into its metadata block and body.
type Document struct {
	// Block is the raw YAML between the `---` delimiters, without them.
	Block []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// HasBlock is false when the file does not open with a delimiter.
	HasBlock bool
	// Newline is "\n" or "\r\n", detected from the first line ending.
	Newline string
}

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// A document that does not start with the delimiter has no block and its
// whole content is the body.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	doc := Document{Newline: nl}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		doc.Body = content
		return doc, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		doc.HasBlock = true
		doc.Block = []byte{}
		doc.Body = content[start+len(open):]
		return doc, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			doc.HasBlock = true
			doc.Block = content[start : len(content)-len(tail)+len(nl)]
			doc.Body = []byte{}
			return doc, nil
		}
		return Document{}, ErrMissingClosingDelimiter
	}

	doc.HasBlock = true
	doc.Block = content[start : start+idx+len(nl)]
	doc.Body = content[start+idx+len(closeSeq):]
	return doc, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// Join is the inverse of Split.
func Join(doc Document) []byte {
	if !doc.HasBlock {
		return doc.Body
	}
	nl := doc.Newline
	if nl == "" {
		nl = "\n"
	}
	out := make([]byte, 0, len(doc.Block)+len(doc.Body)+2*(len(nl)+3))
	out = append(out, "---"+nl...)
	out = append(out, doc.Block...)
	out = append(out, "---"+nl...)
	return append(out, doc.Body...)
}
