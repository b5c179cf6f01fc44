package xmltree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrMalformed is returned for input that cannot be turned into a single
// rooted tree.
var ErrMalformed = errors.New("malformed xml document")

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run parses data into a tree and returns its root tag.
//
// Element labels keep their namespace prefix ("atom:link"), so prefixed
// extension elements never shadow the plain RSS ones. Attribute keys are
// keyed the same way.
func (p *Parser) Run(data []byte) (Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	pull := xpp.NewXMLPullParser(bytes.NewReader(data), false, charsetReader)

	var root *Tag
	var stack []*Tag

	for {
		event, err := pull.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch event {
		case xpp.StartTag:
			tag := &Tag{
				label: qualifiedName(pull, pull.Space, pull.Name),
				attrs: make(map[string]string, len(pull.Attrs)),
			}
			for _, attr := range pull.Attrs {
				key := attr.Name.Local
				if attr.Name.Space == "xmlns" {
					key = "xmlns:" + attr.Name.Local
				} else if attr.Name.Space != "" {
					key = qualifiedName(pull, attr.Name.Space, attr.Name.Local)
				}
				if _, seen := tag.attrs[key]; !seen {
					tag.attrs[key] = attr.Value
				}
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: more than one root element", ErrMalformed)
				}
				root = tag
			} else {
				stack[len(stack)-1].appendChild(tag)
			}
			stack = append(stack, tag)

		case xpp.EndTag:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected end tag </%s>", ErrMalformed, pull.Name)
			}
			stack[len(stack)-1].finish()
			stack = stack[:len(stack)-1]

		case xpp.Text:
			if len(stack) == 0 {
				continue
			}
			stack[len(stack)-1].appendText(pull.Text)

		case xpp.EndDocument:
			if root == nil {
				return nil, fmt.Errorf("%w: no root element", ErrMalformed)
			}
			if len(stack) != 0 {
				return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformed, stack[len(stack)-1].label)
			}
			return root, nil
		}
	}
}

// Parse reads r fully and parses it.
func Parse(r io.Reader) (Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return NewParser().Run(data)
}

func qualifiedName(pull *xpp.XMLPullParser, space, local string) string {
	if space == "" {
		return local
	}
	prefix, ok := pull.Spaces[space]
	if !ok {
		// undeclared prefixes come through untranslated
		prefix = space
	}
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
