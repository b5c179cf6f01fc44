package page

import (
	"errors"
	"fmt"

	"github.com/lysyi3m/rss-page/app/xmltree"
)

// ErrInvalidDocumentShape reports a violated structural precondition.
var ErrInvalidDocumentShape = errors.New("invalid document shape")

// NotFound is returned by FindChild when no child carries the tag.
const NotFound = -1

// FindChild returns the index of the first direct child of n labeled tag,
// or NotFound. The match is exact and case-sensitive.
func FindChild(n xmltree.Node, tag string) (int, error) {
	if n == nil || !n.IsTag() {
		return NotFound, fmt.Errorf("%w: cannot look up <%s> below a text node", ErrInvalidDocumentShape, tag)
	}

	for i := 0; i < n.NumberOfChildren(); i++ {
		if n.Child(i).Label() == tag {
			return i, nil
		}
	}
	return NotFound, nil
}

// textAt returns the label of the first child of n's child at index i.
func textAt(n xmltree.Node, i int) (string, error) {
	tag := n.Child(i)
	if tag == nil {
		return "", fmt.Errorf("%w: <%s> has no child at %d", ErrInvalidDocumentShape, n.Label(), i)
	}
	if tag.NumberOfChildren() == 0 {
		return "", fmt.Errorf("%w: <%s> in <%s> is empty", ErrInvalidDocumentShape, tag.Label(), n.Label())
	}
	return tag.Child(0).Label(), nil
}

// requiredText resolves tag under n and returns its content; a missing tag
// is a shape violation.
func requiredText(n xmltree.Node, tag string) (string, error) {
	i, err := FindChild(n, tag)
	if err != nil {
		return "", err
	}
	if i == NotFound {
		return "", fmt.Errorf("%w: <%s> has no <%s>", ErrInvalidDocumentShape, n.Label(), tag)
	}
	return textAt(n, i)
}
