// Package page turns an RSS 2.0 document tree into a static HTML page
// listing its items as a date/source/headline table.
package page

import (
	"fmt"
	"html"
	"strings"

	"github.com/lysyi3m/rss-page/app/xmltree"
)

type Status int

const (
	// StatusNoOutput means the document is not an RSS 2.0 feed; nothing
	// was produced and nothing should be written.
	StatusNoOutput Status = iota
	StatusRendered
)

func (s Status) String() string {
	switch s {
	case StatusRendered:
		return "rendered"
	default:
		return "no_output"
	}
}

type Result struct {
	Status Status
	// Reason explains a StatusNoOutput result.
	Reason string
	HTML   string
	Items  int
	// Title is the channel title of a rendered feed.
	Title string
}

type Option func(*Renderer)

func WithLinklessHeadline(h LinklessHeadline) Option {
	return func(r *Renderer) {
		if h.Valid() {
			r.linkless = h
		}
	}
}

type Renderer struct {
	linkless LinklessHeadline
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{linkless: HeadlineSource}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run renders the page for the feed rooted at root. A root that is not
// <rss version="2.0"> with a <channel> first child yields StatusNoOutput and
// a nil error. Shape violations inside the channel abort the run and no
// partial HTML is returned.
func (r *Renderer) Run(root xmltree.Node) (Result, error) {
	if reason := validateRoot(root); reason != "" {
		return Result{Status: StatusNoOutput, Reason: reason}, nil
	}
	channel := root.Child(0)

	var out buffer

	title, err := r.writeHeader(&out, channel)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render header: %w", err)
	}

	items := 0
	for i := 0; i < channel.NumberOfChildren(); i++ {
		child := channel.Child(i)
		if !child.IsTag() || child.Label() != "item" {
			continue
		}

		row, err := r.RenderItem(child)
		if err != nil {
			return Result{}, fmt.Errorf("failed to render item %d: %w", items+1, err)
		}
		out.add(row.lines()...)
		items++
	}

	writeFooter(&out)

	return Result{
		Status: StatusRendered,
		HTML:   out.String(),
		Items:  items,
		Title:  title,
	}, nil
}

func validateRoot(root xmltree.Node) string {
	switch {
	case root == nil || !root.IsTag():
		return "document root is not a tag"
	case root.Label() != "rss":
		return fmt.Sprintf("document root is <%s>, not <rss>", root.Label())
	case !root.HasAttribute("version"):
		return "<rss> has no version attribute"
	case root.AttributeValue("version") != "2.0":
		return fmt.Sprintf("unsupported rss version %q", root.AttributeValue("version"))
	}

	channel := root.Child(0)
	if channel == nil || !channel.IsTag() || channel.Label() != "channel" {
		return "first child of <rss> is not <channel>"
	}
	return ""
}

func (r *Renderer) writeHeader(out *buffer, channel xmltree.Node) (string, error) {
	title, err := requiredText(channel, "title")
	if err != nil {
		return "", err
	}
	link, err := requiredText(channel, "link")
	if err != nil {
		return "", err
	}
	description, err := requiredText(channel, "description")
	if err != nil {
		return "", err
	}

	out.add(
		"<html>",
		"<head>",
		"<title>",
		html.EscapeString(title),
		"</title>",
		"</head>",
		"<body>",
		"<h1>"+anchor(link, title)+"</h1>",
		"<p>"+html.EscapeString(description)+"</p>",
	)
	writeTableHead(out, "Date", "Source", "News")

	return title, nil
}

func writeTableHead(out *buffer, columns ...string) {
	out.add(`<table border="1">`, "<tr>")
	for _, column := range columns {
		out.add("<th>" + column + "</th>")
	}
	out.add("</tr>")
}

func writeFooter(out *buffer) {
	out.add(
		"</table>",
		"</body>",
		"</html>",
	)
}

// buffer is the append-only line accumulator of a single run.
type buffer struct {
	lines []string
}

func (b *buffer) add(lines ...string) {
	b.lines = append(b.lines, lines...)
}

func (b *buffer) String() string {
	var sb strings.Builder
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
