package page

import (
	"fmt"
	"html"
	"strings"

	"github.com/lysyi3m/rss-page/app/xmltree"
)

const (
	NoDescription     = "No description available"
	NoPublicationDate = "No publication date available"
	NoSource          = "No source available"
)

// LinklessHeadline selects what the headline cell shows for an item
// without a <link>.
type LinklessHeadline string

const (
	// HeadlineSource repeats the source name in the headline cell.
	HeadlineSource LinklessHeadline = "source"
	// HeadlineText shows the unlinked title, falling back to the
	// description.
	HeadlineText LinklessHeadline = "text"
)

func (h LinklessHeadline) Valid() bool {
	return h == HeadlineSource || h == HeadlineText
}

// Row is one rendered table row. Source and Headline hold cell markup.
type Row struct {
	Date     string
	Source   string
	Headline string
}

func (r Row) lines() []string {
	return []string{
		"<tr>",
		"<td>" + r.Date + "</td>",
		"<td>" + r.Source + "</td>",
		"<td>" + r.Headline + "</td>",
		"</tr>",
	}
}

// Item holds the fields of one <item> after fallbacks are applied.
type Item struct {
	Title         string
	HasTitle      bool
	Description   string
	Link          string
	HasLink       bool
	PubDate       string
	Source        string
	SourceLink    string
	HasSourceLink bool
}

// ExtractItem reads the optional fields of an <item>.
func ExtractItem(item xmltree.Node) (Item, error) {
	if item == nil || !item.IsTag() || item.Label() != "item" {
		return Item{}, fmt.Errorf("%w: expected an <item> tag", ErrInvalidDocumentShape)
	}

	fields := Item{
		Description: NoDescription,
		PubDate:     NoPublicationDate,
		Source:      NoSource,
	}

	i, err := FindChild(item, "title")
	if err != nil {
		return Item{}, err
	}
	if i != NotFound {
		if fields.Title, err = textAt(item, i); err != nil {
			return Item{}, err
		}
		fields.HasTitle = true
	}

	if i, err = FindChild(item, "description"); err != nil {
		return Item{}, err
	}
	if i != NotFound && item.Child(i).NumberOfChildren() > 0 {
		fields.Description = item.Child(i).Child(0).Label()
	}

	if i, err = FindChild(item, "link"); err != nil {
		return Item{}, err
	}
	if i != NotFound {
		link, err := textAt(item, i)
		if err != nil {
			return Item{}, err
		}
		fields.Link = strings.ReplaceAll(link, `"`, "")
		fields.HasLink = true
	}

	if i, err = FindChild(item, "pubDate"); err != nil {
		return Item{}, err
	}
	if i != NotFound {
		if fields.PubDate, err = textAt(item, i); err != nil {
			return Item{}, err
		}
	}

	if i, err = FindChild(item, "source"); err != nil {
		return Item{}, err
	}
	if i != NotFound {
		if fields.Source, err = textAt(item, i); err != nil {
			return Item{}, err
		}
		source := item.Child(i)
		if source.HasAttribute("url") {
			fields.SourceLink = source.AttributeValue("url")
			fields.HasSourceLink = true
		}
	}

	return fields, nil
}

// RenderItem maps one <item> to one table row.
func (r *Renderer) RenderItem(item xmltree.Node) (Row, error) {
	fields, err := ExtractItem(item)
	if err != nil {
		return Row{}, err
	}

	row := Row{Date: html.EscapeString(fields.PubDate)}

	if fields.HasSourceLink {
		row.Source = anchor(fields.SourceLink, fields.Source)
	} else {
		row.Source = html.EscapeString(fields.Source)
	}

	switch {
	case fields.HasLink:
		row.Headline = anchor(fields.Link, fields.headline())
	case r.linkless == HeadlineText:
		row.Headline = html.EscapeString(fields.headline())
	default:
		row.Headline = html.EscapeString(fields.Source)
	}

	return row, nil
}

// headline is the title, or the description (which always carries a value,
// possibly the fallback text) when the item has no title.
func (f Item) headline() string {
	if f.HasTitle {
		return f.Title
	}
	return f.Description
}

func anchor(href, text string) string {
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(text) + "</a>"
}
