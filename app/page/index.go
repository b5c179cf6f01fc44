package page

import (
	"html"
	"strconv"
	"time"
)

type IndexEntry struct {
	Title      string
	File       string
	Items      int
	RenderedAt *time.Time
}

// RenderIndex renders the page linking every generated feed page. Entries
// are listed in the order given.
func RenderIndex(title string, entries []IndexEntry) string {
	var out buffer

	out.add(
		"<html>",
		"<head>",
		"<title>"+html.EscapeString(title)+"</title>",
		"</head>",
		"<body>",
		"<h1>"+html.EscapeString(title)+"</h1>",
	)
	writeTableHead(&out, "Feed", "Items", "Updated")

	for _, entry := range entries {
		updated := "Never"
		if entry.RenderedAt != nil {
			updated = entry.RenderedAt.Format(time.RFC1123Z)
		}
		out.add(
			"<tr>",
			"<td>"+anchor(entry.File, entry.Title)+"</td>",
			"<td>"+strconv.Itoa(entry.Items)+"</td>",
			"<td>"+html.EscapeString(updated)+"</td>",
			"</tr>",
		)
	}

	writeFooter(&out)
	return out.String()
}
