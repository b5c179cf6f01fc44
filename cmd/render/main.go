// Command render converts a single RSS 2.0 feed into a static HTML page.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jessevdk/go-flags"
	"github.com/lysyi3m/rss-page/app/feed"
	"github.com/lysyi3m/rss-page/app/page"
	"github.com/lysyi3m/rss-page/app/sink"
	"github.com/lysyi3m/rss-page/app/xmltree"
	"github.com/spf13/afero"
)

const (
	exitFailure  = 1
	exitNoOutput = 2
)

type options struct {
	URL              string `long:"url" required:"true" description:"Feed location: local path, file:// or http(s):// URL"`
	Name             string `long:"name" default:"feed" description:"Feed name, used for the default output file"`
	Out              string `long:"out" description:"Output file name (default: <name>.html)"`
	OutputDir        string `long:"output-dir" default:"." description:"Directory the page is written to"`
	LinklessHeadline string `long:"linkless-headline" default:"source" choice:"source" choice:"text" description:"Headline of items without a link"`
	Timeout          int    `long:"timeout" default:"30" description:"Fetch timeout in seconds"`
	UserAgent        string `long:"user-agent" default:"RSS Page/1.0" description:"User agent string for HTTP requests"`
	Debug            bool   `long:"debug" description:"Enable debug logging"`
}

type summary struct {
	Name   string
	Kind   string
	Status page.Status
	Reason string
	Title  string
	Items  int
	Path   string
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(exitFailure)
	}

	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	fs := afero.NewOsFs()
	fetcher := feed.NewFetcher(&http.Client{}, fs, opts.UserAgent)

	s, err := run(context.Background(), opts, fetcher, sink.NewFileSink(fs, opts.OutputDir))
	printSummary(os.Stdout, s, err)

	switch {
	case err != nil:
		os.Exit(exitFailure)
	case s.Status == page.StatusNoOutput:
		os.Exit(exitNoOutput)
	}
}

func run(ctx context.Context, opts options, fetcher *feed.Fetcher, out *sink.FileSink) (summary, error) {
	file := opts.Out
	if file == "" {
		file = opts.Name + ".html"
	}
	s := summary{Name: opts.Name, Path: out.Path(file)}

	data, err := fetcher.Run(ctx, opts.URL, time.Duration(opts.Timeout)*time.Second)
	if err != nil {
		return s, err
	}
	s.Kind = feed.DetectKind(data)

	root, err := xmltree.NewParser().Run(data)
	if err != nil {
		return s, fmt.Errorf("failed to parse feed: %w", err)
	}

	renderer := page.NewRenderer(page.WithLinklessHeadline(page.LinklessHeadline(opts.LinklessHeadline)))
	result, err := renderer.Run(root)
	if err != nil {
		return s, fmt.Errorf("failed to render feed: %w", err)
	}

	s.Status = result.Status
	s.Reason = result.Reason
	s.Title = result.Title
	s.Items = result.Items
	if result.Status == page.StatusNoOutput {
		return s, nil
	}

	if err := out.Write(file, result.HTML); err != nil {
		return s, err
	}

	slog.Debug("Page written", "path", s.Path, "items", s.Items)
	return s, nil
}

func printSummary(w io.Writer, s summary, err error) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Feed", "Kind", "Status", "Title", "Items", "Output"})

	status := s.Status.String()
	output := s.Path
	switch {
	case err != nil:
		status = "failed"
		output = err.Error()
	case s.Status == page.StatusNoOutput:
		output = s.Reason
	}

	t.AppendRow(table.Row{s.Name, orDash(s.Kind), status, orDash(s.Title), strconv.Itoa(s.Items), output})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
