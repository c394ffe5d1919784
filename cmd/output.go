package cmd

import (
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"go.yaml.in/yaml/v3"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

const (
	formatText  = "text"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

var (
	pathColor = color.New(color.FgCyan, color.Bold)
	urlColor  = color.New(color.Faint)
	warnColor = color.New(color.FgYellow)
)

// printer writes repositories as they arrive. Flush is called once after the
// last one.
type printer interface {
	Print(r discovery.Repository) error
	Flush() error
}

func newPrinter(format string, w io.Writer) (printer, error) {
	switch format {
	case formatText, "":
		return &textPrinter{w: w}, nil
	case formatJSON:
		return &jsonPrinter{enc: json.NewEncoder(w)}, nil
	case formatYAML:
		return &yamlPrinter{enc: yaml.NewEncoder(w)}, nil
	case formatTable:
		return &tablePrinter{w: w}, nil
	default:
		return nil, gmerrors.Newf("unknown format %q (want text, json, yaml or table)", format)
	}
}

type textPrinter struct {
	w io.Writer
}

func (p *textPrinter) Print(r discovery.Repository) error {
	if _, err := pathColor.Fprint(p.w, r.Path); err != nil {
		return err
	}
	for _, remote := range r.Remotes {
		if _, err := urlColor.Fprint(p.w, "  "+remote.URL); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.w, "\n")
	return err
}

func (p *textPrinter) Flush() error { return nil }

type jsonPrinter struct {
	enc *json.Encoder
}

func (p *jsonPrinter) Print(r discovery.Repository) error {
	if r.Remotes == nil {
		r.Remotes = []discovery.Remote{}
	}
	return p.enc.Encode(r)
}

func (p *jsonPrinter) Flush() error { return nil }

type yamlPrinter struct {
	enc *yaml.Encoder
}

func (p *yamlPrinter) Print(r discovery.Repository) error {
	if r.Remotes == nil {
		r.Remotes = []discovery.Remote{}
	}
	return p.enc.Encode(r)
}

func (p *yamlPrinter) Flush() error { return p.enc.Close() }

// tablePrinter buffers rows; column widths depend on every row.
type tablePrinter struct {
	w    io.Writer
	rows [][]string
}

func (p *tablePrinter) Print(r discovery.Repository) error {
	urls := make([]string, 0, len(r.Remotes))
	for _, remote := range r.Remotes {
		urls = append(urls, remote.URL)
	}
	p.rows = append(p.rows, []string{r.Path, r.Backend, strconv.Itoa(len(r.Remotes)), strings.Join(urls, " ")})
	return nil
}

func (p *tablePrinter) Flush() error {
	table := tablewriter.NewWriter(p.w)
	table.Header("Path", "Backend", "Remotes", "URLs")
	for _, row := range p.rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
