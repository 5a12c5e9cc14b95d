package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// Format names an export output.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
	FormatHTML     Format = "html"
)

// AllFormats lists every format a bundle can contain.
var AllFormats = []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatSVG, FormatPNG, FormatHTML}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	if f == "markdown" {
		return FormatMarkdown, nil
	}
	for _, known := range AllFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// FileName returns the bundle file a format is written to
func (f Format) FileName() string {
	switch f {
	case FormatJSON:
		return "outline.json"
	case FormatYAML:
		return "outline.yaml"
	case FormatMarkdown:
		return "outline.md"
	case FormatSVG:
		return "tree.svg"
	case FormatPNG:
		return "tree.png"
	case FormatHTML:
		return "index.html"
	}
	return string(f)
}

// ContentType returns the MIME type served for a format
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// Bundle is a rendered set of export files, keyed by file name.
type Bundle struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// Render produces the requested formats concurrently. Every format is
// attempted; failures are combined into one error.
func Render(courseID string, root *model.BlockTreeNode, highlight string, formats []Format) (*Bundle, error) {
	if root == nil {
		return nil, fmt.Errorf("nothing to export: block tree is empty")
	}
	if len(formats) == 0 {
		formats = AllFormats
	}

	outline := NewOutline(courseID, root)
	b := &Bundle{files: make(map[string][]byte, len(formats))}

	// errgroup.Wait reports only the first failure; errs keeps them all.
	var g errgroup.Group
	errs := make([]error, len(formats))
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			var buf bytes.Buffer
			if err := renderFormat(&buf, f, outline, root, highlight, formats); err != nil {
				errs[i] = fmt.Errorf("render %s: %w", f, err)
				return errs[i]
			}
			b.put(f.FileName(), buf.Bytes())
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return b, nil
	}
	return b, multierr.Combine(errs...)
}

func renderFormat(w io.Writer, f Format, outline *Outline, root *model.BlockTreeNode, highlight string, formats []Format) error {
	switch f {
	case FormatJSON:
		return outline.WriteJSON(w)
	case FormatYAML:
		return outline.WriteYAML(w)
	case FormatMarkdown:
		_, err := io.WriteString(w, outline.Markdown())
		return err
	case FormatSVG:
		return WriteSVG(w, root, highlight)
	case FormatPNG:
		return WritePNG(w, root, highlight)
	case FormatHTML:
		return writeIndex(w, outline, formats)
	}
	return fmt.Errorf("unknown export format %q", f)
}

func (b *Bundle) put(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = data
}

// File returns the contents of a bundle file
func (b *Bundle) File(name string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.files[name]
	return data, ok
}

// Names returns the bundle's file names, sorted
func (b *Bundle) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.files))
	for name := range b.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteDir writes every file in the bundle into dir, creating it if needed
func (b *Bundle) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	var errAll error
	for _, name := range b.Names() {
		data, _ := b.File(name)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			errAll = multierr.Append(errAll, fmt.Errorf("write %s: %w", name, err))
		}
	}
	return errAll
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #282A36; color: #F8F8F2; font-family: monospace; margin: 2em; }
a { color: #8BE9FD; }
code { color: #6272A4; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .CourseID}}<p><code>{{.CourseID}}</code></p>{{end}}
<p>{{.Summary}}, depth {{.Depth}}</p>
{{if .Links}}<p>{{range $i, $l := .Links}}{{if $i}} · {{end}}<a href="{{$l.Href}}">{{$l.Label}}</a>{{end}}</p>{{end}}
{{if .SVG}}<object data="tree.svg" type="image/svg+xml"></object>{{end}}
</body>
</html>
`))

type indexLink struct {
	Label string
	Href  string
}

var linkLabels = map[Format]string{
	FormatJSON:     "JSON",
	FormatYAML:     "YAML",
	FormatMarkdown: "Markdown",
	FormatPNG:      "PNG",
}

// writeIndex links only the formats rendered alongside the index.
func writeIndex(w io.Writer, o *Outline, formats []Format) error {
	data := struct {
		Title    string
		CourseID string
		Summary  string
		Depth    int
		Links    []indexLink
		SVG      bool
	}{
		Title:    title(o.Root),
		CourseID: o.CourseID,
		Summary:  o.Stats.Summary(),
		Depth:    o.Stats.MaxDepth,
	}
	for _, f := range formats {
		if label, ok := linkLabels[f]; ok {
			data.Links = append(data.Links, indexLink{Label: label, Href: f.FileName()})
		}
		if f == FormatSVG {
			data.SVG = true
		}
	}
	return indexTemplate.Execute(w, data)
}
