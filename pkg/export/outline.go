// Package export renders a course block tree as outlines, diagrams and a
// local preview site.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/analysis"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// OutlineNode is the serializable form of a tree node.
type OutlineNode struct {
	ID          string         `json:"id" yaml:"id"`
	Type        string         `json:"type" yaml:"type"`
	DisplayName string         `json:"display_name" yaml:"display_name"`
	LMSWebURL   string         `json:"lms_web_url,omitempty" yaml:"lms_web_url,omitempty"`
	Graded      bool           `json:"graded,omitempty" yaml:"graded,omitempty"`
	Children    []*OutlineNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Outline is a whole export: the tree plus its statistics.
type Outline struct {
	CourseID string             `json:"course_id,omitempty" yaml:"course_id,omitempty"`
	Stats    analysis.TreeStats `json:"stats" yaml:"stats"`
	Root     *OutlineNode       `json:"root" yaml:"root"`
}

// NewOutline converts a tree into its serializable form
func NewOutline(courseID string, root *model.BlockTreeNode) *Outline {
	return &Outline{
		CourseID: courseID,
		Stats:    analysis.Compute(root),
		Root:     toOutline(root),
	}
}

func toOutline(n *model.BlockTreeNode) *OutlineNode {
	if n == nil {
		return nil
	}
	out := &OutlineNode{
		ID:          n.ID,
		Type:        string(n.Type),
		DisplayName: n.DisplayName,
		LMSWebURL:   n.LMSWebURL,
		Graded:      n.Graded,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toOutline(c))
	}
	return out
}

// WriteJSON writes the outline as indented JSON
func (o *Outline) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(o)
}

// WriteYAML writes the outline as YAML
func (o *Outline) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(o); err != nil {
		return err
	}
	return enc.Close()
}

// Markdown renders the outline as a nested bullet list under a heading
func (o *Outline) Markdown() string {
	var b strings.Builder
	if o.Root == nil {
		b.WriteString("_No blocks._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "# %s\n\n", mdEscape(title(o.Root)))
	if o.CourseID != "" {
		fmt.Fprintf(&b, "`%s`\n\n", o.CourseID)
	}
	fmt.Fprintf(&b, "%s, depth %d\n\n", o.Stats.Summary(), o.Stats.MaxDepth)
	for _, c := range o.Root.Children {
		writeMarkdownNode(&b, c, 0)
	}
	return b.String()
}

func writeMarkdownNode(b *strings.Builder, n *OutlineNode, depth int) {
	label := mdEscape(title(n))
	if n.LMSWebURL != "" {
		label = fmt.Sprintf("[%s](%s)", label, n.LMSWebURL)
	}
	graded := ""
	if n.Graded {
		graded = " (graded)"
	}
	fmt.Fprintf(b, "%s- **%s** %s%s  \n%s  `%s`\n",
		strings.Repeat("  ", depth), model.BlockType(n.Type).Label(), label, graded,
		strings.Repeat("  ", depth), n.ID)
	for _, c := range n.Children {
		writeMarkdownNode(b, c, depth+1)
	}
}

func title(n *OutlineNode) string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.ID
}

var mdReplacer = strings.NewReplacer("*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
