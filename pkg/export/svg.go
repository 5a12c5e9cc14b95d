package export

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// WriteSVG draws the tree as an indented diagram with elbow connectors.
// The node matching highlight, if any, is outlined.
func WriteSVG(w io.Writer, root *model.BlockTreeNode, highlight string) error {
	rows, width, height := layoutTree(root)

	cw := &countingWriter{w: w}
	canvas := svg.New(cw)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#282A36")

	for _, r := range rows {
		if r.ParentIdx < 0 {
			continue
		}
		p := rows[r.ParentIdx]
		px, py := int(p.X)+5, int(p.Y)
		cx, cy := int(r.X), int(r.Y)
		canvas.Polyline([]int{px, px, cx}, []int{py + 5, cy, cy}, "fill:none;stroke:#44475A;stroke-width:1")
	}

	for _, r := range rows {
		x, y := int(r.X), int(r.Y)
		style := fmt.Sprintf("fill:%s", typeColor(r.Node.Type))
		if r.Node.ID == highlight {
			style += ";stroke:#F8F8F2;stroke-width:2"
		}
		canvas.Circle(x+5, y, 5, style)
		canvas.Text(x+14, y+4, r.Label, "font-family:monospace;font-size:12px;fill:#F8F8F2")
	}

	canvas.End()
	return cw.err
}

// countingWriter remembers the first write error; svgo ignores them.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
