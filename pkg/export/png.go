package export

import (
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// WritePNG rasterizes the same diagram as WriteSVG.
func WritePNG(w io.Writer, root *model.BlockTreeNode, highlight string) error {
	rows, width, height := layoutTree(root)

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#282A36")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor("#44475A")
	dc.SetLineWidth(1)
	for _, r := range rows {
		if r.ParentIdx < 0 {
			continue
		}
		p := rows[r.ParentIdx]
		dc.MoveTo(p.X+5, p.Y+5)
		dc.LineTo(p.X+5, r.Y)
		dc.LineTo(r.X, r.Y)
		dc.Stroke()
	}

	for _, r := range rows {
		dc.SetHexColor(typeColor(r.Node.Type))
		dc.DrawCircle(r.X+5, r.Y, 5)
		dc.Fill()
		if r.Node.ID == highlight {
			dc.SetHexColor("#F8F8F2")
			dc.SetLineWidth(2)
			dc.DrawCircle(r.X+5, r.Y, 6)
			dc.Stroke()
			dc.SetLineWidth(1)
		}
		dc.SetHexColor("#F8F8F2")
		dc.DrawString(r.Label, r.X+14, r.Y+4)
	}

	return dc.EncodePNG(w)
}
