package vm

// display.go is the text renderer (§4.H): it rasterises the 64-cell text
// buffer through the 8x8 font into the framebuffer, then blits the result
// to a host surface.

// Surface is the host collaborator the renderer draws through (§6): a
// rectangle clear, a two-colour palette select, and single-pixel fills.
// The host owns the actual canvas; FRAME never touches it directly.
type Surface interface {
	ClearRect(x0, y0, x1, y1 int)
	SetColor(on bool)
	FillPixel(x, y int)
}

// textCols/textRows/cellSize describe the 64-cell, 8x8-glyph text grid
// (§3, §4.H).
const (
	textCols = 8
	textRows = 8
	cellSize = 8

	framebufferDim = textCols * cellSize // 64
)

// Renderer rasterises the text buffer into the framebuffer and, if a
// Surface is attached, blits it.
type Renderer struct {
	Surface Surface
}

// Render reads the 64 text cells, rasterises each through its glyph into
// the framebuffer region of mem, and blits "on" pixels to the attached
// surface, if any (§4.H).
func (r *Renderer) Render(mem *Memory) {
	if r.Surface != nil {
		r.Surface.ClearRect(0, 0, framebufferDim-1, framebufferDim-1)
		r.Surface.SetColor(true)
	}

	for cell := 0; cell < textCols*textRows; cell++ {
		ch := mem.Read(uint16(TextBufferStart + cell))
		glyphBase := uint16(FontStart) + uint16(ch)*cellSize

		cellX := cell % textCols
		cellY := cell / textCols

		for row := 0; row < cellSize; row++ {
			rowBits := mem.Read(glyphBase + uint16(row))
			py := cellY*cellSize + row

			for col := 0; col < cellSize; col++ {
				on := rowBits&(0x80>>uint(col)) != 0
				px := cellX*cellSize + col

				fbAddr := uint16(FramebufferStart) + uint16(py*framebufferDim+px)
				mem.Write(fbAddr, boolToByte(on))

				if on && r.Surface != nil {
					r.Surface.FillPixel(px, py)
				}
			}
		}
	}
}
