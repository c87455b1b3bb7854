package canopy

import (
	"image"
	"math"
)

// PixelBuffer is a software raster surface. Every Node owns exactly one, and
// every Camera owns one for its output. Pixels are stored premultiplied-alpha
// RGBA (the image.RGBA convention); all primitives blend source-over except
// where noted.
type PixelBuffer struct {
	rgba *image.RGBA
	w, h int
}

// NewPixelBuffer creates a transparent buffer of the given size.
// Dimensions are clamped to a minimum of 1x1.
func NewPixelBuffer(w, h int) *PixelBuffer {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &PixelBuffer{
		rgba: image.NewRGBA(image.Rect(0, 0, w, h)),
		w:    w,
		h:    h,
	}
}

// Width returns the buffer width in pixels.
func (b *PixelBuffer) Width() int { return b.w }

// Height returns the buffer height in pixels.
func (b *PixelBuffer) Height() int { return b.h }

// Bounds returns the buffer extent as a Rect at the origin.
func (b *PixelBuffer) Bounds() Rect {
	return Rect{Width: float64(b.w), Height: float64(b.h)}
}

// RGBA returns the backing image. The caller must not resize it;
// pixel-level reads and writes are fine.
func (b *PixelBuffer) RGBA() *image.RGBA { return b.rgba }

// Resize reallocates the backing store at the new dimensions. Prior contents
// are discarded; callers must redraw.
func (b *PixelBuffer) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	b.rgba = image.NewRGBA(image.Rect(0, 0, w, h))
	b.w = w
	b.h = h
}

// Intersects reports whether the given rect overlaps this buffer's bounds.
// Used by the compositor to cull off-buffer nodes before any transform work.
func (b *PixelBuffer) Intersects(r Rect) bool {
	return b.Bounds().Intersects(r)
}

// Clear fills the buffer with transparent black.
func (b *PixelBuffer) Clear() {
	pix := b.rgba.Pix
	for i := range pix {
		pix[i] = 0
	}
}

// Fill fills the entire buffer with the given color (opaque copy, no blending).
func (b *PixelBuffer) Fill(c Color) {
	pr, pg, pb, pa := c.premul()
	pix := b.rgba.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = pr
		pix[i+1] = pg
		pix[i+2] = pb
		pix[i+3] = pa
	}
}

// premul converts a Color to premultiplied 8-bit components.
func (c Color) premul() (r, g, b, a uint8) {
	a8 := clamp01(c.A)
	return uint8(clamp01(c.R*a8)*255 + 0.5),
		uint8(clamp01(c.G*a8)*255 + 0.5),
		uint8(clamp01(c.B*a8)*255 + 0.5),
		uint8(a8*255 + 0.5)
}

// blendPixel composites one premultiplied source pixel over the destination
// at byte offset i. No bounds checking.
func (b *PixelBuffer) blendPixel(i int, sr, sg, sb, sa uint32) {
	if sa == 0 {
		return
	}
	pix := b.rgba.Pix
	if sa == 255 {
		pix[i] = uint8(sr)
		pix[i+1] = uint8(sg)
		pix[i+2] = uint8(sb)
		pix[i+3] = 255
		return
	}
	inv := 255 - sa
	pix[i] = uint8(sr + uint32(pix[i])*inv/255)
	pix[i+1] = uint8(sg + uint32(pix[i+1])*inv/255)
	pix[i+2] = uint8(sb + uint32(pix[i+2])*inv/255)
	pix[i+3] = uint8(sa + uint32(pix[i+3])*inv/255)
}

// SetPixel blends the color at integer coordinates. Out-of-bounds is a no-op.
func (b *PixelBuffer) SetPixel(x, y int, c Color) {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return
	}
	pr, pg, pb, pa := c.premul()
	b.blendPixel(b.rgba.PixOffset(x, y), uint32(pr), uint32(pg), uint32(pb), uint32(pa))
}

// clipSpan clamps [v, v+n) to [0, limit) and returns the new start and length.
func clipSpan(v, n, limit int) (int, int) {
	if v < 0 {
		n += v
		v = 0
	}
	if v+n > limit {
		n = limit - v
	}
	if n < 0 {
		n = 0
	}
	return v, n
}

// FillRect fills an axis-aligned rectangle, clipped to the buffer.
func (b *PixelBuffer) FillRect(r Rect, c Color) {
	x0, w := clipSpan(int(math.Floor(r.X)), int(math.Ceil(r.Width)), b.w)
	y0, h := clipSpan(int(math.Floor(r.Y)), int(math.Ceil(r.Height)), b.h)
	if w == 0 || h == 0 {
		return
	}
	pr, pg, pb, pa := c.premul()
	sr, sg, sb, sa := uint32(pr), uint32(pg), uint32(pb), uint32(pa)
	for y := y0; y < y0+h; y++ {
		i := b.rgba.PixOffset(x0, y)
		for x := 0; x < w; x++ {
			b.blendPixel(i, sr, sg, sb, sa)
			i += 4
		}
	}
}

// StrokeRect draws a one-pixel outline of the rectangle, clipped to the buffer.
func (b *PixelBuffer) StrokeRect(r Rect, c Color) {
	x0 := int(math.Floor(r.X))
	y0 := int(math.Floor(r.Y))
	x1 := x0 + int(math.Ceil(r.Width)) - 1
	y1 := y0 + int(math.Ceil(r.Height)) - 1
	if x1 < x0 || y1 < y0 {
		return
	}
	b.Line(x0, y0, x1, y0, c)
	if y1 > y0 {
		b.Line(x0, y1, x1, y1, c)
	}
	if y1 > y0+1 {
		b.Line(x0, y0+1, x0, y1-1, c)
		if x1 > x0 {
			b.Line(x1, y0+1, x1, y1-1, c)
		}
	}
}

// Line draws a one-pixel line between two points using Bresenham's algorithm.
func (b *PixelBuffer) Line(x0, y0, x1, y1 int, c Color) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy < 0 {
		dy = -dy
	}
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		b.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Arc strokes a circular arc centered at (cx, cy) from startDeg to endDeg
// (clockwise, degrees). A full circle is startDeg=0, endDeg=360.
func (b *PixelBuffer) Arc(cx, cy, radius float64, startDeg, endDeg float64, c Color) {
	if radius <= 0 {
		return
	}
	// Step small enough that adjacent samples land on neighboring pixels.
	step := 1.0 / radius
	a0 := startDeg * math.Pi / 180
	a1 := endDeg * math.Pi / 180
	if a1 < a0 {
		a0, a1 = a1, a0
	}
	px, py := math.MaxInt32, math.MaxInt32
	last := false
	for a := a0; !last; a += step {
		if a >= a1 {
			a = a1
			last = true
		}
		x := int(math.Round(cx + radius*math.Cos(a)))
		y := int(math.Round(cy + radius*math.Sin(a)))
		if x == px && y == py {
			continue
		}
		b.SetPixel(x, y, c)
		px, py = x, y
	}
}

// BlitOptions controls how Blit transforms the source sub-rect.
// The zero value is a plain 1:1 copy at full opacity.
type BlitOptions struct {
	// FlipX and FlipY mirror the source around its pivot.
	FlipX, FlipY bool
	// Rotation is clockwise, in degrees, around the pivot.
	Rotation float64
	// PivotX and PivotY are in source-local pixels (relative to SrcRect's
	// top-left corner).
	PivotX, PivotY float64
	// Transparency fades the source: 0 draws at full opacity (so the zero
	// value of BlitOptions draws normally), 1 draws nothing.
	Transparency float64
}

// Blit composites a sub-rectangle of src onto this buffer with the
// destination's top-left at (dstX, dstY), applying in order: translate to
// pivot, flip, rotation, translate back, alpha.
func (b *PixelBuffer) Blit(src *image.RGBA, srcRect image.Rectangle, dstX, dstY float64, opts BlitOptions) {
	srcRect = srcRect.Intersect(src.Bounds())
	if srcRect.Empty() {
		return
	}
	alpha := clamp01(1 - opts.Transparency)
	if alpha == 0 {
		return
	}
	if !opts.FlipX && !opts.FlipY && opts.Rotation == 0 {
		b.blitFast(src, srcRect, int(math.Round(dstX)), int(math.Round(dstY)), alpha)
		return
	}
	b.blitTransformed(src, srcRect, dstX, dstY, opts, alpha)
}

// blitFast is the axis-aligned path: row-wise source-over copy.
func (b *PixelBuffer) blitFast(src *image.RGBA, srcRect image.Rectangle, dx, dy int, alpha float64) {
	w := srcRect.Dx()
	h := srcRect.Dy()
	sx0 := srcRect.Min.X
	sy0 := srcRect.Min.Y

	// Clip destination span; shift the source origin by the same amount.
	cx, cw := clipSpan(dx, w, b.w)
	cy, ch := clipSpan(dy, h, b.h)
	if cw == 0 || ch == 0 {
		return
	}
	sx0 += cx - dx
	sy0 += cy - dy

	am := uint32(alpha*255 + 0.5)
	for row := 0; row < ch; row++ {
		si := src.PixOffset(sx0, sy0+row)
		di := b.rgba.PixOffset(cx, cy+row)
		for col := 0; col < cw; col++ {
			sr := uint32(src.Pix[si]) * am / 255
			sg := uint32(src.Pix[si+1]) * am / 255
			sb := uint32(src.Pix[si+2]) * am / 255
			sa := uint32(src.Pix[si+3]) * am / 255
			b.blendPixel(di, sr, sg, sb, sa)
			si += 4
			di += 4
		}
	}
}

// blitTransformed inverse-maps each destination pixel through the flip and
// rotation transform, sampling the source nearest-neighbor.
func (b *PixelBuffer) blitTransformed(src *image.RGBA, srcRect image.Rectangle, dstX, dstY float64, opts BlitOptions, alpha float64) {
	w := float64(srcRect.Dx())
	h := float64(srcRect.Dy())
	px := opts.PivotX
	py := opts.PivotY

	rad := opts.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)
	fx, fy := 1.0, 1.0
	if opts.FlipX {
		fx = -1
	}
	if opts.FlipY {
		fy = -1
	}

	// Forward: q = R * F * (p - pivot) + pivot + dst.
	fwd := func(x, y float64) (float64, float64) {
		lx := (x - px) * fx
		ly := (y - py) * fy
		return cos*lx - sin*ly + px + dstX,
			sin*lx + cos*ly + py + dstY
	}

	// Destination AABB from the four transformed source corners.
	x0, y0 := fwd(0, 0)
	x1, y1 := fwd(w, 0)
	x2, y2 := fwd(w, h)
	x3, y3 := fwd(0, h)
	minX := int(math.Floor(math.Min(math.Min(x0, x1), math.Min(x2, x3))))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), math.Min(y2, y3))))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), math.Max(x2, x3))))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), math.Max(y2, y3))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > b.w {
		maxX = b.w
	}
	if maxY > b.h {
		maxY = b.h
	}

	am := uint32(alpha*255 + 0.5)
	for dy := minY; dy < maxY; dy++ {
		for dx := minX; dx < maxX; dx++ {
			// Inverse: p = F * Rᵀ * (q - dst - pivot) + pivot.
			qx := float64(dx) + 0.5 - dstX - px
			qy := float64(dy) + 0.5 - dstY - py
			sx := (cos*qx + sin*qy) * fx
			sy := (-sin*qx + cos*qy) * fy
			sxi := int(math.Floor(sx + px))
			syi := int(math.Floor(sy + py))
			if sxi < 0 || syi < 0 || sxi >= int(w) || syi >= int(h) {
				continue
			}
			si := src.PixOffset(srcRect.Min.X+sxi, srcRect.Min.Y+syi)
			sr := uint32(src.Pix[si]) * am / 255
			sg := uint32(src.Pix[si+1]) * am / 255
			sb := uint32(src.Pix[si+2]) * am / 255
			sa := uint32(src.Pix[si+3]) * am / 255
			b.blendPixel(b.rgba.PixOffset(dx, dy), sr, sg, sb, sa)
		}
	}
}

// TileFill repeats a sub-rectangle of src over the given region of this
// buffer, clipping partial tiles at the region's right and bottom edges.
func (b *PixelBuffer) TileFill(src *image.RGBA, srcRect image.Rectangle, region Rect) {
	srcRect = srcRect.Intersect(src.Bounds())
	tw := srcRect.Dx()
	th := srcRect.Dy()
	if tw == 0 || th == 0 || region.Width <= 0 || region.Height <= 0 {
		return
	}
	rx := int(math.Floor(region.X))
	ry := int(math.Floor(region.Y))
	rw := int(math.Ceil(region.Width))
	rh := int(math.Ceil(region.Height))
	for y := 0; y < rh; y += th {
		sh := th
		if y+sh > rh {
			sh = rh - y
		}
		for x := 0; x < rw; x += tw {
			sw := tw
			if x+sw > rw {
				sw = rw - x
			}
			clipped := image.Rect(srcRect.Min.X, srcRect.Min.Y, srcRect.Min.X+sw, srcRect.Min.Y+sh)
			b.blitFast(src, clipped, rx+x, ry+y, 1)
		}
	}
}
