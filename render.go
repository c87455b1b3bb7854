package canopy

import "image"

// redrawCounter counts full buffer redraws. Single-threaded, so a plain
// package counter is enough; tests use it to verify that a clean render
// pass performs no work.
var redrawCounter uint64

// frame computes the node's transient Frame for this composite pass:
// where the node lands in its parent's buffer (Dest) and which
// sub-rectangle of its own buffer to blit (Clip). For tile-backed nodes the
// clip cell is derived from the current frame index and the texture's
// column count.
func (n *Node) frame() Frame {
	if n.tileW > 0 && n.texture != nil {
		cols := n.texture.Width() / n.tileW
		if cols < 1 {
			cols = 1
		}
		col := n.frameIndex % cols
		row := n.frameIndex / cols
		clip := Rect{
			X:      float64(col * n.tileW),
			Y:      float64(row * n.tileH),
			Width:  float64(n.tileW),
			Height: float64(n.tileH),
		}
		return Frame{
			Dest: Rect{X: n.x, Y: n.y, Width: clip.Width, Height: clip.Height},
			Clip: clip,
		}
	}
	var w, h float64
	if n.buffer != nil {
		w = float64(n.buffer.Width())
		h = float64(n.buffer.Height())
	}
	return Frame{
		Dest: Rect{X: n.x, Y: n.y, Width: w, Height: h},
		Clip: Rect{Width: w, Height: h},
	}
}

// Render brings the node's buffer up to date. It returns immediately when
// the cache-valid flag is set; otherwise the buffer is fully redrawn — the
// node's own visuals first, then every visible child composited in z-order
// — and the flag is set. Children refresh their own buffers recursively, so
// a render pass touches only the invalidated spine of the tree.
func (n *Node) Render() {
	if n.disposed || n.buffer == nil {
		return
	}
	// An invalid descendant under a valid node cannot exist (invalidation
	// propagates upward), so a valid flag means the whole subtree is current.
	if n.cacheValid {
		return
	}
	n.redraw()
	n.cacheValid = true
}

func (n *Node) redraw() {
	redrawCounter++
	n.buffer.Clear()

	if n.texture != nil {
		n.buffer.Blit(n.texture.Data(), n.texture.Data().Bounds(), 0, 0, BlitOptions{})
	}
	if n.OnDraw != nil {
		n.OnDraw(n.buffer)
	}

	for _, child := range n.children {
		child.Render()
		if !child.composited() {
			continue
		}
		n.compositeChild(child)
	}
}

// compositeChild renders child into this node's buffer: compute the Frame,
// cull if it misses the buffer entirely (skipping all transform and blit
// cost), otherwise blit the clip sub-rect with pivot, flip, rotation, and
// alpha applied. Debug outlines are stroked after normal compositing.
func (n *Node) compositeChild(child *Node) {
	if child.alpha == 0 {
		return
	}
	f := child.frame()
	if !n.buffer.Intersects(f.Dest) {
		return
	}

	clip := image.Rect(
		int(f.Clip.X), int(f.Clip.Y),
		int(f.Clip.X+f.Clip.Width), int(f.Clip.Y+f.Clip.Height),
	)
	n.buffer.Blit(child.buffer.RGBA(), clip, f.Dest.X, f.Dest.Y, BlitOptions{
		FlipX:        child.flipX,
		FlipY:        child.flipY,
		Rotation:     child.rotation,
		PivotX:       child.pivotX,
		PivotY:       child.pivotY,
		Transparency: 1 - child.alpha,
	})

	if child.Debug {
		n.buffer.StrokeRect(f.Dest, debugBoundsColor)
		if child.DebugHit {
			hit := child.HitRegion
			hit.X += f.Dest.X
			hit.Y += f.Dest.Y
			n.buffer.StrokeRect(hit, debugHitColor)
		}
	}
}
