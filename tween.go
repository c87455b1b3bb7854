package canopy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to four float64 properties on a Node
// simultaneously. Create one via the convenience constructors (TweenPosition,
// TweenAlpha, TweenRotation) and call Update(step) each tick from an update
// hook. The group writes through the node's setters, so cache invalidation
// happens automatically. If the target node is disposed, the group stops.
//
// There is no global animation manager — callers drive Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(n *Node, vals [4]float64)
	vals   [4]float64
	target *Node
	Done   bool
}

// Update advances all tweens by step milliseconds and applies the values to
// the target node. If the target has been disposed, Done is set and no
// writes occur.
func (g *TweenGroup) Update(step float64) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(float32(step))
		g.vals[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(g.target, g.vals)
}

// TweenPosition animates the node's position to (toX, toY) over duration
// milliseconds. Only ancestor composites are invalidated per write, matching
// SetPosition.
func TweenPosition(node *Node, toX, toY, duration float64, fn ease.TweenFunc) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.x), float32(toX), float32(duration), fn)
	g.tweens[1] = gween.New(float32(node.y), float32(toY), float32(duration), fn)
	g.apply = func(n *Node, vals [4]float64) { n.SetPosition(vals[0], vals[1]) }
	return g
}

// TweenAlpha animates the node's opacity to the target value over duration
// milliseconds.
func TweenAlpha(node *Node, to, duration float64, fn ease.TweenFunc) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.alpha), float32(clamp01(to)), float32(duration), fn)
	g.apply = func(n *Node, vals [4]float64) { n.SetAlpha(vals[0]) }
	return g
}

// TweenRotation animates the node's rotation to the target angle (degrees)
// over duration milliseconds.
func TweenRotation(node *Node, toDeg, duration float64, fn ease.TweenFunc) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.rotation), float32(toDeg), float32(duration), fn)
	g.apply = func(n *Node, vals [4]float64) { n.SetRotation(vals[0]) }
	return g
}
