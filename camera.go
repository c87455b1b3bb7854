package canopy

import (
	"image"
	"math"
	"math/rand"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	xdraw "golang.org/x/image/draw"
)

// Zoom limits. Setting a zoom outside this range clamps silently.
const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// DefaultShakeAmount is the conventional shake amplitude in pixels.
const DefaultShakeAmount = 5

// randFloat is the random source for shake offsets. Package-level so tests
// can substitute a deterministic function (canopy is single-threaded).
var randFloat = rand.Float64

// shakeState drives the camera shake effect: idle until started, then a new
// random offset every update until the duration runs out.
type shakeState struct {
	active     bool
	duration   float64
	remaining  float64
	amountX    float64
	amountY    float64
	easing     bool
	offsetX    float64
	offsetY    float64
	onComplete func()
}

// tintState drives the fade/flash overlay. Opacity is interpolated by a
// gween tween; setting opacity directly cancels it.
type tintState struct {
	color   Color
	opacity float64
	tween   *gween.Tween
	onDone  func()
}

// scrollAnim holds active scroll-to tweens for camera scroll X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is an independent rectangular viewport rendering a root container
// into its own buffer. The viewport rect is screen-space placement only;
// ScrollX/ScrollY pan the view across the world. Multiple cameras may render
// the same container simultaneously, each into its own buffer, with no
// shared mutable render state.
type Camera struct {
	// Viewport is the screen-space rectangle this camera's output occupies.
	Viewport Rect
	// ScrollX and ScrollY are the world coordinates of the view's top-left
	// corner. Freely assignable while the target list is empty; target
	// follow overwrites them each update.
	ScrollX, ScrollY float64
	// Active cameras are updated and rendered by the CameraManager each tick.
	Active bool

	zoom    float64
	buffer  *PixelBuffer
	shake   shakeState
	tint    tintState
	scroll  *scrollAnim
	targets []*Node

	bounds    Rect
	hasBounds bool
}

// NewCamera creates an active camera with zoom 1.0 and a buffer matching the
// viewport dimensions.
func NewCamera(viewport Rect) *Camera {
	c := &Camera{
		Viewport: viewport,
		Active:   true,
		zoom:     1.0,
	}
	c.tint.color = ColorBlack
	c.buffer = NewPixelBuffer(int(viewport.Width), int(viewport.Height))
	return c
}

// Buffer returns the camera's output buffer. Its dimensions are always
// viewport size divided by zoom.
func (c *Camera) Buffer() *PixelBuffer { return c.buffer }

// ViewWidth returns the width of the addressable pixel grid at the current
// zoom. Read-only: the value is derived from the output buffer, which only
// SetViewport and SetZoom resize.
func (c *Camera) ViewWidth() int { return c.buffer.Width() }

// ViewHeight returns the height of the addressable pixel grid at the
// current zoom. Read-only, like ViewWidth.
func (c *Camera) ViewHeight() int { return c.buffer.Height() }

// Zoom returns the current zoom factor.
func (c *Camera) Zoom() float64 { return c.zoom }

// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom], and resizes
// the output buffer to viewport/zoom. Resizing discards the buffer contents;
// the next Render repaints it fully.
func (c *Camera) SetZoom(z float64) {
	c.zoom = clamp(z, MinZoom, MaxZoom)
	c.resizeBuffer()
}

// SetViewport moves and resizes the camera's screen rectangle, resizing the
// output buffer for the current zoom.
func (c *Camera) SetViewport(vp Rect) {
	c.Viewport = vp
	c.resizeBuffer()
}

func (c *Camera) resizeBuffer() {
	w := int(math.Round(c.Viewport.Width / c.zoom))
	h := int(math.Round(c.Viewport.Height / c.zoom))
	c.buffer.Resize(w, h)
}

// --- Shake ---

// Shake transitions the shake sub-system from idle to active. While active,
// every update computes a fresh random offset within ±amountX x ±amountY
// (scaled by remaining/duration when easing is true). When the duration
// runs out the offset is zeroed and onComplete fires exactly once.
// Durations are milliseconds; onComplete may be nil.
func (c *Camera) Shake(duration, amountX, amountY float64, easing bool, onComplete func()) {
	if duration <= 0 {
		panicf(ErrInvalidArgument, "shake duration must be positive, got %v", duration)
	}
	c.shake = shakeState{
		active:     true,
		duration:   duration,
		remaining:  duration,
		amountX:    amountX,
		amountY:    amountY,
		easing:     easing,
		onComplete: onComplete,
	}
}

// StopShake forces the shake sub-system to idle immediately, zeroing the
// offset. The completion callback fires only when trigger is true.
func (c *Camera) StopShake(trigger bool) {
	cb := c.shake.onComplete
	c.shake = shakeState{}
	if trigger && cb != nil {
		cb()
	}
}

// Shaking reports whether the shake sub-system is active.
func (c *Camera) Shaking() bool { return c.shake.active }

// ShakeOffset returns the current shake displacement.
func (c *Camera) ShakeOffset() (x, y float64) {
	return c.shake.offsetX, c.shake.offsetY
}

func (c *Camera) updateShake(step float64) {
	if !c.shake.active {
		return
	}
	c.shake.remaining -= step
	if c.shake.remaining <= 0 {
		cb := c.shake.onComplete
		c.shake = shakeState{}
		if cb != nil {
			cb()
		}
		return
	}
	e := 1.0
	if c.shake.easing {
		e = c.shake.remaining / c.shake.duration
	}
	c.shake.offsetX = (randFloat()*2 - 1) * c.shake.amountX * e
	c.shake.offsetY = (randFloat()*2 - 1) * c.shake.amountY * e
}

// --- Tint (flash / fade) ---

// Flash covers the view with the given color at full opacity and tweens the
// opacity back to zero over duration milliseconds. onDone may be nil.
func (c *Camera) Flash(duration float64, color Color, easeFn ease.TweenFunc, onDone func()) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.tint.color = color
	c.tint.opacity = 1
	c.tint.tween = gween.New(1, 0, float32(duration), easeFn)
	c.tint.onDone = onDone
}

// Fade tweens the tint opacity from its current value to target over
// duration milliseconds. onDone may be nil.
func (c *Camera) Fade(target, duration float64, color Color, easeFn ease.TweenFunc, onDone func()) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.tint.color = color
	c.tint.tween = gween.New(float32(c.tint.opacity), float32(clamp01(target)), float32(duration), easeFn)
	c.tint.onDone = onDone
}

// TintOpacity returns the current tint overlay opacity.
func (c *Camera) TintOpacity() float64 { return c.tint.opacity }

// TintColor returns the current tint overlay color.
func (c *Camera) TintColor() Color { return c.tint.color }

// SetTintOpacity sets the overlay opacity directly, cancelling any running
// fade or flash tween.
func (c *Camera) SetTintOpacity(v float64) {
	c.tint.tween = nil
	c.tint.onDone = nil
	c.tint.opacity = clamp01(v)
}

func (c *Camera) updateTint(step float64) {
	if c.tint.tween == nil {
		return
	}
	val, done := c.tint.tween.Update(float32(step))
	c.tint.opacity = float64(val)
	if done {
		c.tint.tween = nil
		cb := c.tint.onDone
		c.tint.onDone = nil
		if cb != nil {
			cb()
		}
	}
}

// --- Scroll ---

// ScrollTo animates the scroll position to (x, y) over duration milliseconds.
func (c *Camera) ScrollTo(x, y, duration float64, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(c.ScrollX), float32(x), float32(duration), easeFn),
		tweenY: gween.New(float32(c.ScrollY), float32(y), float32(duration), easeFn),
	}
}

func (c *Camera) updateScroll(step float64) {
	if c.scroll == nil {
		return
	}
	if !c.scroll.doneX {
		val, done := c.scroll.tweenX.Update(float32(step))
		c.ScrollX = float64(val)
		c.scroll.doneX = done
	}
	if !c.scroll.doneY {
		val, done := c.scroll.tweenY.Update(float32(step))
		c.ScrollY = float64(val)
		c.scroll.doneY = done
	}
	if c.scroll.doneX && c.scroll.doneY {
		c.scroll = nil
	}
}

// --- Target follow ---

// AddTarget adds a node to the follow list. Duplicates are silently ignored.
func (c *Camera) AddTarget(n *Node) {
	if n == nil {
		panicf(ErrInvalidArgument, "camera target must not be nil")
	}
	for _, t := range c.targets {
		if t == n {
			return
		}
	}
	c.targets = append(c.targets, n)
}

// RemoveTarget removes a node from the follow list. No-op if absent.
func (c *Camera) RemoveTarget(n *Node) {
	for i, t := range c.targets {
		if t == n {
			c.targets = append(c.targets[:i], c.targets[i+1:]...)
			return
		}
	}
}

// ClearTargets empties the follow list, leaving the scroll position freely
// assignable again.
func (c *Camera) ClearTargets() {
	c.targets = c.targets[:0]
}

// Targets returns the follow list. The returned slice MUST NOT be mutated.
func (c *Camera) Targets() []*Node { return c.targets }

// followTargets centers the view on the floored arithmetic mean of the
// target nodes' centers. An empty list leaves the scroll untouched.
func (c *Camera) followTargets() {
	live := 0
	var sumX, sumY float64
	for _, t := range c.targets {
		if t.IsDisposed() {
			continue
		}
		center := t.Center()
		sumX += center.X
		sumY += center.Y
		live++
	}
	if live == 0 {
		return
	}
	trackX := math.Floor(sumX / float64(live))
	trackY := math.Floor(sumY / float64(live))
	c.ScrollX = trackX - float64(c.buffer.Width())/2
	c.ScrollY = trackY - float64(c.buffer.Height())/2
}

// --- Bounds ---

// SetBounds restricts scrolling to keep the view inside the given world
// rectangle. The current scroll is clamped immediately.
func (c *Camera) SetBounds(r Rect) {
	c.bounds = r
	c.hasBounds = true
	c.clampScroll()
}

// ClearBounds removes the scroll restriction.
func (c *Camera) ClearBounds() {
	c.hasBounds = false
}

func (c *Camera) clampScroll() {
	if !c.hasBounds {
		return
	}
	maxX := c.bounds.X + c.bounds.Width - float64(c.buffer.Width())
	maxY := c.bounds.Y + c.bounds.Height - float64(c.buffer.Height())
	// A view wider than the bounds pins to the left/top edge.
	if maxX < c.bounds.X {
		maxX = c.bounds.X
	}
	if maxY < c.bounds.Y {
		maxY = c.bounds.Y
	}
	c.ScrollX = clamp(c.ScrollX, c.bounds.X, maxX)
	c.ScrollY = clamp(c.ScrollY, c.bounds.Y, maxY)
}

// --- Tick ---

// Update advances shake, tint, scroll animation, and target follow by step
// milliseconds, then clamps the result to the bounds when set.
func (c *Camera) Update(step float64) {
	c.updateShake(step)
	c.updateTint(step)
	c.updateScroll(step)
	c.followTargets()
	c.clampScroll()
}

// Render composites the root container into the camera's buffer: the root is
// brought up to date first (a no-op when its cache is valid), then blitted
// at the negated scroll plus shake offset, and finally the tint overlay is
// blended on top.
func (c *Camera) Render(root *Node) {
	if root == nil {
		panicf(ErrInvalidArgument, "camera cannot render a nil root")
	}
	root.Render()

	c.buffer.Clear()
	src := root.Buffer()
	if src != nil {
		ox := -(c.ScrollX + c.shake.offsetX)
		oy := -(c.ScrollY + c.shake.offsetY)
		c.buffer.Blit(src.RGBA(), src.RGBA().Bounds(), ox, oy, BlitOptions{})
	}

	if c.tint.opacity > 0 {
		overlay := c.tint.color
		overlay.A *= c.tint.opacity
		c.buffer.FillRect(c.buffer.Bounds(), overlay)
	}
}

// Snapshot returns the camera's output scaled to viewport dimensions, i.e.
// what the presenter would put on screen. Nearest-neighbor, so zoomed
// pixels stay crisp.
func (c *Camera) Snapshot() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(c.Viewport.Width), int(c.Viewport.Height)))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), c.buffer.RGBA(), c.buffer.RGBA().Bounds(), xdraw.Src, nil)
	return dst
}
