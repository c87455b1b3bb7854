package canopy

import (
	"testing"

	"github.com/tanema/gween/ease"
)

// --- Zoom / viewport ---

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera(Rect{Width: 320, Height: 180})
	if !c.Active {
		t.Error("new camera should be active")
	}
	if c.Zoom() != 1.0 {
		t.Errorf("zoom = %v, want 1.0", c.Zoom())
	}
	if c.ViewWidth() != 320 || c.ViewHeight() != 180 {
		t.Errorf("view = (%d, %d), want (320, 180)", c.ViewWidth(), c.ViewHeight())
	}
	if c.TintOpacity() != 0 {
		t.Errorf("tint opacity = %v, want 0", c.TintOpacity())
	}
}

func TestSetZoomResizesBuffer(t *testing.T) {
	c := NewCamera(Rect{Width: 384, Height: 216})
	c.SetZoom(2.0)

	if c.Zoom() != 2.0 {
		t.Errorf("zoom = %v, want 2.0", c.Zoom())
	}
	if c.ViewWidth() != 192 || c.ViewHeight() != 108 {
		t.Errorf("view = (%d, %d), want (192, 108)", c.ViewWidth(), c.ViewHeight())
	}
}

func TestSetZoomClamps(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})

	c.SetZoom(0.1)
	if c.Zoom() != MinZoom {
		t.Errorf("zoom = %v, want %v", c.Zoom(), MinZoom)
	}
	if c.ViewWidth() != 400 {
		t.Errorf("view width = %d, want 400", c.ViewWidth())
	}

	c.SetZoom(10)
	if c.Zoom() != MaxZoom {
		t.Errorf("zoom = %v, want %v", c.Zoom(), MaxZoom)
	}
	if c.ViewWidth() != 25 {
		t.Errorf("view width = %d, want 25", c.ViewWidth())
	}
}

func TestSetViewportResizesForZoom(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.SetZoom(2.0)
	c.SetViewport(Rect{X: 10, Y: 10, Width: 200, Height: 100})

	if c.ViewWidth() != 100 || c.ViewHeight() != 50 {
		t.Errorf("view = (%d, %d), want (100, 50)", c.ViewWidth(), c.ViewHeight())
	}
}

// --- Shake ---

func stubRand(t *testing.T, v float64) {
	t.Helper()
	prev := randFloat
	randFloat = func() float64 { return v }
	t.Cleanup(func() { randFloat = prev })
}

func TestShakeOffsetsWithinAmount(t *testing.T) {
	stubRand(t, 1.0) // maximal positive offset
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.Shake(1000, 10, 4, false, nil)

	if !c.Shaking() {
		t.Fatal("camera should be shaking")
	}
	c.Update(100)
	x, y := c.ShakeOffset()
	if x != 10 || y != 4 {
		t.Errorf("offset = (%v, %v), want (10, 4)", x, y)
	}
}

func TestShakeEasingScalesByRemaining(t *testing.T) {
	stubRand(t, 1.0)
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.Shake(1000, 10, 10, true, nil)

	c.Update(500) // remaining 500/1000 = 0.5
	x, _ := c.ShakeOffset()
	if x != 5 {
		t.Errorf("eased offset = %v, want 5", x)
	}
}

func TestShakeCompletes(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	calls := 0
	c.Shake(1000, 10, 10, false, func() { calls++ })

	c.Update(1000)

	if c.Shaking() {
		t.Error("shake should be idle after its duration elapses")
	}
	if x, y := c.ShakeOffset(); x != 0 || y != 0 {
		t.Errorf("offset = (%v, %v), want (0, 0)", x, y)
	}
	if calls != 1 {
		t.Errorf("onComplete calls = %d, want 1", calls)
	}

	c.Update(100) // idle update must not re-fire
	if calls != 1 {
		t.Errorf("onComplete calls after idle update = %d, want 1", calls)
	}
}

func TestShakeInvalidDurationPanics(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	assertPanicKind(t, ErrInvalidArgument, func() {
		c.Shake(0, 10, 10, false, nil)
	})
}

func TestStopShake(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	calls := 0
	c.Shake(1000, 10, 10, false, func() { calls++ })
	c.Update(100)

	c.StopShake(false)
	if c.Shaking() {
		t.Error("StopShake should idle the shake state")
	}
	if x, y := c.ShakeOffset(); x != 0 || y != 0 {
		t.Errorf("offset = (%v, %v), want (0, 0)", x, y)
	}
	if calls != 0 {
		t.Error("StopShake(false) must not fire the callback")
	}

	c.Shake(1000, 10, 10, false, func() { calls++ })
	c.StopShake(true)
	if calls != 1 {
		t.Errorf("StopShake(true) calls = %d, want 1", calls)
	}
}

// --- Tint ---

func TestFlashTweensOpacityDown(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	done := false
	c.Flash(1000, Color{1, 1, 1, 1}, nil, func() { done = true })

	if c.TintOpacity() != 1 {
		t.Errorf("opacity at start = %v, want 1", c.TintOpacity())
	}
	c.Update(500)
	if c.TintOpacity() != 0.5 {
		t.Errorf("opacity at midpoint = %v, want 0.5", c.TintOpacity())
	}
	c.Update(500)
	if c.TintOpacity() != 0 {
		t.Errorf("opacity at end = %v, want 0", c.TintOpacity())
	}
	if !done {
		t.Error("onDone should fire when the flash finishes")
	}
}

func TestFadeFromCurrentOpacity(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.SetTintOpacity(0.5)
	c.Fade(1.0, 1000, ColorBlack, ease.Linear, nil)

	c.Update(500)
	if c.TintOpacity() != 0.75 {
		t.Errorf("opacity = %v, want 0.75", c.TintOpacity())
	}
	if c.TintColor() != ColorBlack {
		t.Errorf("tint color = %+v, want black", c.TintColor())
	}
}

func TestSetTintOpacityCancelsTween(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	fired := false
	c.Flash(1000, ColorBlack, nil, func() { fired = true })
	c.Update(100)

	c.SetTintOpacity(0.2)
	c.Update(2000)

	if c.TintOpacity() != 0.2 {
		t.Errorf("opacity = %v, want 0.2 (tween cancelled)", c.TintOpacity())
	}
	if fired {
		t.Error("cancelled tween must not fire its callback")
	}
}

// --- Scroll animation ---

func TestScrollTo(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.ScrollX, c.ScrollY = 0, 100
	c.ScrollTo(100, 0, 1000, nil)

	c.Update(500)
	if c.ScrollX != 50 || c.ScrollY != 50 {
		t.Errorf("scroll = (%v, %v), want (50, 50)", c.ScrollX, c.ScrollY)
	}
	c.Update(500)
	if c.ScrollX != 100 || c.ScrollY != 0 {
		t.Errorf("scroll = (%v, %v), want (100, 0)", c.ScrollX, c.ScrollY)
	}
}

// --- Target follow ---

func TestAddTargetRules(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	n := NewContainer("n", 4, 4)

	assertPanicKind(t, ErrInvalidArgument, func() { c.AddTarget(nil) })

	c.AddTarget(n)
	c.AddTarget(n) // duplicate ignored
	if len(c.Targets()) != 1 {
		t.Errorf("targets = %d, want 1", len(c.Targets()))
	}

	c.RemoveTarget(n)
	if len(c.Targets()) != 0 {
		t.Errorf("targets after remove = %d, want 0", len(c.Targets()))
	}
	c.RemoveTarget(n) // absent: no-op
}

func TestFollowSingleTargetCentersView(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 80})
	n := NewContainer("hero", 10, 10)
	n.SetPosition(200, 100)
	c.AddTarget(n)

	c.Update(16)

	// Center (205, 105) minus half the 100x80 view.
	if c.ScrollX != 155 || c.ScrollY != 65 {
		t.Errorf("scroll = (%v, %v), want (155, 65)", c.ScrollX, c.ScrollY)
	}
}

func TestFollowMultipleTargetsMeansCenters(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	a := NewContainer("a", 10, 10)
	a.SetPosition(0, 0) // center (5, 5)
	b := NewContainer("b", 10, 10)
	b.SetPosition(100, 50) // center (105, 55)
	c.AddTarget(a)
	c.AddTarget(b)

	c.Update(16)

	// Mean center (55, 30), floored, minus half view.
	if c.ScrollX != 5 || c.ScrollY != -20 {
		t.Errorf("scroll = (%v, %v), want (5, -20)", c.ScrollX, c.ScrollY)
	}
}

func TestFollowSkipsDisposedTargets(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	a := NewContainer("a", 10, 10)
	a.SetPosition(0, 0)
	b := NewContainer("b", 10, 10)
	b.SetPosition(100, 100)
	c.AddTarget(a)
	c.AddTarget(b)
	b.Dispose()

	c.Update(16)

	// Only a's center (5, 5) counts.
	if c.ScrollX != -45 || c.ScrollY != -45 {
		t.Errorf("scroll = (%v, %v), want (-45, -45)", c.ScrollX, c.ScrollY)
	}
}

func TestClearTargetsFreesScroll(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	n := NewContainer("n", 10, 10)
	c.AddTarget(n)
	c.Update(16)

	c.ClearTargets()
	c.ScrollX = 42
	c.Update(16)

	if c.ScrollX != 42 {
		t.Errorf("scroll = %v, want 42 (follow disabled)", c.ScrollX)
	}
}

// --- Bounds ---

func TestSetBoundsClampsFollow(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.SetBounds(Rect{Width: 200, Height: 200})

	n := NewContainer("hero", 10, 10)
	n.SetPosition(500, -500)
	c.AddTarget(n)
	c.Update(16)

	// Follow wants (455, -545); bounds pin to [0, 100].
	if c.ScrollX != 100 || c.ScrollY != 0 {
		t.Errorf("scroll = (%v, %v), want (100, 0)", c.ScrollX, c.ScrollY)
	}
}

func TestSetBoundsClampsImmediately(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.ScrollX, c.ScrollY = -50, 300
	c.SetBounds(Rect{Width: 200, Height: 200})

	if c.ScrollX != 0 || c.ScrollY != 100 {
		t.Errorf("scroll = (%v, %v), want (0, 100)", c.ScrollX, c.ScrollY)
	}
}

func TestClearBoundsFreesScroll(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.SetBounds(Rect{Width: 200, Height: 200})
	c.ClearBounds()
	c.ScrollX = -50
	c.Update(16)

	if c.ScrollX != -50 {
		t.Errorf("scroll = %v, want -50 (bounds cleared)", c.ScrollX)
	}
}

func TestBoundsSmallerThanViewPinToOrigin(t *testing.T) {
	c := NewCamera(Rect{Width: 100, Height: 100})
	c.ScrollX = 30
	c.SetBounds(Rect{Width: 40, Height: 40})

	if c.ScrollX != 0 {
		t.Errorf("scroll = %v, want 0 (view wider than bounds)", c.ScrollX)
	}
}

// --- Render ---

func TestCameraRenderScrolls(t *testing.T) {
	world := NewContainer("world", 16, 16)
	world.OnDraw = func(b *PixelBuffer) {
		b.SetPixel(10, 10, Color{1, 0, 0, 1})
	}

	c := NewCamera(Rect{Width: 8, Height: 8})
	c.ScrollX, c.ScrollY = 8, 8
	c.Render(world)

	assertPixel(t, c.Buffer(), 2, 2, 255, 0, 0, 255)
}

func TestCameraRenderNilRootPanics(t *testing.T) {
	c := NewCamera(Rect{Width: 8, Height: 8})
	assertPanicKind(t, ErrInvalidArgument, func() {
		c.Render(nil)
	})
}

func TestCameraRenderTintOverlay(t *testing.T) {
	world := NewContainer("world", 8, 8)
	c := NewCamera(Rect{Width: 8, Height: 8})
	c.SetTintOpacity(1)
	// Opaque black tint covers everything.
	c.Render(world)

	assertPixel(t, c.Buffer(), 0, 0, 0, 0, 0, 255)
}

func TestCameraRenderAppliesShakeOffset(t *testing.T) {
	stubRand(t, 1.0)
	world := NewContainer("world", 16, 16)
	world.OnDraw = func(b *PixelBuffer) {
		b.SetPixel(10, 10, Color{1, 0, 0, 1})
	}

	c := NewCamera(Rect{Width: 8, Height: 8})
	c.ScrollX, c.ScrollY = 8, 8
	c.Shake(1000, 2, 2, false, nil)
	c.Update(100) // offset (2, 2)
	c.Render(world)

	// World pixel (10, 10) lands at 10 - (8 + 2) = 0.
	assertPixel(t, c.Buffer(), 0, 0, 255, 0, 0, 255)
}

func TestCameraTwoViewsOfOneWorld(t *testing.T) {
	world := NewContainer("world", 16, 16)
	world.OnDraw = func(b *PixelBuffer) {
		b.SetPixel(0, 0, Color{1, 0, 0, 1})
		b.SetPixel(10, 10, Color{0, 0, 1, 1})
	}

	left := NewCamera(Rect{Width: 8, Height: 8})
	right := NewCamera(Rect{X: 8, Width: 8, Height: 8})
	right.ScrollX, right.ScrollY = 8, 8

	left.Render(world)
	right.Render(world)

	assertPixel(t, left.Buffer(), 0, 0, 255, 0, 0, 255)
	assertTransparent(t, left.Buffer(), 2, 2)
	assertPixel(t, right.Buffer(), 2, 2, 0, 0, 255, 255)
}

// --- Snapshot ---

func TestSnapshotScalesToViewport(t *testing.T) {
	world := NewContainer("world", 8, 8)
	world.OnDraw = func(b *PixelBuffer) {
		b.Fill(Color{1, 0, 0, 1})
	}

	c := NewCamera(Rect{Width: 16, Height: 16})
	c.SetZoom(2.0) // buffer is 8x8
	if c.ViewWidth() != 8 {
		t.Fatalf("view width = %d, want 8", c.ViewWidth())
	}
	c.Render(world)

	snap := c.Snapshot()
	if snap.Bounds().Dx() != 16 || snap.Bounds().Dy() != 16 {
		t.Errorf("snapshot = %dx%d, want 16x16", snap.Bounds().Dx(), snap.Bounds().Dy())
	}
	i := snap.PixOffset(15, 15)
	if snap.Pix[i] != 255 || snap.Pix[i+3] != 255 {
		t.Error("snapshot should carry the scaled red fill to the far corner")
	}
}
