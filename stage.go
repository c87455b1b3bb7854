package canopy

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Stage adapts the scene core to Ebitengine: it owns the root container and
// the camera manager, drives the fixed-step update/render phases, and
// presents each camera's software buffer on screen. Stage implements
// [ebiten.Game], or the two-phase Tick/Present pair can be driven by any
// other fixed-step loop.
type Stage struct {
	root    *Node
	cameras *CameraManager
	debug   bool

	screenW, screenH int

	// Per-camera upload images, recreated when a camera's buffer resizes.
	uploads map[*Camera]*ebiten.Image
}

// NewStage creates a stage with a root container of the given size. The
// root's position is locked at the origin; SetPosition on it panics with
// IllegalOperation.
func NewStage(w, h int) *Stage {
	root := NewContainer("root", w, h)
	root.root = true
	root.initOnce()
	return &Stage{
		root:    root,
		cameras: NewCameraManager(),
		screenW: w,
		screenH: h,
		uploads: make(map[*Camera]*ebiten.Image),
	}
}

// Root returns the stage's root container.
func (s *Stage) Root() *Node { return s.root }

// Cameras returns the stage's camera manager.
func (s *Stage) Cameras() *CameraManager { return s.cameras }

// SetScreenSize sets the logical presentation size independently of the root
// container, for worlds larger than the window (scrolling, split-screen).
func (s *Stage) SetScreenSize(w, h int) {
	s.screenW = w
	s.screenH = h
}

// SetDebug enables per-tick timing logs, tree sanity checks, and the
// on-screen FPS readout.
func (s *Stage) SetDebug(enabled bool) {
	s.debug = enabled
	debugChecks = enabled
}

// Tick runs one fixed update step: the node tree top-down, then the cameras.
// step is in milliseconds.
func (s *Stage) Tick(step float64) {
	s.root.Update(step)
	s.cameras.Update(step)
}

// Present renders every active camera and composites the results. Cameras
// with no manager entries fall back to presenting the root buffer directly.
func (s *Stage) Present(screen *ebiten.Image) {
	if s.cameras.NumCameras() == 0 {
		s.root.Render()
		s.blitBuffer(screen, s.root.Buffer(), Rect{Width: s.root.W, Height: s.root.H}, nil)
		return
	}
	s.cameras.Render(s.root)
	for _, cam := range s.cameras.Cameras() {
		if !cam.Active {
			continue
		}
		s.blitBuffer(screen, cam.Buffer(), cam.Viewport, cam)
	}
}

// blitBuffer uploads a software buffer and draws it scaled into the given
// screen rectangle.
func (s *Stage) blitBuffer(screen *ebiten.Image, buf *PixelBuffer, dst Rect, cam *Camera) {
	img := s.uploads[cam]
	if img == nil || img.Bounds().Dx() != buf.Width() || img.Bounds().Dy() != buf.Height() {
		if img != nil {
			img.Deallocate()
		}
		img = ebiten.NewImage(buf.Width(), buf.Height())
		s.uploads[cam] = img
	}
	img.WritePixels(buf.RGBA().Pix)

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(dst.Width/float64(buf.Width()), dst.Height/float64(buf.Height()))
	op.GeoM.Translate(dst.X, dst.Y)
	screen.DrawImage(img, &op)
}

// --- ebiten.Game ---

// Update implements ebiten.Game with a fixed step derived from the tick rate.
func (s *Stage) Update() error {
	step := 1000.0 / float64(ebiten.TPS())
	if s.debug {
		t0 := time.Now()
		before := redrawCounter
		s.Tick(step)
		debugLog(debugStats{updateTime: time.Since(t0), redraws: redrawCounter - before})
		return nil
	}
	s.Tick(step)
	return nil
}

// Draw implements ebiten.Game.
func (s *Stage) Draw(screen *ebiten.Image) {
	if s.debug {
		t0 := time.Now()
		before := redrawCounter
		s.Present(screen)
		debugLog(debugStats{renderTime: time.Since(t0), redraws: redrawCounter - before})
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
		return
	}
	s.Present(screen)
}

// Layout implements ebiten.Game.
func (s *Stage) Layout(outsideWidth, outsideHeight int) (int, int) {
	return s.screenW, s.screenH
}

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title         string
	Width, Height int // window size; zero defaults to the stage size
	Debug         bool
}

// Run opens a window and drives the stage with Ebitengine's game loop.
// Blocks until the window closes.
func Run(stage *Stage, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w == 0 {
		w = stage.screenW
	}
	if h == 0 {
		h = stage.screenH
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(cfg.Title)
	stage.SetDebug(cfg.Debug)
	return ebiten.RunGame(stage)
}
