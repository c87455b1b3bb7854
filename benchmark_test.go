package canopy

import "testing"

// setupBenchTree creates a root container with n small sprites spread over a
// 1280x720 buffer.
func setupBenchTree(n int) *Node {
	root := NewContainer("root", 1280, 720)
	lib := NewLibrary()
	lib.Add("tile", newSolidImage(32, 32, 255, 0, 255, 255))
	for i := 0; i < n; i++ {
		sp := NewSprite("sp", NewTexture(lib, "tile"))
		sp.SetPosition(float64(i%40)*32, float64(i/40)*32)
		root.AddChild(sp)
	}
	return root
}

func BenchmarkRender_1000Sprites_Clean(b *testing.B) {
	root := setupBenchTree(1000)
	root.Render() // warm the cache

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		root.Render()
	}
}

func BenchmarkRender_1000Sprites_Repositioned(b *testing.B) {
	root := setupBenchTree(1000)
	children := root.Children()
	root.Render()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, child := range children {
			child.SetPosition(child.X()+0.5, child.Y())
		}
		root.Render()
	}
}

func BenchmarkRender_1000Sprites_Rotating(b *testing.B) {
	root := setupBenchTree(1000)
	children := root.Children()
	root.Render()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, child := range children {
			child.SetRotation(child.Rotation() + 1)
		}
		root.Render()
	}
}

func BenchmarkBlitFast(b *testing.B) {
	dst := NewPixelBuffer(256, 256)
	src := newSolidImage(64, 64, 255, 0, 0, 128)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dst.Blit(src, src.Bounds(), 32, 32, BlitOptions{})
	}
}

func BenchmarkBlitRotated(b *testing.B) {
	dst := NewPixelBuffer(256, 256)
	src := newSolidImage(64, 64, 255, 0, 0, 128)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dst.Blit(src, src.Bounds(), 96, 96, BlitOptions{Rotation: 30, PivotX: 32, PivotY: 32})
	}
}

func BenchmarkCameraRender(b *testing.B) {
	root := setupBenchTree(200)
	cam := NewCamera(Rect{Width: 640, Height: 360})
	cam.Render(root) // warm the cache

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cam.Render(root)
	}
}

func BenchmarkRectIntersects(b *testing.B) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 100}
	o := Rect{X: 50, Y: 50, Width: 100, Height: 100}
	for i := 0; i < b.N; i++ {
		_ = r.Intersects(o)
	}
}
