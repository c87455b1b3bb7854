// Package canopy is a retained-mode 2D scene graph with per-node raster
// caching, presented through [Ebitengine].
//
// Every visual element is a [Node] owning a software [PixelBuffer]. A node's
// buffer is a cached composite of its subtree, gated by a cache-valid flag:
// rendering redraws only the invalidated spine of the tree, and any mutation
// that changes a node's appearance or membership breaks its cache and every
// ancestor's up to the root.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	stage := canopy.NewStage(384, 216)
//	// ... add nodes ...
//	canopy.Run(stage, canopy.RunConfig{Title: "My Game"})
//
// For full control, implement [ebiten.Game] yourself and call [Stage.Tick]
// and [Stage.Present] directly.
//
// # Scene graph
//
// Nodes form a tree rooted at [Stage.Root]. Children composite into their
// parent's buffer in z-order, with position, rotation, flip, pivot, and
// alpha applied by the parent at composite time:
//
//	world := canopy.NewContainer("world", 384, 216)
//	stage.Root().AddChild(world)
//
//	hero := canopy.NewSprite("hero", canopy.NewTexture(library, "hero"))
//	hero.SetTile(16, 16)
//	hero.PlayFrames(0, 3, 120, true)
//	world.AddChild(hero)
//
// # Cameras
//
// A [Camera] is an independent viewport with its own zoom, scroll, shake,
// and fade/flash tint, rendering a container into its own buffer. The
// [CameraManager] ticks any number of cameras for split-screen output:
//
//	cam := canopy.NewCamera(canopy.Rect{Width: 192, Height: 216})
//	cam.AddTarget(hero)
//	stage.Cameras().AddCamera(cam)
//
// Camera fade and flash effects interpolate via [gween] tweens; node
// property animation is available through [TweenPosition] and friends.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package canopy
