package canopy

import "sort"

// nodeIDCounter is a plain counter (no atomic — canopy is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the fundamental scene graph element. A single flat struct is used
// for both containers and textured nodes to avoid interface dispatch on the
// hot path: a Container is simply a Node whose children are composited into
// its buffer.
//
// Every Node exclusively owns one PixelBuffer holding its rendered
// appearance, gated by a cache-valid flag (see render.go for the protocol).
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy. Parent is a non-owning back-reference; the parent's child
	// list is the single owning edge.
	Parent   *Node
	children []*Node

	// Transform. Flip, rotation, pivot, and alpha are applied by the parent
	// at composite time; they never touch this node's own buffer. Unexported
	// so every mutation goes through a setter that invalidates the right
	// caches; read access is via the matching getters.
	x, y           float64
	W, H           float64
	rotation       float64 // degrees, clockwise
	flipX, flipY   bool
	pivotX, pivotY float64
	alpha          float64

	// Z mirrors this node's position in its parent's child list. Kept in
	// sync by add/insert/remove/sort; SwapChildren exchanges it explicitly.
	Z int

	// Flags
	Active   bool
	Debug    bool // parent strokes this node's bounds after compositing
	DebugHit bool // parent additionally strokes HitRegion
	visible  bool
	hidden   bool // flicker-driven; a node composites when visible && !hidden

	// HitRegion is an optional hit-testing rectangle in node-local
	// coordinates, drawn when DebugHit is set.
	HitRegion Rect

	// TimeScale scales the update step passed to this node's subtree.
	TimeScale float64

	// Rendering
	buffer     *PixelBuffer
	cacheValid bool
	texture    *Texture

	// Tile / frame animation state
	tileW, tileH int
	frameIndex   int
	animPlaying  bool
	animFrom     int
	animTo       int
	animFrameDur float64
	animElapsed  float64
	animLoop     bool

	// Flicker state
	flickerRemaining float64
	flickerInterval  float64
	flickerElapsed   float64

	// Per-node callbacks (nil by default; zero cost when unused)
	OnPreUpdate  func(step float64)
	OnUpdate     func(step float64)
	OnPostUpdate func(step float64)

	// OnDraw, when set, draws custom visuals into the node's own buffer
	// during a cache redraw, after the texture blit and before children.
	// Call BreakCache after changing what OnDraw would produce.
	OnDraw func(b *PixelBuffer)

	// updateSort, when set, re-orders children before each update pass.
	updateSort func(a, b *Node) bool

	// Internal
	root        bool // stage root; position is locked
	initialized bool
	disposed    bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.alpha = 1
	n.TimeScale = 1
	n.Active = true
	n.visible = true
}

// NewContainer creates a container node with a buffer of the given size.
func NewContainer(name string, w, h int) *Node {
	n := &Node{Name: name, Type: NodeTypeContainer}
	nodeDefaults(n)
	n.W = float64(w)
	n.H = float64(h)
	n.buffer = NewPixelBuffer(w, h)
	return n
}

// NewSprite creates a textured node. Its buffer is sized to the texture and
// holds the full sheet; the per-pass Frame selects the tile to composite.
func NewSprite(name string, tex *Texture) *Node {
	if tex == nil {
		panicf(ErrInvalidArgument, "sprite %q requires a texture", name)
	}
	n := &Node{Name: name, Type: NodeTypeSprite}
	nodeDefaults(n)
	n.setTexture(tex)
	return n
}

// setTexture binds tex to this node. A Texture belongs to exactly one node at
// a time (the owner is whose cache ReplaceColor breaks); sharing pixel data
// across sprites is done by constructing one Texture per node from the same
// ImageSource entry.
func (n *Node) setTexture(tex *Texture) {
	if tex.owner != nil {
		panicf(ErrInvalidArgument, "texture is already bound to node %q (id %d)", tex.owner.Name, tex.owner.ID)
	}
	n.texture = tex
	tex.owner = n
	n.buffer = NewPixelBuffer(tex.Width(), tex.Height())
	if n.tileW == 0 {
		n.W = float64(tex.Width())
		n.H = float64(tex.Height())
	}
}

// Texture returns the node's texture, or nil for containers.
func (n *Node) Texture() *Texture { return n.texture }

// Center returns the node's center point in parent coordinates. Camera
// target-follow tracks this point.
func (n *Node) Center() Vec2 {
	return Vec2{X: n.x + n.W/2, Y: n.y + n.H/2}
}

// Buffer returns the node's owned pixel buffer.
func (n *Node) Buffer() *PixelBuffer { return n.buffer }

// --- Lifecycle ---

// Init marks the node constructed. It is invoked automatically the first
// time the node is attached to a parent; calling it again without an
// intervening Dispose panics with AlreadyConstructed.
func (n *Node) Init() {
	if n.initialized {
		panicf(ErrAlreadyConstructed, "node %q (id %d) is already initialized", n.Name, n.ID)
	}
	n.initialized = true
	n.disposed = false
}

func (n *Node) initOnce() {
	if !n.initialized {
		n.Init()
	}
}

// Dispose removes this node from its parent, marks it disposed, and
// recursively disposes all descendants. Idempotent.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.initialized = false
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.buffer = nil
	if n.texture != nil {
		n.texture.owner = nil
		n.texture = nil
	}
	n.updateSort = nil
	n.OnPreUpdate = nil
	n.OnUpdate = nil
	n.OnPostUpdate = nil
	n.OnDraw = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool { return n.disposed }

// --- Tree manipulation ---

// AddChild appends child at the top of the z-order.
// If child already has a parent, it is removed from that parent first
// (ownership transfer is implicit and total). Panics with InvalidArgument
// if child is nil, is this node, or is an ancestor of this node.
func (n *Node) AddChild(child *Node) {
	n.AddChildAt(child, len(n.children))
}

// AddChildAt inserts child at the given index. Same reparenting and cycle
// checks as AddChild; panics with OutOfRange if index is not in [0, count].
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panicf(ErrInvalidArgument, "cannot add nil child to %q", n.Name)
	}
	if child == n {
		panicf(ErrInvalidArgument, "cannot add node %q to itself", n.Name)
	}
	if isAncestor(child, n) {
		panicf(ErrInvalidArgument, "adding %q to %q would create a cycle", child.Name, n.Name)
	}
	if index < 0 || index > len(n.children) {
		panicf(ErrOutOfRange, "child index %d out of range [0, %d]", index, len(n.children))
	}
	if child.Parent != nil {
		child.Parent.detachChild(child)
		child.Parent.BreakCache()
		// Re-adding to the same parent: the detach shrank the list, so an
		// index validated against the old length may now be one past the end.
		if child.Parent == n && index > len(n.children) {
			index = len(n.children)
		}
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.resyncZ(index)
	child.initOnce()
	n.BreakCache()
	if debugChecks {
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child from this node and returns it. When dispose is
// true the detached subtree is disposed. Returns nil without mutation if
// child is not currently a child of this node.
func (n *Node) RemoveChild(child *Node, dispose bool) *Node {
	if child == nil || child.Parent != n {
		return nil
	}
	n.detachChild(child)
	child.Parent = nil
	n.BreakCache()
	if dispose {
		child.dispose()
	}
	return child
}

// RemoveChildAt removes and returns the child at the given index.
// Panics with OutOfRange for an invalid index.
func (n *Node) RemoveChildAt(index int, dispose bool) *Node {
	if index < 0 || index >= len(n.children) {
		panicf(ErrOutOfRange, "child index %d out of range [0, %d)", index, len(n.children))
	}
	return n.RemoveChild(n.children[index], dispose)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n, false)
}

// RemoveChildren detaches all children. Children are NOT disposed.
func (n *Node) RemoveChildren() {
	if len(n.children) == 0 {
		return
	}
	for _, child := range n.children {
		child.Parent = nil
	}
	n.children = n.children[:0]
	n.BreakCache()
}

// SwapChildren exchanges the list positions and Z fields of a and b.
// Returns false without mutation if either is not currently a child.
func (n *Node) SwapChildren(a, b *Node) bool {
	ia := n.childIndex(a)
	ib := n.childIndex(b)
	if ia < 0 || ib < 0 {
		return false
	}
	n.children[ia], n.children[ib] = n.children[ib], n.children[ia]
	a.Z, b.Z = b.Z, a.Z
	n.BreakCache()
	return true
}

// SortChildren reorders children with the given less function and resyncs
// their Z fields. Panics with InvalidArgument if cmp is nil. Always breaks
// the cache, even when the order is unchanged.
func (n *Node) SortChildren(cmp func(a, b *Node) bool) {
	if cmp == nil {
		panicf(ErrInvalidArgument, "sort comparator must not be nil")
	}
	sort.SliceStable(n.children, func(i, j int) bool {
		return cmp(n.children[i], n.children[j])
	})
	n.resyncZ(0)
	n.BreakCache()
}

// SetUpdateSort installs an optional comparator applied to the child list
// before each update pass. Pass nil to remove it.
func (n *Node) SetUpdateSort(cmp func(a, b *Node) bool) {
	n.updateSort = cmp
}

// ForEachChild visits children in current z-order. The callback must not
// add, remove, or reorder children of this node.
func (n *Node) ForEachChild(fn func(child *Node)) {
	for _, child := range n.children {
		fn(child)
	}
}

// Children returns the child list. The returned slice MUST NOT be mutated.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index.
// Panics with OutOfRange for an invalid index.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panicf(ErrOutOfRange, "child index %d out of range [0, %d)", index, len(n.children))
	}
	return n.children[index]
}

// detachChild removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) detachChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			n.resyncZ(i)
			return
		}
	}
}

// childIndex returns the list position of child, or -1.
func (n *Node) childIndex(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// resyncZ rewrites the Z field of children at positions >= from.
func (n *Node) resyncZ(from int) {
	for i := from; i < len(n.children); i++ {
		n.children[i].Z = i
	}
}

// isAncestor reports whether candidate is an ancestor of node (or node itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// --- Cache protocol ---

// BreakCache clears this node's cache-valid flag and every ancestor's up to
// the root. Each ancestor's buffer is a cached composite of its subtree, so
// a stale ancestor would keep presenting old pixels if only the leaf were
// cleared. Invalidation never propagates downward.
func (n *Node) BreakCache() {
	for p := n; p != nil; p = p.Parent {
		p.cacheValid = false
	}
}

// invalidateAncestors breaks the caches of this node's ancestors only. Used
// for mutations that move the node within the parent's composite without
// changing its local pixels.
func (n *Node) invalidateAncestors() {
	if n.Parent != nil {
		n.Parent.BreakCache()
	}
}

// CacheValid reports whether the node's buffer is current.
func (n *Node) CacheValid() bool { return n.cacheValid }

// --- Transform accessors ---

// X returns the node's horizontal position within its parent.
func (n *Node) X() float64 { return n.x }

// Y returns the node's vertical position within its parent.
func (n *Node) Y() float64 { return n.y }

// Rotation returns the node's rotation in degrees, clockwise.
func (n *Node) Rotation() float64 { return n.rotation }

// Flip returns the horizontal and vertical mirror flags.
func (n *Node) Flip() (flipX, flipY bool) { return n.flipX, n.flipY }

// Pivot returns the transform origin in node-local pixels.
func (n *Node) Pivot() (px, py float64) { return n.pivotX, n.pivotY }

// Alpha returns the node's opacity in [0, 1].
func (n *Node) Alpha() float64 { return n.alpha }

// SetPosition moves the node within its parent. The node's own pixels are
// unchanged, so only ancestor composites are invalidated. Panics with
// IllegalOperation on a stage root.
func (n *Node) SetPosition(x, y float64) {
	if n.root {
		panicf(ErrIllegalOperation, "a root container's position cannot be changed")
	}
	n.x = x
	n.y = y
	n.invalidateAncestors()
}

// SetRotation sets the rotation in degrees. Rotation is applied by the
// parent at composite time; only ancestors are invalidated.
func (n *Node) SetRotation(deg float64) {
	n.rotation = deg
	n.invalidateAncestors()
}

// SetFlip sets the horizontal and vertical mirror flags.
func (n *Node) SetFlip(flipX, flipY bool) {
	n.flipX = flipX
	n.flipY = flipY
	n.invalidateAncestors()
}

// SetPivot sets the transform origin for flip and rotation, in node-local pixels.
func (n *Node) SetPivot(px, py float64) {
	n.pivotX = px
	n.pivotY = py
	n.invalidateAncestors()
}

// SetAlpha sets the node's opacity, clamped to [0, 1].
func (n *Node) SetAlpha(a float64) {
	n.alpha = clamp01(a)
	n.invalidateAncestors()
}

// --- Visibility ---

// Visible reports the user-controlled visibility flag.
func (n *Node) Visible() bool { return n.visible }

// Hidden reports the flicker-driven hide flag.
func (n *Node) Hidden() bool { return n.hidden }

// composited reports whether the parent should draw this node at all.
func (n *Node) composited() bool { return n.visible && !n.hidden }

// SetVisible toggles visibility. A change invalidates this node and all
// ancestors so the next render reflects it.
func (n *Node) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.BreakCache()
}

func (n *Node) setHidden(h bool) {
	if n.hidden == h {
		return
	}
	n.hidden = h
	n.BreakCache()
}

// --- Tile / frame animation ---

// SetTile configures the node as atlas/strip-backed: the per-pass Frame
// clips a tileW x tileH cell of the texture selected by the frame index.
func (n *Node) SetTile(tileW, tileH int) {
	if tileW <= 0 || tileH <= 0 {
		panicf(ErrInvalidArgument, "tile dimensions must be positive, got %dx%d", tileW, tileH)
	}
	n.tileW = tileW
	n.tileH = tileH
	n.W = float64(tileW)
	n.H = float64(tileH)
	n.BreakCache()
}

// FrameIndex returns the current animation/atlas frame index.
func (n *Node) FrameIndex() int { return n.frameIndex }

// SetFrame jumps to the given frame index and invalidates the node and its
// ancestors.
func (n *Node) SetFrame(index int) {
	if index == n.frameIndex {
		return
	}
	n.frameIndex = index
	n.BreakCache()
}

// PlayFrames starts frame animation from index from to index to, advancing
// every frameDuration milliseconds of scaled update time.
func (n *Node) PlayFrames(from, to int, frameDuration float64, loop bool) {
	if frameDuration <= 0 {
		panicf(ErrInvalidArgument, "frame duration must be positive, got %v", frameDuration)
	}
	n.animPlaying = true
	n.animFrom = from
	n.animTo = to
	n.animFrameDur = frameDuration
	n.animElapsed = 0
	n.animLoop = loop
	n.SetFrame(from)
}

// StopFrames halts frame animation at the current frame.
func (n *Node) StopFrames() {
	n.animPlaying = false
}

// Flicker toggles the node's hidden flag every interval milliseconds for
// duration milliseconds, ending visible. Each toggle breaks the cache.
func (n *Node) Flicker(duration, interval float64) {
	if duration <= 0 || interval <= 0 {
		panicf(ErrInvalidArgument, "flicker duration and interval must be positive")
	}
	n.flickerRemaining = duration
	n.flickerInterval = interval
	n.flickerElapsed = 0
}

// --- Update traversal ---

// Update advances this node and its active children by step milliseconds,
// scaled by this node's TimeScale. For each active child the three update
// phases run in order: OnPreUpdate, the child's own Update (which recurses),
// OnPostUpdate. Structural mutation of the child list from inside the
// traversal is forbidden.
func (n *Node) Update(step float64) {
	if n.disposed || !n.Active {
		return
	}
	scaled := step * n.TimeScale
	n.updateSelf(scaled)

	if n.updateSort != nil {
		n.applyUpdateSort()
	}

	for _, child := range n.children {
		if !child.Active {
			continue
		}
		if child.OnPreUpdate != nil {
			child.OnPreUpdate(scaled)
		}
		child.Update(scaled)
		if child.OnPostUpdate != nil {
			child.OnPostUpdate(scaled)
		}
	}
}

// updateSelf advances the user hook plus animation and flicker timers.
func (n *Node) updateSelf(step float64) {
	if n.OnUpdate != nil {
		n.OnUpdate(step)
	}

	if n.animPlaying {
		n.animElapsed += step
		for n.animElapsed >= n.animFrameDur {
			n.animElapsed -= n.animFrameDur
			next := n.frameIndex + 1
			if next > n.animTo {
				if n.animLoop {
					next = n.animFrom
				} else {
					n.animPlaying = false
					next = n.animTo
				}
			}
			n.SetFrame(next)
			if !n.animPlaying {
				break
			}
		}
	}

	if n.flickerRemaining > 0 {
		n.flickerRemaining -= step
		n.flickerElapsed += step
		if n.flickerRemaining <= 0 {
			n.flickerRemaining = 0
			n.setHidden(false)
		} else if n.flickerElapsed >= n.flickerInterval {
			n.flickerElapsed -= n.flickerInterval
			n.setHidden(!n.hidden)
		}
	}
}

// applyUpdateSort reorders children with the installed comparator, breaking
// the cache only when the order actually changed.
func (n *Node) applyUpdateSort() {
	sort.SliceStable(n.children, func(i, j int) bool {
		return n.updateSort(n.children[i], n.children[j])
	})
	changed := false
	for i, c := range n.children {
		if c.Z != i {
			changed = true
			break
		}
	}
	if changed {
		n.resyncZ(0)
		n.BreakCache()
	}
}
