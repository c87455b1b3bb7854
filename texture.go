package canopy

import "image"

// ImageSource is the resource-lookup collaborator: it returns bitmap data by
// name, usable as a blit source. Decoding and caching live outside this
// package; textures hold whatever the source returns.
type ImageSource interface {
	Image(name string) *image.RGBA
}

// Library is a minimal in-memory ImageSource for tests, examples, and
// programs that decode their own assets.
type Library struct {
	images map[string]*image.RGBA
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{images: make(map[string]*image.RGBA)}
}

// Add registers an image under the given name, replacing any previous entry.
func (l *Library) Add(name string, img *image.RGBA) {
	l.images[name] = img
}

// Image returns the image registered under name, or nil if absent.
func (l *Library) Image(name string) *image.RGBA {
	return l.images[name]
}

// Texture is bitmap data bound to exactly one Node. It starts shared: a
// read-only reference into an ImageSource, and any number of nodes may
// reference the same resource through their own Texture. The first mutation
// (ReplaceColor) materializes a private copy, so sibling nodes referencing
// the same resource are unaffected.
type Texture struct {
	data   *image.RGBA
	unique bool
	owner  *Node
}

// NewTexture creates a shared texture referencing the named image in src.
// Panics with InvalidArgument if the source has no such image.
func NewTexture(src ImageSource, name string) *Texture {
	img := src.Image(name)
	if img == nil {
		panicf(ErrInvalidArgument, "texture source has no image %q", name)
	}
	return &Texture{data: img}
}

// NewUniqueTexture creates a texture that owns img outright.
func NewUniqueTexture(img *image.RGBA) *Texture {
	if img == nil {
		panicf(ErrInvalidArgument, "unique texture requires a non-nil image")
	}
	return &Texture{data: img, unique: true}
}

// Data returns the texture's pixel data: the shared image, or the private
// copy once one has been materialized.
func (t *Texture) Data() *image.RGBA { return t.data }

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.data.Bounds().Dx() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.data.Bounds().Dy() }

// Unique reports whether this texture has materialized a private buffer.
func (t *Texture) Unique() bool { return t.unique }

// makeUnique clones the shared data into a private buffer. No-op once unique.
func (t *Texture) makeUnique() {
	if t.unique {
		return
	}
	src := t.data
	clone := image.NewRGBA(src.Bounds())
	copy(clone.Pix, src.Pix)
	t.data = clone
	t.unique = true
}

// ReplaceColor substitutes every pixel exactly matching from with to.
// Copy-on-write: a shared texture materializes a private buffer first, so
// other nodes referencing the same resource keep their pixels. The owning
// node's cache is broken afterward.
func (t *Texture) ReplaceColor(from, to Color) {
	t.makeUnique()

	fr, fg, fb, fa := from.premul()
	tr, tg, tb, ta := to.premul()
	pix := t.data.Pix
	for i := 0; i < len(pix); i += 4 {
		if pix[i] == fr && pix[i+1] == fg && pix[i+2] == fb && pix[i+3] == fa {
			pix[i] = tr
			pix[i+1] = tg
			pix[i+2] = tb
			pix[i+3] = ta
		}
	}

	if t.owner != nil {
		t.owner.BreakCache()
	}
}
