package canopy

// CameraManager owns an ordered list of cameras and ticks them together,
// enabling simultaneous multi-viewport (split-screen) output. Every active
// camera renders the target container independently into its own buffer.
type CameraManager struct {
	cameras []*Camera
}

// NewCameraManager creates an empty manager.
func NewCameraManager() *CameraManager {
	return &CameraManager{}
}

// AddCamera appends a camera to the list. Duplicates are silently ignored.
func (m *CameraManager) AddCamera(c *Camera) {
	if c == nil {
		panicf(ErrInvalidArgument, "cannot add a nil camera")
	}
	for _, existing := range m.cameras {
		if existing == c {
			return
		}
	}
	m.cameras = append(m.cameras, c)
}

// RemoveCamera removes a camera from the list. No-op if absent.
func (m *CameraManager) RemoveCamera(c *Camera) {
	for i, existing := range m.cameras {
		if existing == c {
			m.cameras = append(m.cameras[:i], m.cameras[i+1:]...)
			return
		}
	}
}

// RemoveCameras empties the camera list.
func (m *CameraManager) RemoveCameras() {
	m.cameras = m.cameras[:0]
}

// CameraAt returns the camera at the given index.
// Panics with OutOfRange for an invalid index.
func (m *CameraManager) CameraAt(index int) *Camera {
	if index < 0 || index >= len(m.cameras) {
		panicf(ErrOutOfRange, "camera index %d out of range [0, %d)", index, len(m.cameras))
	}
	return m.cameras[index]
}

// NumCameras returns the number of managed cameras.
func (m *CameraManager) NumCameras() int { return len(m.cameras) }

// Cameras returns the camera list. The returned slice MUST NOT be mutated.
func (m *CameraManager) Cameras() []*Camera { return m.cameras }

// Update ticks every active camera by step milliseconds.
func (m *CameraManager) Update(step float64) {
	for _, c := range m.cameras {
		if c.Active {
			c.Update(step)
		}
	}
}

// Render renders root through every active camera. Cameras may cover
// overlapping or disjoint regions of the same container; each writes only
// its own buffer.
func (m *CameraManager) Render(root *Node) {
	for _, c := range m.cameras {
		if c.Active {
			c.Render(root)
		}
	}
}
