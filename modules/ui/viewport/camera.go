package viewport

// Zoom bounds and the per-wheel-event factor
const (
	MinZoom    = 0.1
	MaxZoom    = 5.0
	ZoomFactor = 1.1
)

// Camera translates pointer and wheel input into the pan/zoom transform
// consumed by the world renderer. It is a self-contained state machine
// (Idle or Dragging) and never touches the state store.
type Camera struct {
	offsetX float64
	offsetY float64
	zoom    float64

	dragging   bool
	dragStartX float64
	dragStartY float64
	baseX      float64
	baseY      float64
}

// NewCamera returns a camera at the origin with neutral zoom
func NewCamera() *Camera {
	return &Camera{zoom: 1.0}
}

// PointerDown enters the dragging state at the given pointer position
func (c *Camera) PointerDown(x, y float64) {
	c.dragging = true
	c.dragStartX = x
	c.dragStartY = y
	c.baseX = c.offsetX
	c.baseY = c.offsetY
}

// PointerMove updates the offset while dragging; ignored when idle
func (c *Camera) PointerMove(x, y float64) {
	if !c.dragging {
		return
	}
	c.offsetX = c.baseX + (x - c.dragStartX)
	c.offsetY = c.baseY + (y - c.dragStartY)
}

// PointerUp leaves the dragging state
func (c *Camera) PointerUp() {
	c.dragging = false
}

// Dragging reports whether a drag is in progress
func (c *Camera) Dragging() bool {
	return c.dragging
}

// ZoomIn multiplies the zoom by the wheel factor, clamped to the bounds
func (c *Camera) ZoomIn() {
	c.setZoom(c.zoom * ZoomFactor)
}

// ZoomOut divides the zoom by the wheel factor, clamped to the bounds
func (c *Camera) ZoomOut() {
	c.setZoom(c.zoom / ZoomFactor)
}

func (c *Camera) setZoom(z float64) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	c.zoom = z
}

// Transform returns the current (offset, zoom) transform
func (c *Camera) Transform() (offsetX, offsetY, zoom float64) {
	return c.offsetX, c.offsetY, c.zoom
}

// Reset restores the camera to the origin with neutral zoom
func (c *Camera) Reset() {
	c.offsetX = 0
	c.offsetY = 0
	c.zoom = 1.0
	c.dragging = false
}
