package reorder

// Edge is the side of a drop target nearest to the pointer.
type Edge string

const (
	EdgeNone   Edge = ""
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// Edges allowed for vertically stacked tasks and horizontally stacked columns.
var (
	VerticalEdges   = []Edge{EdgeTop, EdgeBottom}
	HorizontalEdges = []Edge{EdgeLeft, EdgeRight}
)

// After reports whether dropping on this edge inserts after the target.
func (e Edge) After() bool {
	return e == EdgeBottom || e == EdgeRight
}

// Vertical reports whether the edge belongs to a vertical list.
func (e Edge) Vertical() bool {
	return e == EdgeTop || e == EdgeBottom
}

// Horizontal reports whether the edge belongs to a horizontal list.
func (e Edge) Horizontal() bool {
	return e == EdgeLeft || e == EdgeRight
}

// Point is a pointer position in client coordinates.
type Point struct {
	X, Y float64
}

// Rect is the bounding box of a drop target element.
type Rect struct {
	Left, Top, Width, Height float64
}

// ClosestEdge returns the allowed edge of r nearest to p. Ties resolve to the
// earliest edge in allowed, so top wins over bottom on the exact midpoint.
// With no allowed edges the result is EdgeNone.
func ClosestEdge(p Point, r Rect, allowed []Edge) Edge {
	best := EdgeNone
	bestDist := 0.0
	for _, e := range allowed {
		d, ok := edgeDistance(p, r, e)
		if !ok {
			continue
		}
		if best == EdgeNone || d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

func edgeDistance(p Point, r Rect, e Edge) (float64, bool) {
	switch e {
	case EdgeTop:
		return abs(p.Y - r.Top), true
	case EdgeBottom:
		return abs(r.Top + r.Height - p.Y), true
	case EdgeLeft:
		return abs(p.X - r.Left), true
	case EdgeRight:
		return abs(r.Left + r.Width - p.X), true
	}
	return 0, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
