package reference

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhconnelly/rtreego"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
	"github.com/couchcryptid/delivery-radius-service/internal/geo"
)

// pointExtent is the side length of the degenerate rectangle stored per point.
const pointExtent = 1e-9

// Set is an immutable, indexed reference dataset. It implements
// domain.ReferenceSet. Lookups by code are O(1); Within uses an R-tree.
type Set struct {
	points []domain.ReferencePoint
	byCode map[string]int
	tree   *rtreego.Rtree
}

// indexedPoint adapts a reference point to rtreego.Spatial.
type indexedPoint struct {
	idx  int
	rect rtreego.Rect
}

func (p *indexedPoint) Bounds() rtreego.Rect {
	return p.rect
}

// New indexes points. A code appears once: later duplicates are dropped.
func New(points []domain.ReferencePoint) *Set {
	s := &Set{
		points: make([]domain.ReferencePoint, 0, len(points)),
		byCode: make(map[string]int, len(points)),
	}
	for _, p := range points {
		if _, dup := s.byCode[p.Code]; dup {
			continue
		}
		s.byCode[p.Code] = len(s.points)
		s.points = append(s.points, p)
	}

	items := make([]rtreego.Spatial, 0, len(s.points))
	for i, p := range s.points {
		// x = longitude, y = latitude
		rect, err := rtreego.NewRect(rtreego.Point{p.Lng, p.Lat}, []float64{pointExtent, pointExtent})
		if err != nil {
			continue
		}
		items = append(items, &indexedPoint{idx: i, rect: rect})
	}
	s.tree = rtreego.NewTree(2, 25, 50, items...)
	return s
}

// Lookup returns the point for an exact code.
func (s *Set) Lookup(code string) (domain.ReferencePoint, bool) {
	i, ok := s.byCode[code]
	if !ok {
		return domain.ReferencePoint{}, false
	}
	return s.points[i], true
}

// All returns every point in load order. The slice must not be modified.
func (s *Set) All() []domain.ReferencePoint {
	return s.points
}

// Len returns the number of points.
func (s *Set) Len() int {
	return len(s.points)
}

// Within returns, in load order, the points inside a bounding box that
// contains every point within miles of (lat, lng). ok is false when no safe
// box exists (near the poles or across the antimeridian).
func (s *Set) Within(lat, lng, miles float64) (points []domain.ReferencePoint, ok bool) {
	box, ok := geo.BoundingBox(lat, lng, miles)
	if !ok {
		return nil, false
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{box.MinLng, box.MinLat},
		[]float64{box.MaxLng - box.MinLng, box.MaxLat - box.MinLat},
	)
	if err != nil {
		return nil, false
	}

	hits := s.tree.SearchIntersect(rect)
	idx := make([]int, 0, len(hits))
	for _, h := range hits {
		idx = append(idx, h.(*indexedPoint).idx)
	}
	sort.Ints(idx)

	points = make([]domain.ReferencePoint, 0, len(idx))
	for _, i := range idx {
		points = append(points, s.points[i])
	}
	return points, true
}

// SearchByCity returns up to limit points whose city contains query,
// case-insensitively.
func (s *Set) SearchByCity(query string, limit int) []domain.ReferencePoint {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(query)
	var out []domain.ReferencePoint
	for _, p := range s.points {
		if strings.Contains(strings.ToLower(p.City), q) {
			out = append(out, p)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// ByState returns every point in a two-letter state.
func (s *Set) ByState(state string) []domain.ReferencePoint {
	code := strings.ToUpper(state)
	var out []domain.ReferencePoint
	for _, p := range s.points {
		if p.State == code {
			out = append(out, p)
		}
	}
	return out
}

// FormatLocation renders "City, ST".
func FormatLocation(p domain.ReferencePoint) string {
	return fmt.Sprintf("%s, %s", p.City, p.State)
}

// FormatFull renders "98122 - Seattle, WA (King)".
func FormatFull(p domain.ReferencePoint) string {
	county := ""
	if p.County != "" {
		county = fmt.Sprintf(" (%s)", p.County)
	}
	return fmt.Sprintf("%s - %s, %s%s", p.Code, p.City, p.State, county)
}
