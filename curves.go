package plasticity

import (
	"sync"

	"github.com/shaunstanislauslau/plasticity/geom"
)

// Curves tracks state derived from planar curves: which automatic
// region items a curve produced, and the closed contours its joints
// form. The derived items themselves live in the geometry database
// (agent automatic); this is the forward index from the authored
// curve to them.
type Curves struct {
	mu       sync.Mutex
	regions  map[geom.Version][]geom.Version
	contours map[geom.Version][]geom.Version
}

type CurvesMemento struct {
	regions  map[geom.Version][]geom.Version
	contours map[geom.Version][]geom.Version
}

func NewCurves() *Curves {
	return &Curves{
		regions:  make(map[geom.Version][]geom.Version),
		contours: make(map[geom.Version][]geom.Version),
	}
}

func (c *Curves) SetRegions(curve geom.Version, regions []geom.Version) {
	c.mu.Lock()
	c.regions[curve] = regions
	c.mu.Unlock()
}

func (c *Curves) SetContours(curve geom.Version, contours []geom.Version) {
	c.mu.Lock()
	c.contours[curve] = contours
	c.mu.Unlock()
}

func (c *Curves) Regions(curve geom.Version) []geom.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regions[curve]
}

func (c *Curves) Contours(curve geom.Version) []geom.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contours[curve]
}

// Drop forgets everything derived from a removed curve.
func (c *Curves) Drop(curve geom.Version) {
	c.mu.Lock()
	delete(c.regions, curve)
	delete(c.contours, curve)
	c.mu.Unlock()
}

func (c *Curves) Snapshot() *CurvesMemento {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := &CurvesMemento{
		regions:  make(map[geom.Version][]geom.Version, len(c.regions)),
		contours: make(map[geom.Version][]geom.Version, len(c.contours)),
	}
	for k, v := range c.regions {
		m.regions[k] = append([]geom.Version(nil), v...)
	}
	for k, v := range c.contours {
		m.contours[k] = append([]geom.Version(nil), v...)
	}
	return m
}

func (c *Curves) restore(m *CurvesMemento) {
	c.mu.Lock()
	c.regions = make(map[geom.Version][]geom.Version, len(m.regions))
	for k, v := range m.regions {
		c.regions[k] = append([]geom.Version(nil), v...)
	}
	c.contours = make(map[geom.Version][]geom.Version, len(m.contours))
	for k, v := range m.contours {
		c.contours[k] = append([]geom.Version(nil), v...)
	}
	c.mu.Unlock()
}
