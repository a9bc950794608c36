package geo

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"marketselect/internal/types"
)

// metroFeature is one polygon (possibly multi-part) from a metro boundary
// shapefile. Coordinates are in Texas North-Central state-plane feet,
// matching the source layers.
type metroFeature struct {
	Name  string         // boundary name from the DBF attribute table, may be empty
	Parts [][][2]float64 // each part is a closed ring of [northing, easting] points
	MinN  float64
	MinE  float64
	MaxN  float64
	MaxE  float64
}

// Metro is a loaded boundary layer used to filter candidate cities.
type Metro struct {
	features   []metroFeature
	projection lambertProjection
}

// LoadMetro reads the boundary shapefile at path.
func LoadMetro(path string) (*Metro, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load metro shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()

	var features []metroFeature
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			// Skip non-polygon geometries (shouldn't exist in a boundary layer)
			continue
		}

		numParts := len(poly.Parts)
		parts := make([][][2]float64, numParts)

		minN, minE := math.MaxFloat64, math.MaxFloat64
		maxN, maxE := -math.MaxFloat64, -math.MaxFloat64

		for partIdx := 0; partIdx < numParts; partIdx++ {
			start := poly.Parts[partIdx]
			end := int32(len(poly.Points))
			if partIdx+1 < numParts {
				end = poly.Parts[partIdx+1]
			}
			ring := make([][2]float64, int(end-start))
			j := 0
			for i := start; i < end; i++ {
				pt := poly.Points[i]
				ring[j] = [2]float64{pt.Y, pt.X} // northing, easting
				if pt.Y < minN {
					minN = pt.Y
				}
				if pt.Y > maxN {
					maxN = pt.Y
				}
				if pt.X < minE {
					minE = pt.X
				}
				if pt.X > maxE {
					maxE = pt.X
				}
				j++
			}
			parts[partIdx] = ring
		}

		features = append(features, metroFeature{
			Name:  featureName(fields, r, idx),
			Parts: parts,
			MinN:  minN,
			MinE:  minE,
			MaxN:  maxN,
			MaxE:  maxE,
		})
	}

	return &Metro{features: features, projection: txNorthCentral}, nil
}

// featureName pulls a display name for a feature from its DBF attributes,
// preferring fields named like NAME. Empty when the layer has no usable one.
func featureName(fields []shp.Field, r *shp.Reader, row int) string {
	for i, f := range fields {
		if !strings.Contains(strings.ToUpper(f.String()), "NAME") {
			continue
		}
		if v := strings.TrimSpace(r.ReadAttribute(row, i)); v != "" {
			return v
		}
	}
	return ""
}

// Locate returns the name of the boundary feature containing the WGS-84
// point, and whether any feature contains it.
func (m *Metro) Locate(latDeg, lonDeg float64) (string, bool) {
	n, e := m.projection.project(latDeg, lonDeg)
	for _, f := range m.features {
		if n < f.MinN || n > f.MaxN || e < f.MinE || e > f.MaxE {
			continue // quick bbox reject
		}
		for _, ring := range f.Parts {
			if pointInRing(n, e, ring) {
				return f.Name, true
			}
		}
	}
	return "", false
}

// Contains reports whether the WGS-84 point lies inside the metro boundary.
func (m *Metro) Contains(latDeg, lonDeg float64) bool {
	_, ok := m.Locate(latDeg, lonDeg)
	return ok
}

// FilterKPIs keeps the cities inside the boundary. Cities with unknown
// coordinates are kept, since the filter is a refinement, not a gate on data
// completeness; they are logged so the report reader knows.
func (m *Metro) FilterKPIs(kpis []types.CityKPI) []types.CityKPI {
	var kept []types.CityKPI
	for _, k := range kpis {
		if k.Latitude == 0 && k.Longitude == 0 {
			slog.Warn("city has no coordinates, keeping despite metro filter", "city", k.City)
			kept = append(kept, k)
			continue
		}
		if name, ok := m.Locate(k.Latitude, k.Longitude); ok {
			slog.Debug("city inside metro boundary", "city", k.City, "boundary", name)
			kept = append(kept, k)
		} else {
			slog.Info("city outside metro boundary, excluded", "city", k.City)
		}
	}
	return kept
}

// pointInRing implements the ray-casting algorithm over a closed ring of
// [northing, easting] points.
func pointInRing(n, e float64, ring [][2]float64) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		ni, ei := ring[i][0], ring[i][1]
		nj, ej := ring[j][0], ring[j][1]
		intersect := ((ni > n) != (nj > n)) && (e < (ej-ei)*(n-ni)/(nj-ni)+ei)
		if intersect {
			inside = !inside
		}
		j = i
	}
	return inside
}
