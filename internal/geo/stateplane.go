package geo

// Lambert Conformal Conic projection from WGS-84 degrees to state-plane feet.
// Metro boundary shapefiles for North Texas ship in Texas North-Central
// (EPSG:2276), so city lat/lon must be projected before point-in-polygon
// testing.

import "math"

const (
	ftPerMeter = 3.2808333333333334 // US survey foot
	semiMajorM = 6378137.0          // NAD83 semi-major axis (metres)
	e2         = 0.00669438002290   // NAD83 eccentricity squared
)

// lambertProjection holds the precomputed projection constants for one
// state-plane zone.
type lambertProjection struct {
	falseEasting  float64
	falseNorthing float64
	lon0Deg       float64 // central meridian

	n    float64
	f    float64
	rho0 float64
}

// newLambertProjection derives the projection constants from the zone's
// defining parallels.
func newLambertProjection(phi0Deg, phi1Deg, phi2Deg, lon0Deg, falseEasting, falseNorthing float64) lambertProjection {
	phi0 := phi0Deg * math.Pi / 180
	phi1 := phi1Deg * math.Pi / 180
	phi2 := phi2Deg * math.Pi / 180

	m := func(phi float64) float64 {
		return math.Cos(phi) / math.Sqrt(1-e2*math.Sin(phi)*math.Sin(phi))
	}
	t := func(phi float64) float64 {
		e := math.Sqrt(e2)
		return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*math.Sin(phi))/(1+e*math.Sin(phi)), e/2)
	}

	m1, m2 := m(phi1), m(phi2)
	t0, t1, t2 := t(phi0), t(phi1), t(phi2)

	n := math.Log(m1/m2) / math.Log(t1/t2)
	aFt := semiMajorM * ftPerMeter
	f := aFt * m1 / (n * math.Pow(t1, n))

	return lambertProjection{
		falseEasting:  falseEasting,
		falseNorthing: falseNorthing,
		lon0Deg:       lon0Deg,
		n:             n,
		f:             f,
		rho0:          f * math.Pow(t0, n),
	}
}

// txNorthCentral is EPSG:2276, covering the DFW metro area.
var txNorthCentral = newLambertProjection(
	31.66666666666667, // latitude of origin
	32.13333333333333, // standard parallel 1
	33.96666666666667, // standard parallel 2
	-98.5,             // central meridian
	1968500.0,
	6561666.666666666,
)

// project converts latitude/longitude in decimal degrees (WGS-84) to
// state-plane (northingFt, eastingFt).
func (p lambertProjection) project(latDeg, lonDeg float64) (northingFt, eastingFt float64) {
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180
	lambda0 := p.lon0Deg * math.Pi / 180

	t := math.Tan(math.Pi/4 - phi/2)
	rho := p.f * math.Pow(t, p.n)
	theta := p.n * (lambda - lambda0)

	eastingFt = rho*math.Sin(theta) + p.falseEasting
	northingFt = p.rho0 - rho*math.Cos(theta) + p.falseNorthing
	return
}
