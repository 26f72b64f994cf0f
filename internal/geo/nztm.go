package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// TransverseMercator holds the parameters of a transverse Mercator grid on
// an ellipsoid.
type TransverseMercator struct {
	SemiMajor       float64 // ellipsoid semi-major axis (m)
	InvFlattening   float64 // ellipsoid inverse flattening
	CentralMeridian float64 // degrees
	OriginLat       float64 // degrees
	ScaleFactor     float64
	FalseEasting    float64
	FalseNorthing   float64
}

// NZTM2000 returns the New Zealand Transverse Mercator 2000 grid (EPSG:2193)
// on the GRS80 ellipsoid.
func NZTM2000() *TransverseMercator {
	return &TransverseMercator{
		SemiMajor:       6378137.0,
		InvFlattening:   298.257222101,
		CentralMeridian: 173.0,
		OriginLat:       0.0,
		ScaleFactor:     0.9996,
		FalseEasting:    1600000.0,
		FalseNorthing:   10000000.0,
	}
}

// Forward converts easting/northing to longitude/latitude in degrees.
func (tm *TransverseMercator) Forward(c geom.Coord) (geom.Coord, error) {
	if len(c) < 2 {
		return nil, eris.New("geo: coordinate needs two ordinates")
	}
	e, n := c.X(), c.Y()
	if math.IsNaN(e) || math.IsNaN(n) || math.IsInf(e, 0) || math.IsInf(n, 0) {
		return nil, eris.Errorf("geo: non-finite grid coordinate %v,%v", e, n)
	}
	lon, lat := tm.inverse(e, n)
	if !ValidLatLon(lat, lon) {
		return nil, eris.Errorf("geo: grid coordinate %v,%v outside projection", e, n)
	}
	return geom.Coord{lon, lat}, nil
}

func (tm *TransverseMercator) e2() float64 {
	f := 1 / tm.InvFlattening
	return 2*f - f*f
}

func (tm *TransverseMercator) meridianArc(lat float64) float64 {
	e2 := tm.e2()
	e4 := e2 * e2
	e6 := e4 * e2
	a0 := 1 - e2/4 - 3*e4/64 - 5*e6/256
	a2 := (3.0 / 8.0) * (e2 + e4/4 + 15*e6/128)
	a4 := (15.0 / 256.0) * (e4 + 3*e6/4)
	a6 := 35 * e6 / 3072
	return tm.SemiMajor * (a0*lat - a2*math.Sin(2*lat) + a4*math.Sin(4*lat) - a6*math.Sin(6*lat))
}

func (tm *TransverseMercator) footPointLat(m float64) float64 {
	f := 1 / tm.InvFlattening
	n := f / (2 - f)
	n2 := n * n
	n3 := n2 * n
	n4 := n2 * n2
	g := tm.SemiMajor * (1 - n) * (1 - n2) * (1 + 9*n2/4 + 225*n4/64)
	sig := m / g
	return sig + (3*n/2-27*n3/32)*math.Sin(2*sig) +
		(21*n2/16-55*n4/32)*math.Sin(4*sig) +
		(151*n3/96)*math.Sin(6*sig) +
		(1097*n4/512)*math.Sin(8*sig)
}

// inverse applies the Redfearn series used by the national geodetic agency.
func (tm *TransverseMercator) inverse(ce, cn float64) (lon, lat float64) {
	const rad = math.Pi / 180
	e2 := tm.e2()
	a := tm.SemiMajor
	sf := tm.ScaleFactor
	cm := tm.CentralMeridian * rad
	om := tm.meridianArc(tm.OriginLat * rad)

	cn1 := (cn-tm.FalseNorthing)/sf + om
	fphi := tm.footPointLat(cn1)
	slt := math.Sin(fphi)
	clt := math.Cos(fphi)
	eslt := 1 - e2*slt*slt
	eta := a / math.Sqrt(eslt)
	rho := eta * (1 - e2) / eslt
	psi := eta / rho

	e := ce - tm.FalseEasting
	x := e / (eta * sf)
	x2 := x * x
	t := slt / clt
	t2 := t * t
	t4 := t2 * t2

	trm1 := 1.0 / 2.0
	trm2 := ((-4*psi+9*(1-t2))*psi + 12*t2) / 24
	trm3 := ((((8*(11-24*t2)*psi-12*(21-71*t2))*psi+15*((15*t2-98)*t2+15))*psi+180*((-3*t2+5)*t2))*psi + 360*t4) / 720
	trm4 := (((1575*t2+4095)*t2+3633)*t2 + 1385) / 40320
	latRad := fphi + (t*x*e/(sf*rho))*(((trm4*x2-trm3)*x2+trm2)*x2-trm1)

	trm1 = 1.0
	trm2 = (psi + 2*t2) / 6
	trm3 = (((-4*(1-6*t2)*psi+(9-68*t2))*psi+72*t2)*psi + 24*t4) / 120
	trm4 = (((720*t2+1320)*t2+662)*t2 + 61) / 5040
	lonRad := cm - (x/clt)*(((trm4*x2-trm3)*x2+trm2)*x2-trm1)

	return lonRad / rad, latRad / rad
}
