// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheme

import (
	"math"

	"github.com/alaamroue/src-pro-gpu/sim"
)

// faceFlux carries the three flux components across one face: mass, normal
// momentum and transverse momentum
type faceFlux struct {
	m, n, t float64
}

// riemannHLLC solves the face Riemann problem with the HLLC two-wave solver
// plus a contact wave for the transverse momentum. The normal axis points
// from the left to the right state. Dry-bed handling: both sides dry gives
// zero flux; a single dry side uses the wet-side rarefaction wave speeds.
func riemannHLLC(hL, uL, vL, hR, uR, vR, dry float64) (f faceFlux) {
	dryL := hL < dry
	dryR := hR < dry
	if dryL && dryR {
		return
	}

	g := sim.Gravity
	cL := math.Sqrt(g * hL)
	cR := math.Sqrt(g * hR)

	var sL, sR float64
	switch {
	case dryR:
		sL = uL - cL
		sR = uL + 2*cL
		hR, uR, vR = 0, 0, 0
	case dryL:
		sL = uR - 2*cR
		sR = uR + cR
		hL, uL, vL = 0, 0, 0
	default:
		// Roe averages of depth and velocity
		rL, rR := math.Sqrt(hL), math.Sqrt(hR)
		uRoe := (uL*rL + uR*rR) / (rL + rR)
		cRoe := math.Sqrt(g * (hL + hR) / 2)
		sL = math.Min(uL-cL, uRoe-cRoe)
		sR = math.Max(uR+cR, uRoe+cRoe)
	}

	fL0 := hL * uL
	fL1 := hL*uL*uL + 0.5*g*hL*hL
	fR0 := hR * uR
	fR1 := hR*uR*uR + 0.5*g*hR*hR

	if sL >= 0 {
		return faceFlux{fL0, fL1, fL0 * vL}
	}
	if sR <= 0 {
		return faceFlux{fR0, fR1, fR0 * vR}
	}

	ds := sR - sL
	f.m = (sR*fL0 - sL*fR0 + sL*sR*(hR-hL)) / ds
	f.n = (sR*fL1 - sL*fR1 + sL*sR*(hR*uR-hL*uL)) / ds

	// contact wave selects the upwind transverse velocity
	den := hR*(uR-sR) - hL*(uL-sL)
	sM := 0.0
	if math.Abs(den) > 1e-14 {
		sM = (sL*hR*(uR-sR) - sR*hL*(uL-sL)) / den
	}
	if sM >= 0 {
		f.t = f.m * vL
	} else {
		f.t = f.m * vR
	}
	return
}

// poleniFlux computes the weir-flow discharge across a flagged face. The
// face flux replaces the Riemann flux entirely: free flow uses the Poleni
// formula, the submerged form multiplies it by √(1 − r³).
func poleniFlux(etaL, etaR, zCrest, c, dry float64) (f faceFlux) {
	etaUp, etaDn := etaL, etaR
	sign := 1.0
	if etaR > etaL {
		etaUp, etaDn = etaR, etaL
		sign = -1.0
	}
	head := etaUp - zCrest
	if head <= dry {
		return
	}
	g := sim.Gravity
	q := c * (2.0 / 3.0) * math.Sqrt(2*g) * head * math.Sqrt(head)
	if etaDn > zCrest {
		r := (etaDn - zCrest) / head
		q *= math.Sqrt(1 - r*r*r)
	}
	f.m = sign * q
	f.n = q * q / head // advective momentum flux, direction-independent
	return
}
