// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheme

import (
	"math"

	"github.com/alaamroue/src-pro-gpu/device"
	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/alaamroue/src-pro-gpu/sim"
)

// minmod slope limiter
func minmod(a, b float64) float64 {
	if a*b <= 0 {
		return 0
	}
	if math.Abs(a) < math.Abs(b) {
		return a
	}
	return b
}

// physical x-flux of the state (h, qx, qy)
func fluxX(h, qx, qy, dry float64) (f0, f1, f2 float64) {
	if h < dry {
		return 0, 0, 0
	}
	g := sim.Gravity
	return qx, qx*qx/h + 0.5*g*h*h, qx * qy / h
}

// physical y-flux of the state (h, qx, qy)
func fluxY(h, qx, qy, dry float64) (f0, f1, f2 float64) {
	if h < dry {
		return 0, 0, 0
	}
	g := sim.Gravity
	return qy, qx * qy / h, qy*qy/h + 0.5*g*h*h
}

// kernHalfMUSCL computes slope-limited face extrapolations of (η, qx, qy)
// and evolves them by a half timestep (the Hancock predictor). Results go
// into the four per-cell face buffers consumed by the corrector.
func (o *Godunov) kernHalfMUSCL(item [3]int, args []interface{}) {
	x, y := item[0], item[1]
	if x >= o.cols || y >= o.rows {
		return
	}
	id := y*o.cols + x
	d := o.double

	ts := bufArg(args, 0).DevView(d)
	bed := bufArg(args, 1).DevView(d)
	src := bufArg(args, 2).DevView(d)
	fN := bufArg(args, 3).DevView(d)
	fE := bufArg(args, 4).DevView(d)
	fS := bufArg(args, 5).DevView(d)
	fW := bufArg(args, 6).DevView(d)

	etaC := src.Get(4*id + domain.StateFSL)
	etaMax := src.Get(4*id + domain.StateMaxFSL)
	qxC := src.Get(4*id + domain.StateQx)
	qyC := src.Get(4*id + domain.StateQy)

	store := func(v device.View, eta, qx, qy float64) {
		v.Set(4*id+0, eta)
		v.Set(4*id+1, qx)
		v.Set(4*id+2, qy)
		v.Set(4*id+3, 0)
	}

	if etaMax == sim.DisabledCell {
		store(fN, etaC, 0, 0)
		store(fE, etaC, 0, 0)
		store(fS, etaC, 0, 0)
		store(fW, etaC, 0, 0)
		return
	}

	// neighbour states, mirrored across walls
	get := func(nid int, exists bool) (eta, qx, qy float64) {
		if exists && src.Get(4*nid+domain.StateMaxFSL) != sim.DisabledCell {
			return src.Get(4*nid + domain.StateFSL), src.Get(4*nid + domain.StateQx), src.Get(4*nid + domain.StateQy)
		}
		return etaC, qxC, qyC
	}
	etaW, qxW, qyW := get(id-1, x > 0)
	etaE, qxE, qyE := get(id+1, x < o.cols-1)
	etaS, qxS, qyS := get(id-o.cols, y > 0)
	etaN, qxN, qyN := get(id+o.cols, y < o.rows-1)

	sxEta := minmod(etaC-etaW, etaE-etaC)
	sxQx := minmod(qxC-qxW, qxE-qxC)
	sxQy := minmod(qyC-qyW, qyE-qyC)
	syEta := minmod(etaC-etaS, etaN-etaC)
	syQx := minmod(qxC-qxS, qxN-qxC)
	syQy := minmod(qyC-qyS, qyN-qyC)

	dry := o.set.DryThreshold
	z := bed.Get(id)
	dt := ts.Get(0)

	// Hancock predictor: evolve the reconstruction by dt/2 using the
	// physical fluxes at the face-extrapolated states
	eE, xE, yE := etaC+0.5*sxEta, qxC+0.5*sxQx, qyC+0.5*sxQy
	eW, xW, yW := etaC-0.5*sxEta, qxC-0.5*sxQx, qyC-0.5*sxQy
	eN, xN, yN := etaC+0.5*syEta, qxC+0.5*syQx, qyC+0.5*syQy
	eS, xS, yS := etaC-0.5*syEta, qxC-0.5*syQx, qyC-0.5*syQy

	fe0, fe1, fe2 := fluxX(math.Max(0, eE-z), xE, yE, dry)
	fw0, fw1, fw2 := fluxX(math.Max(0, eW-z), xW, yW, dry)
	gn0, gn1, gn2 := fluxY(math.Max(0, eN-z), xN, yN, dry)
	gs0, gs1, gs2 := fluxY(math.Max(0, eS-z), xS, yS, dry)

	dh := -0.5 * dt * ((fe0-fw0)/o.dx + (gn0-gs0)/o.dy)
	dqx := -0.5 * dt * ((fe1-fw1)/o.dx + (gn1-gs1)/o.dy)
	dqy := -0.5 * dt * ((fe2-fw2)/o.dx + (gn2-gs2)/o.dy)

	store(fE, eE+dh, xE+dqx, yE+dqy)
	store(fW, eW+dh, xW+dqx, yW+dqy)
	store(fN, eN+dh, xN+dqx, yN+dqy)
	store(fS, eS+dh, xS+dqx, yS+dqy)
}

// kernFullMUSCL is the MUSCL-Hancock corrector: HLLC fluxes between the
// half-step face extrapolations of adjacent cells, with the same
// well-balanced depth referencing, Poleni faces and dry handling as the
// first-order kernel.
func (o *Godunov) kernFullMUSCL(item [3]int, args []interface{}) {
	x, y := item[0], item[1]
	if x >= o.cols || y >= o.rows {
		return
	}
	id := y*o.cols + x
	d := o.double

	ts := bufArg(args, 0).DevView(d)
	bed := bufArg(args, 1).DevView(d)
	src := bufArg(args, 2).DevView(d)
	dst := bufArg(args, 3).DevView(d)
	pol := bufArg(args, 5).DevBytes()
	zxm := bufArg(args, 6).DevView(d)
	zym := bufArg(args, 7).DevView(d)
	cxv := bufArg(args, 8).DevView(d)
	cyv := bufArg(args, 9).DevView(d)
	scr := bufArg(args, 10).DevView(d)
	exN := bufArg(args, 11).DevView(d)
	exE := bufArg(args, 12).DevView(d)
	exS := bufArg(args, 13).DevView(d)
	exW := bufArg(args, 14).DevView(d)

	etaC := src.Get(4*id + domain.StateFSL)
	etaMax := src.Get(4*id + domain.StateMaxFSL)
	qxC := src.Get(4*id + domain.StateQx)
	qyC := src.Get(4*id + domain.StateQy)
	if etaMax == sim.DisabledCell {
		dst.Set(4*id+domain.StateFSL, etaC)
		dst.Set(4*id+domain.StateMaxFSL, etaMax)
		dst.Set(4*id+domain.StateQx, qxC)
		dst.Set(4*id+domain.StateQy, qyC)
		scr.Set(id, dryCandidate)
		return
	}

	dt := ts.Get(0)
	dry := o.set.DryThreshold
	g := sim.Gravity
	zC := bed.Get(id)
	hC := math.Max(0, etaC-zC)

	// own half-step face extrapolations
	load := func(v device.View, i int) (eta, qx, qy float64) {
		return v.Get(4*i + 0), v.Get(4*i + 1), v.Get(4*i + 2)
	}
	ceE, cxE, cyE := load(exE, id)
	ceW, cxW, cyW := load(exW, id)
	ceN, cxN, cyN := load(exN, id)
	ceS, cxS, cyS := load(exS, id)

	face := func(idN int, exists bool, flag byte, ownEta, ownQn, ownQt float64, nbrBuf device.View, crest, coef device.View, xAxis bool) (f faceFlux, hOwn float64) {
		zN := zC
		var nEta, nQn, nQt float64
		wall := true
		if exists && src.Get(4*idN+domain.StateMaxFSL) != sim.DisabledCell {
			wall = false
			zN = bed.Get(idN)
			e, qx, qy := load(nbrBuf, idN)
			if xAxis {
				nEta, nQn, nQt = e, qx, qy
			} else {
				nEta, nQn, nQt = e, qy, qx
			}
		}
		zf := math.Max(zC, zN)
		hOwn = math.Max(0, ownEta-zf)
		var ownUn, ownUt float64
		if hOwn >= dry {
			ownUn = ownQn / hOwn
			ownUt = ownQt / hOwn
		}
		if wall {
			nEta, nQn, nQt = ownEta, -ownQn, ownQt
		}
		hN := math.Max(0, nEta-zf)
		var nUn, nUt float64
		if hN >= dry {
			nUn = nQn / hN
			nUt = nQt / hN
		}
		if !wall && pol[id]&flag != 0 {
			zc := math.Max(crest.Get(id), crest.Get(idN))
			c := 0.5 * (coef.Get(id) + coef.Get(idN))
			// orientation: poleniFlux wants (left, right) along +axis
			if idN > id {
				f = poleniFlux(ownEta, nEta, zc, c, dry)
			} else {
				f = poleniFlux(nEta, ownEta, zc, c, dry)
			}
			return
		}
		if idN > id { // own state is the left side
			f = riemannHLLC(hOwn, ownUn, ownUt, hN, nUn, nUt, dry)
		} else {
			f = riemannHLLC(hN, nUn, nUt, hOwn, ownUn, ownUt, dry)
		}
		return
	}

	// x faces use (qx, qy) as (normal, transverse); y faces swap
	fEfx, hEs := face(id+1, x < o.cols-1, domain.PoleniE, ceE, cxE, cyE, exW, zxm, cxv, true)
	fWfx, hWs := face(id-1, x > 0, domain.PoleniW, ceW, cxW, cyW, exE, zxm, cxv, true)
	fNfx, hNs := face(id+o.cols, y < o.rows-1, domain.PoleniN, ceN, cyN, cxN, exS, zym, cyv, false)
	fSfx, hSs := face(id-o.cols, y > 0, domain.PoleniS, ceS, cyS, cxS, exN, zym, cyv, false)

	dtdx := dt / o.dx
	dtdy := dt / o.dy
	hNew := hC - dtdx*(fEfx.m-fWfx.m) - dtdy*(fNfx.m-fSfx.m)
	qxNew := qxC - dtdx*(fEfx.n-fWfx.n) + dtdx*0.5*g*(hEs*hEs-hWs*hWs) - dtdy*(fNfx.t-fSfx.t)
	qyNew := qyC - dtdy*(fNfx.n-fSfx.n) + dtdy*0.5*g*(hNs*hNs-hSs*hSs) - dtdx*(fEfx.t-fWfx.t)

	o.storeCell(dst, scr, id, zC, hNew, qxNew, qyNew, etaMax, false)
}
