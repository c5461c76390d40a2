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

// dry cells report this timestep candidate so they never constrain the
// reduction
const dryCandidate = 9999.0

func bufArg(args []interface{}, i int) *device.Buffer {
	return args[i].(*device.Buffer)
}

// facePrim loads the primitive state (η, z, normal velocity, transverse
// velocity) of the neighbour across one face. Faces on the domain border or
// against a disabled cell behave as reflective walls: the centre state is
// mirrored with the normal velocity negated.
func facePrim(src, bed device.View, nid int, exists bool, nIdx, tIdx int, dry, etaC, zC, unC, utC float64) (eta, z, un, ut float64, wall bool) {
	if exists && src.Get(4*nid+domain.StateMaxFSL) != sim.DisabledCell {
		eta = src.Get(4*nid + domain.StateFSL)
		z = bed.Get(nid)
		if h := eta - z; h >= dry {
			un = src.Get(4*nid+nIdx) / h
			ut = src.Get(4*nid+tIdx) / h
		}
		return eta, z, un, ut, false
	}
	return etaC, zC, -unC, utC, true
}

// kernFull is the Godunov-type full-timestep kernel: HLLC fluxes across the
// four faces with the hydrostatic (well-balanced) depth reconstruction,
// Poleni weir flow on flagged faces, dry handling and the per-cell CFL
// timestep candidate.
func (o *Godunov) kernFull(item [3]int, args []interface{}) {
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
	uC, vC := 0.0, 0.0
	if hC >= dry {
		uC = qxC / hC
		vC = qyC / hC
	}

	// west face: left = neighbour, right = centre
	etaW, zW, uW, vW, wallW := facePrim(src, bed, id-1, x > 0, domain.StateQx, domain.StateQy, dry, etaC, zC, uC, vC)
	zfW := math.Max(zW, zC)
	hWs := math.Max(0, etaC-zfW) // centre depth reconstructed at the face
	var fW faceFlux
	if !wallW && pol[id]&domain.PoleniW != 0 {
		zc := math.Max(zxm.Get(id-1), zxm.Get(id))
		fW = poleniFlux(etaW, etaC, zc, 0.5*(cxv.Get(id-1)+cxv.Get(id)), dry)
	} else {
		fW = riemannHLLC(math.Max(0, etaW-zfW), uW, vW, hWs, uC, vC, dry)
	}

	// east face: left = centre, right = neighbour
	etaE, zE, uE, vE, wallE := facePrim(src, bed, id+1, x < o.cols-1, domain.StateQx, domain.StateQy, dry, etaC, zC, uC, vC)
	zfE := math.Max(zC, zE)
	hEs := math.Max(0, etaC-zfE)
	var fE faceFlux
	if !wallE && pol[id]&domain.PoleniE != 0 {
		zc := math.Max(zxm.Get(id), zxm.Get(id+1))
		fE = poleniFlux(etaC, etaE, zc, 0.5*(cxv.Get(id)+cxv.Get(id+1)), dry)
	} else {
		fE = riemannHLLC(hEs, uC, vC, math.Max(0, etaE-zfE), uE, vE, dry)
	}

	// south face: left = neighbour, right = centre; normal is +y
	etaS, zS, vS, uS, wallS := facePrim(src, bed, id-o.cols, y > 0, domain.StateQy, domain.StateQx, dry, etaC, zC, vC, uC)
	zfS := math.Max(zS, zC)
	hSs := math.Max(0, etaC-zfS)
	var fS faceFlux
	if !wallS && pol[id]&domain.PoleniS != 0 {
		zc := math.Max(zym.Get(id-o.cols), zym.Get(id))
		fS = poleniFlux(etaS, etaC, zc, 0.5*(cyv.Get(id-o.cols)+cyv.Get(id)), dry)
	} else {
		fS = riemannHLLC(math.Max(0, etaS-zfS), vS, uS, hSs, vC, uC, dry)
	}

	// north face: left = centre, right = neighbour
	etaN, zN, vN, uN, wallN := facePrim(src, bed, id+o.cols, y < o.rows-1, domain.StateQy, domain.StateQx, dry, etaC, zC, vC, uC)
	zfN := math.Max(zC, zN)
	hNs := math.Max(0, etaC-zfN)
	var fN faceFlux
	if !wallN && pol[id]&domain.PoleniN != 0 {
		zc := math.Max(zym.Get(id), zym.Get(id+o.cols))
		fN = poleniFlux(etaC, etaN, zc, 0.5*(cyv.Get(id)+cyv.Get(id+o.cols)), dry)
	} else {
		fN = riemannHLLC(hNs, vC, uC, math.Max(0, etaN-zfN), vN, uN, dry)
	}

	dtdx := dt / o.dx
	dtdy := dt / o.dy
	hNew := hC - dtdx*(fE.m-fW.m) - dtdy*(fN.m-fS.m)
	qxNew := qxC - dtdx*(fE.n-fW.n) + dtdx*0.5*g*(hEs*hEs-hWs*hWs) - dtdy*(fN.t-fS.t)
	qyNew := qyC - dtdy*(fN.n-fS.n) + dtdy*0.5*g*(hNs*hNs-hSs*hSs) - dtdx*(fE.t-fW.t)

	o.storeCell(dst, scr, id, zC, hNew, qxNew, qyNew, etaMax, false)
}

// storeCell writes the updated state with dry handling, updates the running
// maximum and records the CFL candidate
func (o *Godunov) storeCell(dst, scr device.View, id int, z, h, qx, qy, etaMax float64, inertial bool) {
	dry := o.set.DryThreshold
	if h < 0 {
		h = 0
	}
	if h < dry {
		qx, qy = 0, 0
	}
	eta := z + h
	if eta > etaMax {
		etaMax = eta
	}
	dst.Set(4*id+domain.StateFSL, eta)
	dst.Set(4*id+domain.StateMaxFSL, etaMax)
	dst.Set(4*id+domain.StateQx, qx)
	dst.Set(4*id+domain.StateQy, qy)

	if h < dry {
		scr.Set(id, dryCandidate)
		return
	}
	g := sim.Gravity
	var sp float64
	if inertial {
		sp = math.Sqrt(g * h)
	} else {
		sp = math.Hypot(qx/h, qy/h) + math.Sqrt(g*h)
	}
	cand := o.set.Courant * math.Min(o.dx, o.dy) / sp
	scr.Set(id, cand)
}

func (o *Godunov) storeCellInertial(dst, scr device.View, id int, z, h, qx, qy, etaMax float64) {
	o.storeCell(dst, scr, id, z, h, qx, qy, etaMax, true)
}

// kernFriction applies the semi-implicit Manning friction update to the
// destination discharges
func (o *Godunov) kernFriction(item [3]int, args []interface{}) {
	x, y := item[0], item[1]
	if x >= o.cols || y >= o.rows {
		return
	}
	id := y*o.cols + x
	d := o.double

	ts := bufArg(args, 0).DevView(d)
	dst := bufArg(args, 1).DevView(d)
	bed := bufArg(args, 2).DevView(d)
	man := bufArg(args, 3).DevView(d)

	if dst.Get(4*id+domain.StateMaxFSL) == sim.DisabledCell {
		return
	}
	h := dst.Get(4*id+domain.StateFSL) - bed.Get(id)
	if h <= 10*o.set.DryThreshold {
		return
	}
	qx := dst.Get(4*id + domain.StateQx)
	qy := dst.Get(4*id + domain.StateQy)
	qmag := math.Hypot(qx, qy)
	if qmag < o.set.DryThreshold {
		return
	}
	n := man.Get(id)
	dt := ts.Get(0)
	denom := 1 + dt*sim.Gravity*n*n*qmag/math.Pow(h, 7.0/3.0)
	dst.Set(4*id+domain.StateQx, qx/denom)
	dst.Set(4*id+domain.StateQy, qy/denom)
}

// kernBoundaryDense sweeps all cells and adds the boundary forcing rate
// (times the timestep) to the destination free-surface level. It runs
// before the reduction so injected water constrains the next timestep:
// wetted cells write their CFL candidate into the scratch buffer.
func (o *Godunov) kernBoundaryDense(item [3]int, args []interface{}) {
	x, y := item[0], item[1]
	if x >= o.cols || y >= o.rows {
		return
	}
	id := y*o.cols + x
	d := o.double

	bnd := bufArg(args, 0).DevView(d)
	ts := bufArg(args, 1).DevView(d)
	dst := bufArg(args, 2).DevView(d)
	bed := bufArg(args, 3).DevView(d)
	scr := bufArg(args, 4).DevView(d)

	if dst.Get(4*id+domain.StateMaxFSL) == sim.DisabledCell {
		return
	}
	v := bnd.Get(id)
	if v == 0 {
		return
	}
	eta := dst.Get(4*id+domain.StateFSL) + v*ts.Get(0)
	dst.Set(4*id+domain.StateFSL, eta)
	if eta > dst.Get(4*id+domain.StateMaxFSL) {
		dst.Set(4*id+domain.StateMaxFSL, eta)
	}
	o.boundaryCandidate(scr, id, eta-bed.Get(id))
}

// boundaryCandidate tightens the timestep candidate of a cell whose depth
// the boundary kernel has just changed
func (o *Godunov) boundaryCandidate(scr device.View, id int, h float64) {
	if h < o.set.DryThreshold {
		return
	}
	cand := o.set.Courant * math.Min(o.dx, o.dy) / math.Sqrt(sim.Gravity*h)
	if cand < scr.Get(id) {
		scr.Set(id, cand)
	}
}

// kernBoundarySparse applies one coupling entry per work-item. Cell IDs are
// range-checked explicitly: a stale list must never dereference outside the
// grid.
func (o *Godunov) kernBoundarySparse(item [3]int, args []interface{}) {
	i := item[0]
	if i >= o.couplingSize {
		return
	}
	d := o.double

	ids := bufArg(args, 0).DevU64()
	vals := bufArg(args, 1).DevView(d)
	ts := bufArg(args, 2).DevView(d)
	dst := bufArg(args, 3).DevView(d)
	bed := bufArg(args, 4).DevView(d)
	scr := bufArg(args, 5).DevView(d)

	id := int(ids[i])
	if id < 0 || id >= o.cellCount {
		return
	}
	if dst.Get(4*id+domain.StateMaxFSL) == sim.DisabledCell {
		return
	}
	v := vals.Get(i)
	if v == 0 {
		return
	}
	eta := dst.Get(4*id+domain.StateFSL) + v*ts.Get(0)
	dst.Set(4*id+domain.StateFSL, eta)
	if eta > dst.Get(4*id+domain.StateMaxFSL) {
		dst.Set(4*id+domain.StateMaxFSL, eta)
	}
	o.boundaryCandidate(scr, id, eta-bed.Get(id))
}

// kernReduce computes strided partial minima over the per-cell timestep
// candidates; the advance kernel finishes the reduction
func (o *Godunov) kernReduce(item [3]int, args []interface{}) {
	k := item[0]
	if k >= o.redGroups {
		return
	}
	d := o.double
	scr := bufArg(args, 0).DevView(d)
	par := bufArg(args, 1).DevView(d)

	m := dryCandidate
	for j := k; j < o.cellCount; j += o.redGroups {
		if c := scr.Get(j); c < m {
			m = c
		}
	}
	par.Set(k, m)
}

// kernAdvance commits the iteration: advance simulated time when the
// timestep keeps the run at or below the target, otherwise skip; then set
// the next timestep from the reduction (dynamic mode only).
func (o *Godunov) kernAdvance(item [3]int, args []interface{}) {
	d := o.double
	tm := bufArg(args, 0).DevView(d)
	ts := bufArg(args, 1).DevView(d)
	avg := bufArg(args, 2).DevView(d)
	par := bufArg(args, 3).DevView(d)
	tgt := bufArg(args, 4).DevView(d)
	bdt := bufArg(args, 5).DevView(d)
	bok := bufArg(args, 6).DevU32()
	bskip := bufArg(args, 7).DevU32()

	t := tm.Get(0)
	dt := ts.Get(0)
	target := tgt.Get(0)

	if dt > 0 && t+dt <= target+sim.AdvanceEps {
		t += dt
		bok[0]++
		bdt.Set(0, bdt.Get(0)+dt)
		a := avg.Get(0)
		if a == 0 {
			a = dt
		} else {
			a += (dt - a) * 0.1
		}
		avg.Set(0, a)
	} else {
		bskip[0]++
	}

	if o.set.TimestepMode == sim.TimestepCFL {
		cand := dryCandidate
		for k := 0; k < o.redGroups; k++ {
			if c := par.Get(k); c < cand {
				cand = c
			}
		}
		if cand > o.set.MaxTimestep {
			cand = o.set.MaxTimestep
		}
		if rem := target - t; cand > rem {
			cand = rem
		}
		if cand < 0 {
			cand = 0
		}
		ts.Set(0, cand)
	}
	tm.Set(0, t)
}

// kernReset zeroes the three batch telemetry scalars
func (o *Godunov) kernReset(item [3]int, args []interface{}) {
	d := o.double
	bufArg(args, 0).DevView(d).Set(0, 0)
	bufArg(args, 1).DevU32()[0] = 0
	bufArg(args, 2).DevU32()[0] = 0
}
