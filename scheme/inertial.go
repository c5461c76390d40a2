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

// kernFullInertial is the simplified-inertial full-timestep kernel: face
// discharges from the explicit inertial update with Manning friction folded
// in, mass balance from the face divergence, cell discharges from the face
// averages.
func (o *Godunov) kernFullInertial(item [3]int, args []interface{}) {
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
	man := bufArg(args, 4).DevView(d)
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

	// inertial face discharge oriented left-to-right along the positive
	// axis: explicit pressure term, friction folded into the denominator
	face := func(idL, idR, qIdx int, delta float64, crest device.View, coef device.View, flagged bool) float64 {
		etaL := src.Get(4*idL + domain.StateFSL)
		etaR := src.Get(4*idR + domain.StateFSL)
		zf := math.Max(bed.Get(idL), bed.Get(idR))
		hf := math.Max(etaL, etaR) - zf
		if hf <= dry {
			return 0
		}
		if flagged {
			zc := math.Max(crest.Get(idL), crest.Get(idR))
			c := 0.5 * (coef.Get(idL) + coef.Get(idR))
			return poleniFlux(etaL, etaR, zc, c, dry).m
		}
		qAvg := 0.5 * (src.Get(4*idL+qIdx) + src.Get(4*idR+qIdx))
		nf := 0.5 * (man.Get(idL) + man.Get(idR))
		q := (qAvg - g*hf*dt*(etaR-etaL)/delta) / (1 + g*nf*nf*dt*math.Abs(qAvg)/math.Pow(hf, 7.0/3.0))
		return q
	}

	active := func(nid int, exists bool) bool {
		return exists && src.Get(4*nid+domain.StateMaxFSL) != sim.DisabledCell
	}

	var qfW, qfE, qfS, qfN float64
	if active(id-1, x > 0) {
		qfW = face(id-1, id, domain.StateQx, o.dx, zxm, cxv, pol[id]&domain.PoleniW != 0)
	}
	if active(id+1, x < o.cols-1) {
		qfE = face(id, id+1, domain.StateQx, o.dx, zxm, cxv, pol[id]&domain.PoleniE != 0)
	}
	if active(id-o.cols, y > 0) {
		qfS = face(id-o.cols, id, domain.StateQy, o.dy, zym, cyv, pol[id]&domain.PoleniS != 0)
	}
	if active(id+o.cols, y < o.rows-1) {
		qfN = face(id, id+o.cols, domain.StateQy, o.dy, zym, cyv, pol[id]&domain.PoleniN != 0)
	}

	hNew := hC - dt/o.dx*(qfE-qfW) - dt/o.dy*(qfN-qfS)
	qxNew := 0.5 * (qfE + qfW)
	qyNew := 0.5 * (qfN + qfS)

	o.storeCellInertial(dst, scr, id, zC, hNew, qxNew, qyNew, etaMax)
}
