// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheme

import (
	"math"
	"testing"

	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
)

func Test_still01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("still01. still lake stays still (flat bed)")

	set := Settings{Variant: sim.Godunov, TimestepMode: sim.TimestepCFL, Courant: 0.5}
	dom, dev, sch := testScheme(tst, set, 10, 10, 1, 1, 0)
	defer dev.Close()
	defer sch.Cleanup()

	flatPond(dom, 0, 1)
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}

	drive(tst, sch, 10.0)
	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}

	for id := 0; id < dom.CellCount(); id++ {
		if q := math.Abs(dom.GetState(id, domain.StateQx)); q > 1e-9 {
			tst.Errorf("cell %d: |qx|=%g exceeds 1e-9", id, q)
		}
		if q := math.Abs(dom.GetState(id, domain.StateQy)); q > 1e-9 {
			tst.Errorf("cell %d: |qy|=%g exceeds 1e-9", id, q)
		}
		if d := math.Abs(dom.GetState(id, domain.StateFSL) - 1); d > 1e-9 {
			tst.Errorf("cell %d: |η−1|=%g exceeds 1e-9", id, d)
		}
	}
}

func Test_still02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("still02. still water over bathymetry, dry islands included")

	set := Settings{Variant: sim.Godunov, TimestepMode: sim.TimestepCFL, Courant: 0.5}
	dom, dev, sch := testScheme(tst, set, 8, 8, 1, 1, 0)
	defer dev.Close()
	defer sch.Cleanup()

	for id := 0; id < dom.CellCount(); id++ {
		x, y := dom.CellIndices(id)
		z := 0.1 * float64((x+2*y)%5)
		if x == 3 && y == 3 {
			z = 1.5 // island above the waterline
		}
		dom.SetBedElevation(id, z)
		dom.SetFSL(id, math.Max(z, 1.0))
	}
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}

	drive(tst, sch, 5.0)
	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}

	eps := 1e-9
	for id := 0; id < dom.CellCount(); id++ {
		z := dom.GetBed(id)
		eta := dom.GetState(id, domain.StateFSL)
		if eta < z-10*2.2e-16 {
			tst.Errorf("cell %d: η=%g dropped below the bed z=%g", id, eta, z)
		}
		if dom.GetState(id, domain.StateMaxFSL) < eta-eps {
			tst.Errorf("cell %d: ηmax fell behind η", id)
		}
		if q := math.Hypot(dom.GetState(id, domain.StateQx), dom.GetState(id, domain.StateQy)); q > eps {
			tst.Errorf("cell %d: residual momentum |q|=%g", id, q)
		}
		if z < 1.0 {
			chk.Float64(tst, "wet level preserved", eps, eta, 1.0)
		}
	}
}
