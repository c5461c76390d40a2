// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"math"
	"testing"

	"github.com/alaamroue/src-pro-gpu/inp"
	"github.com/cpmech/gosl/chk"
)

func testSettings() *inp.Settings {
	return &inp.Settings{
		Desc: "test run",
		Simulation: inp.SimulationData{
			Length:    10,
			Precision: "double",
		},
		Domain: inp.DomainData{
			ResolutionX: 1, ResolutionY: 1,
			Rows: 5, Cols: 5,
		},
		Scheme: inp.SchemeData{
			Variant:      "godunov",
			TimestepMode: "cfl",
			Courant:      0.5,
		},
	}
}

func pond(m *Model) {
	dom := m.Domain()
	for id := 0; id < dom.CellCount(); id++ {
		dom.SetBedElevation(id, 0)
		dom.SetFSL(id, 1)
	}
}

func Test_model01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model01. a target equal to the current time submits nothing")

	m, err := New(testSettings(), nil, nil)
	if err != nil {
		tst.Fatalf("New failed:\n%v", err)
	}
	defer m.Cleanup()
	pond(m)
	if err := m.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}

	if err := m.RunNext(0); err != nil {
		tst.Fatalf("RunNext failed:\n%v", err)
	}
	chk.Int(tst, "zero iterations submitted", m.Progress().TotalIterations, 0)
	chk.Float64(tst, "time untouched", 1e-15, m.Progress().CurrentTime, 0)
}

func Test_model02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model02. targets clamp to the output boundary")

	set := testSettings()
	set.Simulation.OutputFreq = 5
	m, err := New(set, nil, nil)
	if err != nil {
		tst.Fatalf("New failed:\n%v", err)
	}
	defer m.Cleanup()
	pond(m)
	if err := m.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}

	// asking for 10 stops at the first output boundary
	if err := m.RunNext(10); err != nil {
		tst.Fatalf("RunNext failed:\n%v", err)
	}
	chk.Float64(tst, "stopped at the boundary", 1e-6, m.Progress().CurrentTime, 5)

	if err := m.RunNext(10); err != nil {
		tst.Fatalf("RunNext failed:\n%v", err)
	}
	chk.Float64(tst, "reached the end", 1e-6, m.Progress().CurrentTime, 10)

	if m.MeanTimestep() <= 0 {
		tst.Errorf("mean timestep not recorded")
	}
	if m.Progress().TotalSuccessful < 1 {
		tst.Errorf("no successful iterations recorded")
	}
}

func Test_model03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model03. a no-progress batch signals a rollback")

	set := testSettings()
	set.Scheme.TimestepMode = "fixed"
	set.Scheme.Timestep = 1e5
	set.Scheme.QueueMode = "fixed"
	set.Scheme.QueueSize = 1
	m, err := New(set, nil, nil)
	if err != nil {
		tst.Fatalf("New failed:\n%v", err)
	}
	defer m.Cleanup()
	pond(m)
	if err := m.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}

	// RunNext must return (not spin) and leave the time untouched
	if err := m.RunNext(1); err != nil {
		tst.Fatalf("RunNext failed:\n%v", err)
	}
	p := m.Progress()
	chk.Int(tst, "no successful iterations", p.BatchSuccessful, 0)
	if p.BatchSkipped < 1 {
		tst.Errorf("skipped iterations not reported")
	}
	if math.Abs(p.CurrentTime) > 1e-15 {
		tst.Errorf("time advanced during a rollback: %g", p.CurrentTime)
	}
}

func Test_model04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model04. configuration errors are caught at construction")

	set := testSettings()
	set.Scheme.Variant = "spectral"
	if _, err := New(set, nil, nil); err == nil {
		tst.Errorf("unknown variant must fail")
	}

	set = testSettings()
	set.Domain.ResolutionX = -1
	if _, err := New(set, nil, nil); err == nil {
		tst.Errorf("negative resolution must fail")
	}

	set = testSettings()
	set.Simulation.Length = 0
	if _, err := New(set, nil, nil); err == nil {
		tst.Errorf("zero simulation length must fail")
	}
}
