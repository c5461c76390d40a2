// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package model implements the driver that owns one domain, one scheme and
// one device, and advances the simulation toward caller-supplied target
// times.
package model

import (
	"math"
	"path/filepath"

	"github.com/alaamroue/src-pro-gpu/device"
	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/alaamroue/src-pro-gpu/inp"
	"github.com/alaamroue/src-pro-gpu/out"
	"github.com/alaamroue/src-pro-gpu/scheme"
	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/gosuri/uiprogress"
	"gonum.org/v1/gonum/stat"
)

// Model drives one Domain + Scheme + Device toward target times
type Model struct {
	log  sim.Logger
	prof sim.Profiler
	set  *inp.Settings

	dev device.Device
	dom *domain.Domain
	sch scheme.Scheme

	prec             sim.Precision
	simulationLength float64
	outputFrequency  float64
	selectedDevice   int
	showProgress     bool

	lastTarget float64
	dtHistory  []float64 // batch-average timesteps

	ui  *uiprogress.Progress
	bar *uiprogress.Bar
}

// New builds a model from the settings. The device list currently holds the
// in-process host device; a nonzero device index falls back to it with a
// warning. The domain host arrays are allocated here, so initial conditions
// can be loaded into Domain() before Prepare.
func New(set *inp.Settings, log sim.Logger, prof sim.Profiler) (o *Model, err error) {
	if log == nil {
		log = &sim.NopLogger{}
	}
	if prof == nil {
		prof = &sim.NopProfiler{}
	}
	if err = set.Validate(); err != nil {
		return nil, err
	}

	o = new(Model)
	o.log = log
	o.prof = prof
	o.set = set
	o.simulationLength = set.Simulation.Length
	o.outputFrequency = set.Simulation.OutputFreq
	o.showProgress = set.Simulation.ShowProgress

	kinds := device.Kinds()
	o.selectedDevice = set.Simulation.Device
	if o.selectedDevice < 0 || o.selectedDevice >= len(kinds) {
		log.LogWarning(io.Sf("device index %d is not available; using device 0", o.selectedDevice))
		o.selectedDevice = 0
	}
	if o.dev, err = device.New(kinds[o.selectedDevice]); err != nil {
		log.LogError(err.Error(), sim.Fatal, "model.New", "no usable compute device")
		return nil, err
	}

	o.prec = set.Precision()
	if o.prec == sim.Double && !o.dev.IsDoubleCompatible() {
		log.LogWarning("device lacks full double-precision support; forcing single precision")
		o.prec = sim.Single
	}

	o.dom = domain.New(log)
	if err = o.dom.SetResolution(set.Domain.ResolutionX, set.Domain.ResolutionY); err != nil {
		return nil, err
	}
	if err = o.dom.SetExtent(set.Domain.Rows, set.Domain.Cols); err != nil {
		return nil, err
	}
	if set.Domain.SparseCoupling {
		if err = o.dom.UseSparseCoupling(true); err != nil {
			return nil, err
		}
		if err = o.dom.SetSparseCouplingSize(set.Domain.CouplingSize); err != nil {
			return nil, err
		}
	}
	if err = o.dom.Prepare(o.prec); err != nil {
		return nil, err
	}

	variant, err := inp.ParseVariant(set.Scheme.Variant)
	if err != nil {
		return nil, err
	}
	tsmode, err := inp.ParseTimestepMode(set.Scheme.TimestepMode)
	if err != nil {
		return nil, err
	}
	qmode, err := inp.ParseQueueMode(set.Scheme.QueueMode)
	if err != nil {
		return nil, err
	}
	cmode, err := inp.ParseCacheMode(set.Scheme.CacheMode)
	if err != nil {
		return nil, err
	}
	climits, err := inp.ParseCacheConstraints(set.Scheme.CacheConstraints)
	if err != nil {
		return nil, err
	}

	schemeSet := scheme.Settings{
		Variant:             variant,
		Precision:           o.prec,
		TimestepMode:        tsmode,
		Timestep:            set.Scheme.Timestep,
		MaxTimestep:         set.Scheme.MaxTimestep,
		Courant:             set.Scheme.Courant,
		DryThreshold:        set.Scheme.DryThreshold,
		FrictionEffects:     set.Scheme.FrictionEffects,
		ReductionWavefronts: set.Scheme.ReductionWavefronts,
		QueueMode:           qmode,
		QueueSize:           set.Scheme.QueueSize,
		CacheMode:           cmode,
		CacheConstraints:    climits,
		WorkGroupSize:       [2]int{set.Scheme.WorkGroupSizeX, set.Scheme.WorkGroupSizeY},
	}
	if o.sch, err = scheme.New(schemeSet, o.dom, o.dev, log, prof); err != nil {
		return nil, err
	}

	o.logDetails()
	return
}

// Domain returns the domain so initial conditions can be loaded
func (o *Model) Domain() *domain.Domain { return o.dom }

// Scheme returns the scheme
func (o *Model) Scheme() scheme.Scheme { return o.sch }

// Device returns the device
func (o *Model) Device() device.Device { return o.dev }

func (o *Model) logDetails() {
	o.log.LogInfo("SIMULATION CONFIGURATION")
	o.log.LogInfo(io.Sf("  Simulation length:  %gs", o.simulationLength))
	o.log.LogInfo(io.Sf("  Output frequency:   %gs", o.outputFrequency))
	o.log.LogInfo(io.Sf("  Floating-point:     %v precision", o.prec))
	o.log.LogInfo(io.Sf("  Device:             %s", o.dev.Name()))
}

// Prepare readies the scheme: program compilation, device buffers and the
// one-off upload of the domain arrays allocated by New
func (o *Model) Prepare() error {
	if !o.dom.Prepared() {
		if err := o.dom.Prepare(o.prec); err != nil {
			return err
		}
	}
	return o.sch.Prepare()
}

// nextTarget clamps a proposed target to the simulation length and the next
// output boundary
func (o *Model) nextTarget(target float64) float64 {
	if target > o.simulationLength {
		target = o.simulationLength
	}
	if o.outputFrequency > 0 {
		// a batch may stop an epsilon short of a boundary; nudge past it
		t := o.sch.CurrentTime() + sim.TimeEps
		boundary := (math.Floor(t/o.outputFrequency) + 1) * o.outputFrequency
		if target > boundary {
			target = boundary
		}
	}
	return target
}

// RunNext advances the simulation until the target time is reached. A batch
// that makes no progress signals a rollback: the call returns and the
// caller inspects the telemetry.
func (o *Model) RunNext(target float64) error {
	if !o.sch.Ready() {
		return chk.Err("model is not prepared; call Prepare first")
	}
	T := o.nextTarget(target)
	o.lastTarget = T

	if o.showProgress && o.ui == nil {
		o.ui = uiprogress.New()
		o.ui.Start()
		o.bar = o.ui.AddBar(100)
		o.bar.AppendCompleted()
		o.bar.PrependElapsed()
	}

	for o.sch.CurrentTime() < T-sim.TimeEps {
		if err := o.sch.RunBatch(T); err != nil {
			return err
		}
		p := o.sch.Progress()
		if p.AverageTimestep > 0 {
			o.dtHistory = append(o.dtHistory, p.AverageTimestep)
		}
		if o.bar != nil {
			o.bar.Set(int(100 * o.sch.CurrentTime() / o.simulationLength))
		}

		if o.sch.Halted() {
			o.dumpState()
			return chk.Err("scheme halted at t=%g; state dumped for inspection", o.sch.CurrentTime())
		}
		if p.BatchSize > 0 && p.BatchSuccessful == 0 {
			o.log.LogWarning(io.Sf("batch made no progress at t=%g (skipped=%d); rollback signalled",
				p.CurrentTime, p.BatchSkipped))
			return nil
		}
	}

	if t := o.sch.CurrentTime(); t > T+sim.OverrunEps {
		o.log.LogWarning(io.Sf("simulation overran the target time: t=%g, target=%g", t, T))
	}
	return nil
}

// dumpState writes a compressed checkpoint next to the configured output
// directory; failures are logged, not fatal
func (o *Model) dumpState() {
	dir := o.set.DirOut
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, io.Sf("checkpoint_%.3f.zst", o.sch.CurrentTime()))
	if err := out.SaveCheckpoint(path, o.dom); err != nil {
		o.log.LogWarning(io.Sf("cannot write checkpoint: %v", err))
		return
	}
	o.log.LogInfo(io.Sf("checkpoint written to %s", path))
}

// Progress returns the scheme telemetry with the reported time clamped to
// the last target (overruns are logged but never reported upwards)
func (o *Model) Progress() scheme.Progress {
	p := o.sch.Progress()
	if o.lastTarget > 0 && p.CurrentTime > o.lastTarget {
		p.CurrentTime = o.lastTarget
	}
	return p
}

// MeanTimestep returns the mean of the batch-average timesteps so far
func (o *Model) MeanTimestep() float64 {
	if len(o.dtHistory) == 0 {
		return 0
	}
	return stat.Mean(o.dtHistory, nil)
}

// Cleanup stops the scheme worker and releases the device; idempotent
func (o *Model) Cleanup() {
	if o.bar != nil {
		o.ui.Stop()
		o.bar = nil
	}
	o.sch.Cleanup()
	o.dev.Close()
}
