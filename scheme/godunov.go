// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheme

import (
	"math"
	"time"

	"github.com/alaamroue/src-pro-gpu/device"
	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func init() {
	alloc := func(set Settings, dom *domain.Domain, dev device.Device, log sim.Logger, prof sim.Profiler) Scheme {
		return newGodunov(set, dom, dev, log, prof)
	}
	allocators[sim.Godunov] = alloc
	allocators[sim.Inertial] = alloc
	allocators[sim.MUSCLHancock] = alloc
}

// Godunov is the scheme core shared by all variants: it owns the two
// alternating cell-state buffers, the kernel set fixed at construction and
// the batch worker goroutine that is the only submitter on the device queue.
type Godunov struct {
	dom  *domain.Domain
	dev  device.Device
	log  sim.Logger
	prof sim.Profiler
	set  Settings

	// grid shortcuts fixed at Prepare
	double       bool
	rows, cols   int
	cellCount    int
	dx, dy       float64
	sparse       bool
	couplingSize int

	// execution dimensions
	wgX, wgY  int
	redGroups int

	// program and kernels
	prog      device.Program
	kFull     *device.Kernel
	kHalf     *device.Kernel // MUSCL-Hancock only
	kBoundary *device.Kernel
	kFriction *device.Kernel
	kReduce   *device.Kernel
	kAdvance  *device.Kernel
	kReset    *device.Kernel

	// buffers
	bufStates, bufStatesAlt        *device.Buffer
	bufBed, bufManning             *device.Buffer
	bufBoundary                    *device.Buffer
	bufCouplingIDs, bufCouplingVal *device.Buffer
	bufPoleni                      *device.Buffer
	bufZxmax, bufCx                *device.Buffer
	bufZymax, bufCy                *device.Buffer
	bufTimestep, bufTime           *device.Buffer
	bufTarget, bufDtAvg            *device.Buffer
	bufScratch, bufPartials        *device.Buffer
	bufFaceN, bufFaceE             *device.Buffer // MUSCL-Hancock only
	bufFaceS, bufFaceW             *device.Buffer
	bufBatchDt                     *device.Buffer
	bufBatchOK, bufBatchSkip       *device.Buffer

	// iteration state, owned by the worker during a batch
	alt           bool
	targetTime    float64
	importPending bool

	// host mirrors refreshed at batch end
	curTime, curTimestep float64
	dtMovAvg, batchDt    float64
	avgTimestep          float64
	batchOK, batchSkip   int
	batchRate            int
	lastBatchSize        int
	totalIters           int
	totalOK, totalSkip   int

	ctrl *queueController

	// worker lifecycle
	ready, halted bool
	reqs          chan batchRequest
	quit          chan struct{}
	workerDone    chan struct{}
}

type batchRequest struct {
	target float64
	done   chan error
}

func newGodunov(set Settings, dom *domain.Domain, dev device.Device, log sim.Logger, prof sim.Profiler) (o *Godunov) {
	o = new(Godunov)
	o.set = set
	o.dom = dom
	o.dev = dev
	o.log = log
	o.prof = prof
	if o.log == nil {
		o.log = &sim.NopLogger{}
	}
	if o.prof == nil {
		o.prof = &sim.NopProfiler{}
	}
	o.ctrl = newQueueController(set.QueueMode, set.QueueSize)
	o.log.LogInfo(io.Sf("%v scheme loaded for execution.", set.Variant))
	return
}

// frictionInFlux reports whether the full-timestep kernel already applies
// friction (the inertial update folds it into its denominator)
func (o *Godunov) frictionInFlux() bool {
	return o.set.Variant == sim.Inertial
}

func (o *Godunov) dynamic() bool {
	return o.set.TimestepMode == sim.TimestepCFL
}

// Prepare compiles the kernel program, allocates device buffers, uploads
// the domain once and starts the batch worker
func (o *Godunov) Prepare() (err error) {
	if o.ready {
		return
	}
	if !o.dom.Prepared() {
		if err = o.dom.Prepare(o.set.Precision); err != nil {
			return
		}
	}
	o.double = o.dom.Precision() == sim.Double
	o.rows, o.cols = o.dom.Rows(), o.dom.Cols()
	o.cellCount = o.dom.CellCount()
	o.dx, o.dy = o.dom.Resolution()
	o.sparse = o.dom.SparseCoupling()
	o.couplingSize = o.dom.CouplingSize()

	o.prepareExecDimensions()
	if err = o.prepareCode(); err != nil {
		return
	}
	if err = o.prepareMemory(); err != nil {
		return
	}
	if err = o.prepareKernels(); err != nil {
		return
	}
	if err = o.prepareSimulation(); err != nil {
		return
	}
	o.logDetails()

	o.reqs = make(chan batchRequest)
	o.quit = make(chan struct{})
	o.workerDone = make(chan struct{})
	go o.worker()

	o.dom.SetStateReader(o)
	o.ready = true
	return
}

// prepareExecDimensions derives the work-group shapes from the device limits
func (o *Godunov) prepareExecDimensions() {
	wgc := int(math.Floor(math.Sqrt(float64(o.dev.MaxWorkGroupSize()))))
	sizes := o.dev.MaxWorkItemSizes()
	wg := wgc
	if sizes[0] < wg {
		wg = sizes[0]
	}
	if sizes[1] < wg {
		wg = sizes[1]
	}
	o.wgX, o.wgY = wg, wg
	if o.set.WorkGroupSize[0] > 0 {
		o.wgX = o.set.WorkGroupSize[0]
	}
	if o.set.WorkGroupSize[1] > 0 {
		o.wgY = o.set.WorkGroupSize[1]
	}
	o.redGroups = o.set.ReductionWavefronts
	if o.redGroups > o.cellCount {
		o.redGroups = o.cellCount
	}
	if o.redGroups < 1 {
		o.redGroups = 1
	}
}

// prepareCode assembles and compiles the kernel program for the variant
func (o *Godunov) prepareCode() (err error) {
	kernels := map[string]device.KernelFunc{
		"per_Friction":       o.kernFriction,
		"bdy_cell":           o.kernBoundaryDense,
		"bdy_coupled":        o.kernBoundarySparse,
		"tst_Reduce":         o.kernReduce,
		"tst_Advance_Normal": o.kernAdvance,
		"tst_ResetCounters":  o.kernReset,
	}
	switch o.set.Variant {
	case sim.Inertial:
		kernels["ine_cacheDisabled"] = o.kernFullInertial
	case sim.MUSCLHancock:
		kernels["mch_1st_cacheNone"] = o.kernHalfMUSCL
		kernels["mch_2nd_cacheNone"] = o.kernFullMUSCL
	default:
		kernels["gts_cacheDisabled"] = o.kernFull
	}
	src := device.Source{
		Name: io.Sf("scheme-%v", o.set.Variant),
		Constants: map[string]string{
			"VERY_SMALL":     io.Sf("%g", o.set.DryThreshold),
			"QUITE_SMALL":    io.Sf("%g", 10*o.set.DryThreshold),
			"COURANT_NUMBER": io.Sf("%g", o.set.Courant),
			"DOMAIN_ROWS":    io.Sf("%d", o.rows),
			"DOMAIN_COLS":    io.Sf("%d", o.cols),
			"DOMAIN_DELTAX":  io.Sf("%g", o.dx),
			"DOMAIN_DELTAY":  io.Sf("%g", o.dy),
		},
		Kernels: kernels,
	}
	o.prog, err = o.dev.Compile(src)
	if err != nil {
		chk.Panic("kernel program compilation failed:\n%v", err)
	}
	return nil
}

// scalarBuffer allocates a device buffer over a fresh host block of n bytes
func (o *Godunov) scalarBuffer(name string, n int) *device.Buffer {
	b, err := o.dev.NewBuffer(name, make([]byte, n))
	if err != nil {
		chk.Panic("buffer allocation failed (out of memory?): %v", err)
	}
	return b
}

// domainBuffer wraps an existing host block in a device buffer
func (o *Godunov) domainBuffer(name string, host []byte) *device.Buffer {
	b, err := o.dev.NewBuffer(name, host)
	if err != nil {
		chk.Panic("buffer allocation failed (out of memory?): %v", err)
	}
	return b
}

// prepareMemory creates the device buffers. The two cell-state buffers
// share the domain's single host block; readback always lands there.
func (o *Godunov) prepareMemory() (err error) {
	fs := o.set.Precision.Size()

	states := o.dom.States().Bytes()
	o.bufStates = o.domainBuffer("Cell states", states)
	o.bufStatesAlt = o.domainBuffer("Cell states (alternate)", states)
	o.bufBed = o.domainBuffer("Bed elevations", o.dom.Bed().Bytes())
	o.bufManning = o.domainBuffer("Manning coefficients", o.dom.Manning().Bytes())
	if o.sparse {
		o.bufCouplingIDs = o.domainBuffer("Coupling IDs", o.dom.CouplingIDBytes())
		o.bufCouplingVal = o.domainBuffer("Coupling values", o.dom.CouplingValues().Bytes())
	} else {
		o.bufBoundary = o.domainBuffer("Boundary values", o.dom.Boundary().Bytes())
	}
	o.bufPoleni = o.domainBuffer("Poleni flags", o.dom.PoleniBytes())
	o.bufZxmax = o.domainBuffer("Crest elevations X", o.dom.ZxMax().Bytes())
	o.bufCx = o.domainBuffer("Weir coefficients X", o.dom.Cx().Bytes())
	o.bufZymax = o.domainBuffer("Crest elevations Y", o.dom.ZyMax().Bytes())
	o.bufCy = o.domainBuffer("Weir coefficients Y", o.dom.Cy().Bytes())

	o.bufTimestep = o.scalarBuffer("Timestep", fs)
	o.bufTime = o.scalarBuffer("Time", fs)
	o.bufTarget = o.scalarBuffer("Target time (sync)", fs)
	o.bufDtAvg = o.scalarBuffer("Timestep moving average", fs)
	o.bufScratch = o.scalarBuffer("Timestep reduction scratch", o.cellCount*fs)
	o.bufPartials = o.scalarBuffer("Timestep reduction partials", o.redGroups*fs)
	o.bufBatchDt = o.scalarBuffer("Batch timesteps cumulative", fs)
	o.bufBatchOK = o.scalarBuffer("Batch successful iterations", 4)
	o.bufBatchSkip = o.scalarBuffer("Batch skipped iterations", 4)

	if o.set.Variant == sim.MUSCLHancock {
		n := 4 * o.cellCount * fs
		o.bufFaceN = o.scalarBuffer("Face extrapolations N", n)
		o.bufFaceE = o.scalarBuffer("Face extrapolations E", n)
		o.bufFaceS = o.scalarBuffer("Face extrapolations S", n)
		o.bufFaceW = o.scalarBuffer("Face extrapolations W", n)
	}

	setScalar(o.bufTimestep, o.double, o.set.Timestep)
	setScalar(o.bufTime, o.double, 0)
	setScalar(o.bufTarget, o.double, 0)
	setScalar(o.bufDtAvg, o.double, 0)
	setScalar(o.bufBatchDt, o.double, 0)
	return
}

// prepareKernels fetches the kernels and binds the static argument lists
func (o *Godunov) prepareKernels() (err error) {
	fullName := "gts_cacheDisabled"
	switch o.set.Variant {
	case sim.Inertial:
		fullName = "ine_cacheDisabled"
	case sim.MUSCLHancock:
		fullName = "mch_2nd_cacheNone"
	}
	nfull := 11
	if o.set.Variant == sim.MUSCLHancock {
		nfull = 15
	}
	if o.kFull, err = o.prog.Kernel(fullName, nfull); err != nil {
		return
	}
	o.kFull.SetGroupSize(o.wgX, o.wgY, 1)
	o.kFull.SetGlobalSize(o.cols, o.rows, 1)
	if o.set.Variant == sim.MUSCLHancock {
		err = o.kFull.AssignArgs(o.bufTimestep, o.bufBed, o.bufStates, o.bufStatesAlt,
			o.bufManning, o.bufPoleni, o.bufZxmax, o.bufZymax, o.bufCx, o.bufCy, o.bufScratch,
			o.bufFaceN, o.bufFaceE, o.bufFaceS, o.bufFaceW)
	} else {
		err = o.kFull.AssignArgs(o.bufTimestep, o.bufBed, o.bufStates, o.bufStatesAlt,
			o.bufManning, o.bufPoleni, o.bufZxmax, o.bufZymax, o.bufCx, o.bufCy, o.bufScratch)
	}
	if err != nil {
		return
	}

	if o.set.Variant == sim.MUSCLHancock {
		if o.kHalf, err = o.prog.Kernel("mch_1st_cacheNone", 7); err != nil {
			return
		}
		o.kHalf.SetGroupSize(o.wgX, o.wgY, 1)
		o.kHalf.SetGlobalSize(o.cols, o.rows, 1)
		if err = o.kHalf.AssignArgs(o.bufTimestep, o.bufBed, o.bufStates,
			o.bufFaceN, o.bufFaceE, o.bufFaceS, o.bufFaceW); err != nil {
			return
		}
	}

	if o.kFriction, err = o.prog.Kernel("per_Friction", 5); err != nil {
		return
	}
	o.kFriction.SetGroupSize(o.wgX, o.wgY, 1)
	o.kFriction.SetGlobalSize(o.cols, o.rows, 1)
	if err = o.kFriction.AssignArgs(o.bufTimestep, o.bufStatesAlt, o.bufBed, o.bufManning, o.bufTime); err != nil {
		return
	}

	if o.sparse {
		if o.kBoundary, err = o.prog.Kernel("bdy_coupled", 6); err != nil {
			return
		}
		o.kBoundary.SetGroupSize(8, 1, 1)
		o.kBoundary.SetGlobalSize(8*((o.couplingSize+7)/8), 1, 1)
		err = o.kBoundary.AssignArgs(o.bufCouplingIDs, o.bufCouplingVal, o.bufTimestep, o.bufStatesAlt, o.bufBed, o.bufScratch)
	} else {
		if o.kBoundary, err = o.prog.Kernel("bdy_cell", 5); err != nil {
			return
		}
		o.kBoundary.SetGroupSize(o.wgX, o.wgY, 1)
		o.kBoundary.SetGlobalSize(o.cols, o.rows, 1)
		err = o.kBoundary.AssignArgs(o.bufBoundary, o.bufTimestep, o.bufStatesAlt, o.bufBed, o.bufScratch)
	}
	if err != nil {
		return
	}

	if o.kReduce, err = o.prog.Kernel("tst_Reduce", 2); err != nil {
		return
	}
	o.kReduce.SetGroupSize(o.redGroups, 1, 1)
	o.kReduce.SetGlobalSize(o.redGroups, 1, 1)
	if err = o.kReduce.AssignArgs(o.bufScratch, o.bufPartials); err != nil {
		return
	}

	if o.kAdvance, err = o.prog.Kernel("tst_Advance_Normal", 8); err != nil {
		return
	}
	if err = o.kAdvance.AssignArgs(o.bufTime, o.bufTimestep, o.bufDtAvg, o.bufPartials,
		o.bufTarget, o.bufBatchDt, o.bufBatchOK, o.bufBatchSkip); err != nil {
		return
	}

	if o.kReset, err = o.prog.Kernel("tst_ResetCounters", 3); err != nil {
		return
	}
	return o.kReset.AssignArgs(o.bufBatchDt, o.bufBatchOK, o.bufBatchSkip)
}

// prepareSimulation uploads every host array once and resets the iteration
// state
func (o *Godunov) prepareSimulation() (err error) {
	o.log.LogInfo(io.Sf("Initial domain volume: %g m3", o.dom.TotalVolume()))
	o.log.LogInfo("Copying domain data to device...")

	bufs := []*device.Buffer{
		o.bufStates, o.bufStatesAlt, o.bufBed, o.bufManning, o.bufPoleni,
		o.bufZxmax, o.bufCx, o.bufZymax, o.bufCy,
		o.bufTime, o.bufTimestep, o.bufTarget, o.bufDtAvg,
		o.bufBatchDt, o.bufBatchOK, o.bufBatchSkip,
		o.bufScratch, o.bufPartials,
	}
	if o.sparse {
		bufs = append(bufs, o.bufCouplingIDs, o.bufCouplingVal)
	} else {
		bufs = append(bufs, o.bufBoundary)
	}
	for _, b := range bufs {
		if err = b.WriteAll(); err != nil {
			return
		}
	}
	o.dev.BlockUntilFinished()
	if o.dev.Errored() {
		return chk.Err("device failed while uploading domain data")
	}

	o.alt = false
	o.importPending = false
	o.curTimestep = o.set.Timestep
	o.curTime = 0
	return
}

// logDetails writes the scheme configuration to the log
func (o *Godunov) logDetails() {
	name := "GODUNOV-TYPE 1ST-ORDER-ACCURATE SCHEME"
	switch o.set.Variant {
	case sim.Inertial:
		name = "SIMPLIFIED INERTIAL SCHEME"
	case sim.MUSCLHancock:
		name = "MUSCL-HANCOCK 2ND-ORDER-ACCURATE SCHEME"
	}
	mode := "Fixed"
	courant := "N/A"
	if o.dynamic() {
		mode = "Dynamic"
		courant = io.Sf("%g", o.set.Courant)
	}
	queue := io.Sf("Fixed size (%d)", o.ctrl.size)
	if o.set.QueueMode == sim.QueueAuto {
		queue = io.Sf("Automatic (initial %d)", o.ctrl.size)
	}
	o.log.LogInfo(name)
	o.log.LogInfo(io.Sf("  Timestep mode:      %s", mode))
	o.log.LogInfo(io.Sf("  Courant number:     %s", courant))
	o.log.LogInfo(io.Sf("  Initial timestep:   %gs", o.set.Timestep))
	o.log.LogInfo(io.Sf("  Data reduction:     %d divisions", o.redGroups))
	o.log.LogInfo(io.Sf("  Riemann solver:     HLLC (Approximate)"))
	o.log.LogInfo(io.Sf("  Friction effects:   %v", o.set.FrictionEffects))
	o.log.LogInfo(io.Sf("  Kernel queue mode:  %s", queue))
}

// worker services batch requests; it is the only goroutine that submits to
// the device queue
func (o *Godunov) worker() {
	defer close(o.workerDone)
	for {
		select {
		case <-o.quit:
			return
		case req := <-o.reqs:
			req.done <- o.runBatch(req.target)
		}
	}
}

// RunBatch schedules up to Q iterations toward the target time and returns
// once the completion marker has resolved and host telemetry is refreshed
func (o *Godunov) RunBatch(target float64) error {
	if !o.ready {
		return chk.Err("scheme is not ready")
	}
	if o.halted {
		return chk.Err("scheme is halted; cleanup and reconfigure to continue")
	}
	done := make(chan error, 1)
	o.reqs <- batchRequest{target: target, done: done}
	return <-done
}

// runBatch executes one batch on the worker goroutine
func (o *Godunov) runBatch(target float64) (err error) {
	o.prof.Profile("BatchRunning", sim.ProfileStart)
	defer o.prof.Profile("BatchRunning", sim.ProfileEnd)
	start := time.Now()

	// target changed: sync the device copy and truncate a dynamic timestep
	// that would overshoot
	if target != o.targetTime {
		o.targetTime = target
		setScalar(o.bufTarget, o.double, target)
		if err = o.bufTarget.WriteAll(); err != nil {
			return
		}
		if o.dynamic() && o.curTime+o.curTimestep > target {
			o.curTimestep = target - o.curTime
			o.log.LogWarning("timestep override requested to meet the target time")
			setScalar(o.bufTimestep, o.double, o.curTimestep)
			if err = o.bufTimestep.WriteAll(); err != nil {
				return
			}
		}
	}

	// pending boundary import: upload between iterations only
	if o.importPending {
		o.importPending = false
		if o.sparse {
			err = o.bufCouplingVal.WriteAll()
		} else {
			err = o.bufBoundary.WriteAll()
		}
		if err != nil {
			return
		}
	}

	q := 0
	if o.curTime < target-sim.TimeEps {
		if err = o.dev.Submit(o.kReset); err != nil {
			return
		}
		q = o.ctrl.size
		for i := 0; i < q; i++ {
			if err = o.scheduleIteration(); err != nil {
				return
			}
		}
	}
	o.lastBatchSize = q

	// read back telemetry and block on the completion marker
	o.prof.Profile("QueueReading", sim.ProfileStart)
	for _, b := range []*device.Buffer{o.bufTimestep, o.bufDtAvg, o.bufTime, o.bufBatchSkip, o.bufBatchOK, o.bufBatchDt} {
		if err = b.ReadAll(); err != nil {
			return
		}
	}
	o.dev.BlockUntilFinished()
	o.prof.Profile("QueueReading", sim.ProfileEnd)

	if o.dev.Errored() {
		o.ready = false
		o.halted = true
		return chk.Err("device queue failed; scheme is no longer ready")
	}

	o.readKeyStatistics()
	o.totalIters += q
	o.totalOK += o.batchOK
	o.totalSkip += o.batchSkip
	o.ctrl.update(o.batchOK, time.Since(start).Seconds())

	// collapsing timestep: halt before the run grinds to a standstill
	if o.dynamic() && o.curTime > 0.1 && o.dtMovAvg > 0 && o.dtMovAvg < 1e-3 {
		o.halted = true
		o.log.LogError("timestep moving average collapsed; simulation is too slow to continue",
			sim.ModelStop, "scheme.runBatch", "check the domain inputs and the Courant number")
	}
	return
}

// scheduleIteration submits one kernel chain with inter-stage barriers and
// flips the buffer alternation
func (o *Godunov) scheduleIteration() (err error) {
	src, dst := o.bufStates, o.bufStatesAlt
	if o.alt {
		src, dst = o.bufStatesAlt, o.bufStates
	}

	if o.kHalf != nil {
		if err = o.kHalf.SetArg(2, src); err != nil {
			return
		}
		if err = o.dev.Submit(o.kHalf); err != nil {
			return
		}
		o.dev.Barrier()
	}

	o.kFull.SetArg(2, src)
	o.kFull.SetArg(3, dst)
	o.prof.Profile("oclKernelFullTimestep", sim.ProfileStart)
	if err = o.dev.Submit(o.kFull); err != nil {
		return
	}
	o.prof.Profile("oclKernelFullTimestep", sim.ProfileEnd)
	o.dev.Barrier()

	if o.set.FrictionEffects && !o.frictionInFlux() {
		o.kFriction.SetArg(1, dst)
		if err = o.dev.Submit(o.kFriction); err != nil {
			return
		}
		o.dev.Barrier()
	}

	if o.sparse {
		o.kBoundary.SetArg(3, dst)
	} else {
		o.kBoundary.SetArg(2, dst)
	}
	o.prof.Profile("oclKernelBoundary", sim.ProfileStart)
	if err = o.dev.Submit(o.kBoundary); err != nil {
		return
	}
	o.prof.Profile("oclKernelBoundary", sim.ProfileEnd)
	o.dev.Barrier()

	if o.dynamic() {
		if err = o.dev.Submit(o.kReduce); err != nil {
			return
		}
		o.dev.Barrier()
	}

	if err = o.dev.Submit(o.kAdvance); err != nil {
		return
	}
	o.dev.Barrier()

	o.alt = !o.alt
	return
}

// readKeyStatistics pulls the telemetry scalars from the host blocks
func (o *Godunov) readKeyStatistics() {
	last := o.batchOK
	o.curTimestep = getScalar(o.bufTimestep, o.double)
	o.dtMovAvg = getScalar(o.bufDtAvg, o.double)
	o.curTime = getScalar(o.bufTime, o.double)
	o.batchDt = getScalar(o.bufBatchDt, o.double)
	o.batchOK = int(o.bufBatchOK.HostU32()[0])
	o.batchSkip = int(o.bufBatchSkip.HostU32()[0])
	if o.batchOK > last {
		o.batchRate = o.batchOK - last
	} else {
		o.batchRate = 1
	}
	if o.batchOK > 0 {
		o.avgTimestep = o.batchDt / float64(o.batchOK)
	} else {
		o.avgTimestep = 0
	}
}

// ImportBoundaries flags new boundary data for upload at the next batch
func (o *Godunov) ImportBoundaries() {
	o.importPending = true
}

// ReadBack pulls the current cell-state buffer into the domain host arrays
func (o *Godunov) ReadBack() error {
	if !o.ready {
		return chk.Err("scheme is not ready")
	}
	o.prof.Profile("readDomainAll", sim.ProfileStart)
	defer o.prof.Profile("readDomainAll", sim.ProfileEnd)
	cur := o.bufStates
	if o.alt {
		cur = o.bufStatesAlt
	}
	if err := cur.ReadAll(); err != nil {
		return err
	}
	o.dev.BlockUntilFinished()
	if o.dev.Errored() {
		return chk.Err("device queue failed during readback")
	}
	return nil
}

// Cleanup stops the worker and marks the scheme not ready; idempotent
func (o *Godunov) Cleanup() {
	if o.quit != nil {
		select {
		case <-o.workerDone:
		default:
			close(o.quit)
			<-o.workerDone
		}
		o.quit = nil
	}
	o.ready = false
}

// Ready reports whether Prepare completed and no fatal error occurred
func (o *Godunov) Ready() bool { return o.ready }

// Halted reports whether the scheme refuses further batches
func (o *Godunov) Halted() bool { return o.halted }

// CurrentTime returns the simulated time after the last batch
func (o *Godunov) CurrentTime() float64 { return o.curTime }

// CurrentTimestep returns the timestep after the last batch
func (o *Godunov) CurrentTimestep() float64 { return o.curTimestep }

// Progress returns the batch telemetry
func (o *Godunov) Progress() Progress {
	return Progress{
		CurrentTime:     o.curTime,
		CurrentTimestep: o.curTimestep,
		AverageTimestep: o.avgTimestep,
		BatchSize:       o.lastBatchSize,
		BatchSuccessful: o.batchOK,
		BatchSkipped:    o.batchSkip,
		TotalIterations: o.totalIters,
		TotalSuccessful: o.totalOK,
		TotalSkipped:    o.totalSkip,
	}
}

// setScalar stores one value into a scalar buffer's host block
func setScalar(b *device.Buffer, double bool, v float64) {
	b.HostView(double).Set(0, v)
}

// getScalar loads one value from a scalar buffer's host block
func getScalar(b *device.Buffer, double bool) float64 {
	return b.HostView(double).Get(0)
}
