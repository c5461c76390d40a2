// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// hostDevice executes kernels on the CPU. A single goroutine services the
// command queue so every command runs in submission order; barriers are
// therefore total order points by construction and are recorded as no-op
// commands.
type hostDevice struct {
	name    string
	cmds    chan func()
	drained chan struct{} // closed when the queue goroutine exits
	pending int64         // commands submitted but not yet executed
	busy    int32
	errored int32
	closed  int32
}

func init() {
	allocators["host"] = func() (Device, error) { return newHostDevice() }
}

func newHostDevice() (Device, error) {
	o := &hostDevice{
		name:    "host",
		cmds:    make(chan func(), 4096),
		drained: make(chan struct{}),
	}
	go o.serve()
	return o, nil
}

// serve consumes the command queue until Close
func (o *hostDevice) serve() {
	defer close(o.drained)
	for cmd := range o.cmds {
		o.run(cmd)
		atomic.AddInt64(&o.pending, -1)
	}
}

// run executes one command, trapping kernel panics into the errored flag
func (o *hostDevice) run(cmd func()) {
	defer func() {
		if r := recover(); r != nil {
			atomic.StoreInt32(&o.errored, 1)
			io.PfRed("device %q: command failed: %v\n", o.name, r)
		}
	}()
	cmd()
}

// enqueue places a command that is skipped once the device has errored
func (o *hostDevice) enqueue(cmd func()) error {
	return o.push(func() {
		if atomic.LoadInt32(&o.errored) == 0 {
			cmd()
		}
	})
}

// push places a command that runs even after the device has errored, so
// markers always resolve
func (o *hostDevice) push(cmd func()) error {
	if atomic.LoadInt32(&o.closed) == 1 {
		return chk.Err("device %q is closed", o.name)
	}
	if atomic.LoadInt32(&o.errored) == 1 {
		return chk.Err("device %q is errored; submit rejected", o.name)
	}
	atomic.AddInt64(&o.pending, 1)
	o.cmds <- cmd
	return nil
}

// Name returns the device name
func (o *hostDevice) Name() string { return o.name }

// IsDoubleCompatible reports full double-precision support
func (o *hostDevice) IsDoubleCompatible() bool { return true }

// MaxWorkGroupSize returns the largest local work-group the device accepts
func (o *hostDevice) MaxWorkGroupSize() int { return 1024 }

// MaxWorkItemSizes returns the per-dimension work-item limits
func (o *hostDevice) MaxWorkItemSizes() [3]int { return [3]int{1024, 1024, 64} }

// Errored reports whether a submitted command has failed
func (o *hostDevice) Errored() bool { return atomic.LoadInt32(&o.errored) == 1 }

// IsBusy reports whether submitted work has not yet resolved
func (o *hostDevice) IsBusy() bool {
	return atomic.LoadInt32(&o.busy) == 1
}

// Compile builds a program from the given source. Host kernels arrive
// pre-compiled; constants are recorded for reference only.
func (o *hostDevice) Compile(src Source) (Program, error) {
	if len(src.Kernels) == 0 {
		return nil, chk.Err("program %q: no kernels in source", src.Name)
	}
	return &hostProgram{dev: o, src: src}, nil
}

// NewBuffer creates a buffer over the given host backing block and
// allocates device storage of the same size
func (o *hostDevice) NewBuffer(name string, host []byte) (*Buffer, error) {
	if len(host) == 0 {
		return nil, chk.Err("buffer %q: empty host backing block", name)
	}
	return &Buffer{name: name, host: host, dev: make([]byte, len(host)), q: o}, nil
}

// Submit enqueues one execution of the kernel with its current arguments
func (o *hostDevice) Submit(k *Kernel) error {
	args := make([]interface{}, len(k.args))
	copy(args, k.args)
	global := k.global
	return o.enqueue(func() { runKernel(k.fn, global, args) })
}

// Barrier records a total order point. The single-consumer queue already
// executes in submission order, so the command body is empty.
func (o *hostDevice) Barrier() {
	o.enqueue(func() {})
}

// FlushAndSetMarker sets the busy flag and returns a marker that resolves,
// clearing the flag, once all previously submitted work has completed.
func (o *hostDevice) FlushAndSetMarker() *Marker {
	m := &Marker{done: make(chan struct{})}
	atomic.StoreInt32(&o.busy, 1)
	err := o.push(func() {
		atomic.StoreInt32(&o.busy, 0)
		close(m.done)
	})
	if err != nil {
		atomic.StoreInt32(&o.busy, 0)
		close(m.done)
	}
	return m
}

// BlockUntilFinished waits for the queue to drain
func (o *hostDevice) BlockUntilFinished() {
	o.FlushAndSetMarker().Wait()
}

// Close drains the queue and stops the service goroutine
func (o *hostDevice) Close() {
	if !atomic.CompareAndSwapInt32(&o.closed, 0, 1) {
		return
	}
	close(o.cmds)
	<-o.drained
}

// runKernel iterates the global work shape, splitting the outermost
// populated dimension across CPU workers. Work-item order is unspecified.
func runKernel(fn KernelFunc, global [3]int, args []interface{}) {
	nx, ny, nz := global[0], global[1], global[2]
	rows := ny * nz
	nw := runtime.NumCPU()
	if nw > rows {
		nw = rows
	}
	if nw <= 1 {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					fn([3]int{x, y, z}, args)
				}
			}
		}
		return
	}
	var wg sync.WaitGroup
	var fault atomic.Value
	chunk := (rows + nw - 1) / nw
	for w := 0; w < nw; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > rows {
			hi = rows
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fault.Store(r)
				}
			}()
			for r := lo; r < hi; r++ {
				z, y := r/ny, r%ny
				for x := 0; x < nx; x++ {
					fn([3]int{x, y, z}, args)
				}
			}
		}(lo, hi)
	}
	wg.Wait()
	if f := fault.Load(); f != nil {
		panic(f) // re-raise on the queue goroutine so the device errors out
	}
}

// hostProgram resolves kernel names against the compiled source
type hostProgram struct {
	dev *hostDevice
	src Source
}

// Kernel returns the named kernel with an argument list of length nargs
func (o *hostProgram) Kernel(name string, nargs int) (*Kernel, error) {
	fn, ok := o.src.Kernels[name]
	if !ok {
		return nil, chk.Err("program %q: kernel %q not found", o.src.Name, name)
	}
	return &Kernel{
		name:   name,
		fn:     fn,
		args:   make([]interface{}, nargs),
		local:  [3]int{1, 1, 1},
		global: [3]int{1, 1, 1},
	}, nil
}
