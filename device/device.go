// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package device abstracts a compute device behind buffers, kernels and a
// single in-order command queue. The built-in "host" device services the
// queue on a dedicated goroutine and executes kernels on the CPU; bindings
// to a real compute API satisfy the same contract.
package device

import (
	"github.com/cpmech/gosl/chk"
)

// KernelFunc is the host-executable body of a kernel. It is invoked once
// per work-item with the item's global ID and the currently bound argument
// list. Work-item order within one submission is unspecified.
type KernelFunc func(item [3]int, args []interface{})

// Source is a kernel program handed to Compile: named kernel bodies plus
// the constants registered before compilation (recorded for the log).
type Source struct {
	Name      string
	Constants map[string]string
	Kernels   map[string]KernelFunc
}

// Program is a compiled kernel program
type Program interface {
	// Kernel returns the named kernel with an argument list of length nargs
	Kernel(name string, nargs int) (*Kernel, error)
}

// Marker resolves when all work submitted before it has completed
type Marker struct {
	done chan struct{}
}

// Wait blocks until the marker resolves
func (o *Marker) Wait() {
	<-o.done
}

// Device is one compute device with its command queue. Commands submitted
// before a Barrier complete before commands submitted after it; on the
// single in-order queue every enqueue is non-blocking.
type Device interface {

	// identification and capabilities
	Name() string
	IsDoubleCompatible() bool
	MaxWorkGroupSize() int
	MaxWorkItemSizes() [3]int

	// program and memory
	Compile(src Source) (Program, error)
	NewBuffer(name string, host []byte) (*Buffer, error)

	// queue operations
	Submit(k *Kernel) error
	Barrier()
	FlushAndSetMarker() *Marker
	BlockUntilFinished()
	IsBusy() bool

	// error state; once errored all submits fail fast
	Errored() bool

	// Close drains the queue and releases the device
	Close()
}

// allocators holds all available device drivers
var allocators = make(map[string]func() (Device, error))

// New creates a device of the given kind ("host" is always available)
func New(kind string) (Device, error) {
	alloc, ok := allocators[kind]
	if !ok {
		return nil, chk.Err("cannot find device driver named %q", kind)
	}
	return alloc()
}

// Kinds returns the registered device driver names
func Kinds() (kinds []string) {
	for k := range allocators {
		kinds = append(kinds, k)
	}
	return
}
