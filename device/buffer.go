// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"unsafe"

	"github.com/cpmech/gosl/chk"
)

// Buffer pairs a host-visible backing block with a device allocation of the
// same size. All transfer operations are enqueued on the owning device's
// queue and complete in submission order.
type Buffer struct {
	name string
	host []byte
	dev  []byte
	q    enqueuer
}

// enqueuer is the slice of the device a buffer needs: ordered command
// submission plus the errored flag
type enqueuer interface {
	enqueue(cmd func()) error
}

// Name returns the buffer label used in log messages
func (o *Buffer) Name() string { return o.name }

// Size returns the buffer size in bytes
func (o *Buffer) Size() int { return len(o.host) }

// Host returns the host backing block
func (o *Buffer) Host() []byte { return o.host }

// WriteAll enqueues a full host-to-device transfer
func (o *Buffer) WriteAll() error {
	return o.q.enqueue(func() { copy(o.dev, o.host) })
}

// ReadAll enqueues a full device-to-host transfer
func (o *Buffer) ReadAll() error {
	return o.q.enqueue(func() { copy(o.host, o.dev) })
}

// WritePartial enqueues a host-to-device transfer of one byte range
func (o *Buffer) WritePartial(offset, nbytes int) error {
	if offset < 0 || offset+nbytes > len(o.host) {
		return chk.Err("buffer %q: partial write [%d,%d) out of range (size=%d)", o.name, offset, offset+nbytes, len(o.host))
	}
	return o.q.enqueue(func() { copy(o.dev[offset:offset+nbytes], o.host[offset:offset+nbytes]) })
}

// ReadPartial enqueues a device-to-host transfer of one byte range
func (o *Buffer) ReadPartial(offset, nbytes int) error {
	if offset < 0 || offset+nbytes > len(o.host) {
		return chk.Err("buffer %q: partial read [%d,%d) out of range (size=%d)", o.name, offset, offset+nbytes, len(o.host))
	}
	return o.q.enqueue(func() { copy(o.host[offset:offset+nbytes], o.dev[offset:offset+nbytes]) })
}

// View is a typed window over a raw allocation, selected by the precision
// tag so host and device always agree on the element width.
type View struct {
	f32 []float32
	f64 []float64
}

// Get returns element i as a double
func (v View) Get(i int) float64 {
	if v.f64 != nil {
		return v.f64[i]
	}
	return float64(v.f32[i])
}

// Set stores x into element i at the view's precision
func (v View) Set(i int, x float64) {
	if v.f64 != nil {
		v.f64[i] = x
		return
	}
	v.f32[i] = float32(x)
}

// Len returns the number of elements
func (v View) Len() int {
	if v.f64 != nil {
		return len(v.f64)
	}
	return len(v.f32)
}

// viewOf reinterprets a byte block as floats of the requested width
func viewOf(b []byte, double bool) View {
	if len(b) == 0 {
		return View{}
	}
	if double {
		return View{f64: unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), len(b)/8)}
	}
	return View{f32: unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)}
}

// DevView returns a typed view over the device allocation (kernel side)
func (o *Buffer) DevView(double bool) View { return viewOf(o.dev, double) }

// HostView returns a typed view over the host backing block
func (o *Buffer) HostView(double bool) View { return viewOf(o.host, double) }

// DevU32 returns the device allocation as unsigned 32-bit counters
func (o *Buffer) DevU32() []uint32 {
	if len(o.dev) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&o.dev[0])), len(o.dev)/4)
}

// HostU32 returns the host backing block as unsigned 32-bit counters
func (o *Buffer) HostU32() []uint32 {
	if len(o.host) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&o.host[0])), len(o.host)/4)
}

// DevU64 returns the device allocation as unsigned 64-bit IDs
func (o *Buffer) DevU64() []uint64 {
	if len(o.dev) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&o.dev[0])), len(o.dev)/8)
}

// HostU64 returns the host backing block as unsigned 64-bit IDs
func (o *Buffer) HostU64() []uint64 {
	if len(o.host) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&o.host[0])), len(o.host)/8)
}

// DevBytes returns the raw device allocation (flag arrays)
func (o *Buffer) DevBytes() []byte { return o.dev }
