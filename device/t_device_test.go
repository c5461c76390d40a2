// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"bytes"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_device01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("device01. host device capabilities and registry")

	dev, err := New("host")
	if err != nil {
		tst.Errorf("cannot create host device:\n%v", err)
		return
	}
	defer dev.Close()

	if dev.Name() != "host" {
		tst.Errorf("wrong device name: %q", dev.Name())
	}
	if !dev.IsDoubleCompatible() {
		tst.Errorf("host device must support double precision")
	}
	if dev.MaxWorkGroupSize() < 1 {
		tst.Errorf("invalid max work-group size")
	}
	if _, err := New("quantum"); err == nil {
		tst.Errorf("unknown device kind must fail")
	}
}

func Test_device02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("device02. buffer transfer round trip")

	dev, _ := New("host")
	defer dev.Close()

	host := make([]byte, 64)
	for i := range host {
		host[i] = byte(i)
	}
	orig := append([]byte(nil), host...)

	buf, err := dev.NewBuffer("test", host)
	if err != nil {
		tst.Errorf("buffer creation failed:\n%v", err)
		return
	}

	// write, clobber the host block, read back: device copy must restore it
	buf.WriteAll()
	dev.BlockUntilFinished()
	for i := range host {
		host[i] = 0
	}
	buf.ReadAll()
	dev.BlockUntilFinished()
	if !bytes.Equal(host, orig) {
		tst.Errorf("transfer round trip corrupted data")
	}

	// partial window
	host[8] = 255
	buf.WritePartial(8, 1)
	dev.BlockUntilFinished()
	host[8] = 0
	buf.ReadPartial(8, 1)
	dev.BlockUntilFinished()
	if host[8] != 255 {
		tst.Errorf("partial transfer round trip failed")
	}

	// out-of-range windows must fail without enqueueing
	if err := buf.WritePartial(60, 8); err == nil {
		tst.Errorf("out-of-range partial write must fail")
	}
	if err := buf.ReadPartial(-1, 4); err == nil {
		tst.Errorf("out-of-range partial read must fail")
	}
}

func Test_device03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("device03. kernel submission, ordering and markers")

	dev, _ := New("host")
	defer dev.Close()

	host := make([]byte, 8*16)
	buf, _ := dev.NewBuffer("vals", host)

	src := Source{
		Name: "test",
		Kernels: map[string]KernelFunc{
			"fill": func(item [3]int, args []interface{}) {
				b := args[0].(*Buffer).DevView(true)
				b.Set(item[0], float64(item[0])+args[1].(float64))
			},
		},
	}
	prog, err := dev.Compile(src)
	if err != nil {
		tst.Errorf("compile failed:\n%v", err)
		return
	}
	if _, err := prog.Kernel("missing", 0); err == nil {
		tst.Errorf("unknown kernel name must fail")
	}

	k, err := prog.Kernel("fill", 2)
	if err != nil {
		tst.Errorf("kernel lookup failed:\n%v", err)
		return
	}
	k.SetGlobalSize(16, 1, 1)
	k.AssignArgs(buf, 100.0)

	dev.Submit(k)
	dev.Barrier()
	buf.ReadAll()

	m := dev.FlushAndSetMarker()
	m.Wait()
	if dev.IsBusy() {
		tst.Errorf("device must not be busy after the marker resolves")
	}

	v := buf.HostView(true)
	for i := 0; i < 16; i++ {
		chk.Float64(tst, "fill value", 1e-15, v.Get(i), float64(i)+100)
	}
}

func Test_device04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("device04. errored device fails fast")

	dev, _ := New("host")
	defer dev.Close()

	src := Source{
		Name: "boom",
		Kernels: map[string]KernelFunc{
			"panic": func(item [3]int, args []interface{}) {
				panic("kernel fault")
			},
		},
	}
	prog, _ := dev.Compile(src)
	k, _ := prog.Kernel("panic", 0)
	k.SetGlobalSize(1, 1, 1)

	dev.Submit(k)
	dev.BlockUntilFinished()
	if !dev.Errored() {
		tst.Errorf("device must be errored after a kernel fault")
	}
	if err := dev.Submit(k); err == nil {
		tst.Errorf("submit on an errored device must fail fast")
	}
}
