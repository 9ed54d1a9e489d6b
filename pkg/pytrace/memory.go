//go:build linux

/*
Copyright © 2021 GUILLAUME FOURNIER

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pytrace

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MemoryReader reads the memory of a tracee
type MemoryReader interface {
	// ReadMemory fills dst with the memory of pid at addr and returns the number of bytes read
	ReadMemory(pid int, addr uint64, dst []byte) (int, error)
}

// ProcessMemoryReader reads tracee memory with process_vm_readv, and falls back to PTRACE_PEEKDATA
// when the tracer isn't allowed to use it. The fallback must run on the tracing thread.
type ProcessMemoryReader struct{}

// ReadMemory implements MemoryReader
func (ProcessMemoryReader) ReadMemory(pid int, addr uint64, dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	local := []unix.Iovec{{Base: &dst[0]}}
	local[0].SetLen(len(dst))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(dst)}}

	n, err := unix.ProcessVMReadv(pid, local, remote, 0)
	if err == nil {
		return n, nil
	}

	n, peekErr := unix.PtracePeekData(pid, uintptr(addr), dst)
	if peekErr != nil && n == 0 {
		return 0, errors.Wrapf(peekErr, "couldn't read %d bytes at 0x%x (process_vm_readv: %v)", len(dst), addr, err)
	}
	return n, nil
}

// CapturedMemory replays the buffers captured in a raw dump
type CapturedMemory struct {
	Addr uint64
	Data []byte
}

// ReadMemory implements MemoryReader
func (cm CapturedMemory) ReadMemory(_ int, addr uint64, dst []byte) (int, error) {
	if addr != cm.Addr {
		return 0, errors.Errorf("no captured memory at 0x%x", addr)
	}
	return copy(dst, cm.Data), nil
}
