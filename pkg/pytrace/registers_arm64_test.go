//go:build linux && arm64

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
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sys/unix"
)

func entrySnapshot(nr Syscall, args ...uint64) RegisterSnapshot {
	var regs unix.PtraceRegs
	regs.Regs[8] = uint64(nr)
	copy(regs.Regs[:6], args)
	return NewRegisterSnapshot(regs)
}

func exitSnapshot(nr Syscall, ret uint64, args ...uint64) RegisterSnapshot {
	regs := entrySnapshot(nr, args...).Raw()
	regs.Regs[0] = ret
	return NewRegisterSnapshot(regs)
}

func TestRegisterSlots(t *testing.T) {
	c := qt.New(t)

	var raw unix.PtraceRegs
	for i := range raw.Regs {
		raw.Regs[i] = uint64(i + 1)
	}
	regs := NewRegisterSnapshot(raw)
	c.Assert(regs.Args(), qt.Equals, [6]uint64{1, 2, 3, 4, 5, 6})
	c.Assert(regs.SyscallNumber(), qt.Equals, Syscall(9))
	// the return value shares x0 with the first argument
	c.Assert(regs.ReturnValue(), qt.Equals, uint64(1))
}
