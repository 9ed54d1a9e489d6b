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
	"golang.org/x/sys/unix"
)

// RegisterSnapshot is a read-only view of the general purpose registers captured at a syscall stop
type RegisterSnapshot struct {
	regs unix.PtraceRegs
}

// NewRegisterSnapshot wraps the registers retrieved with PTRACE_GETREGS
func NewRegisterSnapshot(regs unix.PtraceRegs) RegisterSnapshot {
	return RegisterSnapshot{regs: regs}
}

// Raw returns a copy of the captured registers
func (r RegisterSnapshot) Raw() unix.PtraceRegs {
	return r.regs
}

// ArgSlot is the position of a syscall argument. Its only values are Arg0 to Arg5.
type ArgSlot struct {
	index uint8
}

// Index returns the position of the argument, between 0 and 5
func (s ArgSlot) Index() int {
	return int(s.index)
}

// Syscall argument slots
var (
	Arg0 = ArgSlot{index: 0}
	Arg1 = ArgSlot{index: 1}
	Arg2 = ArgSlot{index: 2}
	Arg3 = ArgSlot{index: 3}
	Arg4 = ArgSlot{index: 4}
	Arg5 = ArgSlot{index: 5}
)

// ArgSlots lists the six argument slots in ABI order
var ArgSlots = [6]ArgSlot{Arg0, Arg1, Arg2, Arg3, Arg4, Arg5}

// Args returns the six syscall arguments in ABI order
func (r RegisterSnapshot) Args() [6]uint64 {
	var args [6]uint64
	for i, slot := range ArgSlots {
		args[i] = r.Arg(slot)
	}
	return args
}
