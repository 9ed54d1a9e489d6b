//go:build linux && amd64

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

//   Arch/ABI    arg1  arg2  arg3  arg4  arg5  arg6   nr        ret
//   x86-64      rdi   rsi   rdx   r10   r8    r9     orig_rax  rax

// SyscallNumber returns the syscall number recorded at entry
func (r RegisterSnapshot) SyscallNumber() Syscall {
	return Syscall(int32(r.regs.Orig_rax))
}

// Arg returns the raw value of a syscall argument
func (r RegisterSnapshot) Arg(slot ArgSlot) uint64 {
	switch slot.index {
	case 0:
		return r.regs.Rdi
	case 1:
		return r.regs.Rsi
	case 2:
		return r.regs.Rdx
	case 3:
		return r.regs.R10
	case 4:
		return r.regs.R8
	default:
		return r.regs.R9
	}
}

// ReturnValue returns the raw syscall return value
func (r RegisterSnapshot) ReturnValue() uint64 {
	return r.regs.Rax
}
