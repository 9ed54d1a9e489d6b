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

//   Arch/ABI    arg1  arg2  arg3  arg4  arg5  arg6   nr   ret
//   arm64       x0    x1    x2    x3    x4    x5     x8   x0
//
// x0 is overwritten by the return value, arguments must be read from the entry snapshot.

// SyscallNumber returns the syscall number recorded at entry
func (r RegisterSnapshot) SyscallNumber() Syscall {
	return Syscall(int32(r.regs.Regs[8]))
}

// Arg returns the raw value of a syscall argument
func (r RegisterSnapshot) Arg(slot ArgSlot) uint64 {
	return r.regs.Regs[slot.index]
}

// ReturnValue returns the raw syscall return value
func (r RegisterSnapshot) ReturnValue() uint64 {
	return r.regs.Regs[0]
}
