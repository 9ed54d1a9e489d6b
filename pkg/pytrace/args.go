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
	"fmt"
	"strconv"
)

// Pointer is a tracee address, it is never dereferenced when rendered
type Pointer uint64

// String renders the address the way printf's %p does
func (p Pointer) String() string {
	if p == 0 {
		return "(nil)"
	}
	return fmt.Sprintf("0x%x", uint64(p))
}

func argInt(regs RegisterSnapshot, slot ArgSlot) string {
	return strconv.FormatInt(int64(int32(regs.Arg(slot))), 10)
}

func argInt64(regs RegisterSnapshot, slot ArgSlot) string {
	return strconv.FormatInt(int64(regs.Arg(slot)), 10)
}

func argUint64(regs RegisterSnapshot, slot ArgSlot) string {
	return strconv.FormatUint(regs.Arg(slot), 10)
}

func argPointer(regs RegisterSnapshot, slot ArgSlot) string {
	return Pointer(regs.Arg(slot)).String()
}

func retInt(regs RegisterSnapshot) string {
	return strconv.FormatInt(int64(int32(regs.ReturnValue())), 10)
}

func retPointer(regs RegisterSnapshot) string {
	return Pointer(regs.ReturnValue()).String()
}

func retUint64(regs RegisterSnapshot) string {
	return strconv.FormatUint(regs.ReturnValue(), 10)
}
