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
	"strings"

	"github.com/pkg/errors"
)

// Syscall is a syscall number of the traced architecture
type Syscall int32

// String returns the name of the syscall
func (s Syscall) String() string {
	if name, ok := syscallNames[s]; ok {
		return name
	}
	return fmt.Sprintf("syscall_%d", int32(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Syscall) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Syscall) UnmarshalText(text []byte) error {
	nr := ParseSyscallName(strings.TrimPrefix(string(text), "syscall_"))
	if nr == -1 {
		return errors.Wrap(ErrUnknownSyscall, string(text))
	}
	*s = nr
	return nil
}

// ParseSyscallName resolves a syscall name, or a decimal syscall number, returns -1 if the input is unknown
func ParseSyscallName(name string) Syscall {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "sys_")
	for nr, n := range syscallNames {
		if n == name {
			return nr
		}
	}
	if nr, err := strconv.ParseInt(name, 10, 32); err == nil && nr >= 0 {
		return Syscall(nr)
	}
	return -1
}
