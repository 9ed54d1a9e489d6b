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
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
)

func TestParseSyscallName(t *testing.T) {
	c := qt.New(t)

	c.Assert(ParseSyscallName("write"), qt.Equals, SysWrite)
	c.Assert(ParseSyscallName("SYS_close"), qt.Equals, SysClose)
	c.Assert(ParseSyscallName(" openat "), qt.Equals, SysOpenat)
	c.Assert(ParseSyscallName("42"), qt.Equals, Syscall(42))
	c.Assert(ParseSyscallName("not_a_syscall"), qt.Equals, Syscall(-1))
	c.Assert(ParseSyscallName("-3"), qt.Equals, Syscall(-1))
}

func TestSyscallText(t *testing.T) {
	c := qt.New(t)

	c.Assert(SysGetpid.String(), qt.Equals, "getpid")
	c.Assert(Syscall(9999).String(), qt.Equals, "syscall_9999")

	var nr Syscall
	c.Assert(nr.UnmarshalText([]byte("syscall_9999")), qt.IsNil)
	c.Assert(nr, qt.Equals, Syscall(9999))
	c.Assert(nr.UnmarshalText([]byte("mmap")), qt.IsNil)
	c.Assert(nr, qt.Equals, SysMmap)
	c.Assert(errors.Is(nr.UnmarshalText([]byte("bogus")), ErrUnknownSyscall), qt.Equals, true)
}

func testResolver(comms map[int]string) *ProcessResolver {
	resolver := NewProcessResolver()
	resolver.lookup = func(pid int) (string, error) {
		comm, ok := comms[pid]
		if !ok {
			return "", errors.New("no such process")
		}
		return comm, nil
	}
	return resolver
}

func TestFilters(t *testing.T) {
	c := qt.New(t)

	resolver := testResolver(map[int]string{1: "cat", 2: "ls"})
	closeExit := func(pid int) TraceeEvent {
		return NewSyscallExitEvent(pid, entrySnapshot(SysClose, 3), exitSnapshot(SysClose, 0, 3))
	}

	all := newFilters(nil, nil, resolver)
	c.Assert(all.match(closeExit(1)), qt.Equals, true)
	c.Assert(all.match(closeExit(3)), qt.Equals, true)

	bySyscall := newFilters([]Syscall{SysWrite}, nil, resolver)
	c.Assert(bySyscall.match(closeExit(1)), qt.Equals, false)
	c.Assert(bySyscall.match(NewSyscallEnterEvent(1, entrySnapshot(SysWrite, 1, 0, 0))), qt.Equals, true)
	c.Assert(bySyscall.match(NewExitedEvent(1, 0)), qt.Equals, true)

	byComm := newFilters(nil, []string{"cat"}, resolver)
	c.Assert(byComm.match(closeExit(1)), qt.Equals, true)
	c.Assert(byComm.match(closeExit(2)), qt.Equals, false)
	c.Assert(byComm.match(NewExitedEvent(2, 0)), qt.Equals, false)
	c.Assert(byComm.match(closeExit(3)), qt.Equals, false)
	// the comm of a dead process can't be resolved anymore
	c.Assert(byComm.match(NewExitedEvent(1234, 0)), qt.Equals, true)

	// a comm cached before the exit still filters it
	c.Assert(byComm.match(closeExit(1)), qt.Equals, true)
	resolver.lookup = func(int) (string, error) { return "", errors.New("no such process") }
	c.Assert(byComm.match(NewExitedEvent(1, 0)), qt.Equals, true)
	c.Assert(byComm.match(NewExitedEvent(2, 0)), qt.Equals, false)
}

func TestProcessResolverCache(t *testing.T) {
	c := qt.New(t)

	lookups := 0
	resolver := NewProcessResolver()
	resolver.lookup = func(pid int) (string, error) {
		lookups++
		return "cat", nil
	}

	c.Assert(resolver.ResolveComm(1), qt.Equals, "cat")
	c.Assert(resolver.ResolveComm(1), qt.Equals, "cat")
	c.Assert(lookups, qt.Equals, 1)

	resolver.Forget(1)
	c.Assert(resolver.ResolveComm(1), qt.Equals, "cat")
	c.Assert(lookups, qt.Equals, 2)
}
