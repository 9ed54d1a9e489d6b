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
)

func TestTraceeEventPayloads(t *testing.T) {
	c := qt.New(t)

	entry := entrySnapshot(SysClose, 7)
	exit := exitSnapshot(SysClose, 0, 7)

	enter := NewSyscallEnterEvent(testPID, entry)
	c.Assert(enter.PID(), qt.Equals, testPID)
	c.Assert(enter.Status(), qt.Equals, SyscallEnter)
	c.Assert(enter.Registers(), qt.Equals, entry)
	c.Assert(enter.Syscall(), qt.Equals, SysClose)

	leave := NewSyscallExitEvent(testPID, entry, exit)
	c.Assert(leave.Status(), qt.Equals, SyscallExit)
	c.Assert(leave.Registers(), qt.Equals, exit)
	c.Assert(leave.Stop(), qt.Equals, SyscallStop{Entry: entry, Exit: exit})
	c.Assert(leave.Syscall(), qt.Equals, SysClose)

	exited := NewExitedEvent(testPID, 2)
	c.Assert(exited.Status(), qt.Equals, ExitedNormally)
	c.Assert(exited.ExitCode(), qt.Equals, 2)
}

func TestTraceeEventMismatchedPayloadPanics(t *testing.T) {
	c := qt.New(t)

	enter := NewSyscallEnterEvent(testPID, entrySnapshot(SysClose, 7))
	exited := NewExitedEvent(testPID, 0)

	c.Assert(func() { enter.ExitCode() }, qt.PanicMatches, `pytrace: exit code of a SyscallEnter event`)
	c.Assert(func() { enter.Stop() }, qt.PanicMatches, `pytrace: syscall stop of a SyscallEnter event`)
	c.Assert(func() { exited.Registers() }, qt.PanicMatches, `pytrace: registers of a ExitedNormally event`)
	c.Assert(func() { exited.Syscall() }, qt.PanicMatches, `pytrace: syscall of a ExitedNormally event`)
}

func TestStatusString(t *testing.T) {
	c := qt.New(t)

	c.Assert(SyscallEnter.String(), qt.Equals, "SyscallEnter")
	c.Assert(SyscallExit.String(), qt.Equals, "SyscallExit")
	c.Assert(ExitedNormally.String(), qt.Equals, "ExitedNormally")
	c.Assert(Status(7).String(), qt.Equals, "Status(7)")
}
