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
	"strings"
	"time"
)

// SyscallStop holds the registers of both stops of a syscall
type SyscallStop struct {
	Entry RegisterSnapshot
	Exit  RegisterSnapshot
}

// TraceeEvent is a tracee state change. The payload matches the status: registers for syscall stops,
// an exit code for ExitedNormally. Events can only be built with the constructors below.
type TraceeEvent struct {
	pid      int
	status   Status
	stop     SyscallStop
	exitCode int
}

// NewSyscallEnterEvent returns a syscall entry event
func NewSyscallEnterEvent(pid int, regs RegisterSnapshot) TraceeEvent {
	return TraceeEvent{
		pid:    pid,
		status: SyscallEnter,
		stop:   SyscallStop{Entry: regs},
	}
}

// NewSyscallExitEvent returns a syscall exit event, entry holds the registers captured at entry
func NewSyscallExitEvent(pid int, entry RegisterSnapshot, exit RegisterSnapshot) TraceeEvent {
	return TraceeEvent{
		pid:    pid,
		status: SyscallExit,
		stop:   SyscallStop{Entry: entry, Exit: exit},
	}
}

// NewExitedEvent returns a process exit event
func NewExitedEvent(pid int, exitCode int) TraceeEvent {
	return TraceeEvent{
		pid:      pid,
		status:   ExitedNormally,
		exitCode: exitCode,
	}
}

// PID returns the pid of the tracee
func (e TraceeEvent) PID() int {
	return e.pid
}

// Status returns the status of the event
func (e TraceeEvent) Status() Status {
	return e.status
}

// Registers returns the registers captured at this stop. It panics if the event isn't a syscall stop.
func (e TraceeEvent) Registers() RegisterSnapshot {
	switch e.status {
	case SyscallEnter:
		return e.stop.Entry
	case SyscallExit:
		return e.stop.Exit
	}
	panic(fmt.Sprintf("pytrace: registers of a %s event", e.status))
}

// Stop returns the entry and exit registers of a syscall. It panics if the event isn't a SyscallExit.
func (e TraceeEvent) Stop() SyscallStop {
	if e.status != SyscallExit {
		panic(fmt.Sprintf("pytrace: syscall stop of a %s event", e.status))
	}
	return e.stop
}

// Syscall returns the syscall number recorded at entry. It panics if the event isn't a syscall stop.
func (e TraceeEvent) Syscall() Syscall {
	if e.status == ExitedNormally {
		panic(fmt.Sprintf("pytrace: syscall of a %s event", e.status))
	}
	return e.stop.Entry.SyscallNumber()
}

// ExitCode returns the exit status of the tracee. It panics if the event isn't ExitedNormally.
func (e TraceeEvent) ExitCode() int {
	if e.status != ExitedNormally {
		panic(fmt.Sprintf("pytrace: exit code of a %s event", e.status))
	}
	return e.exitCode
}

// SyscallRecord is the decoded form of a syscall, as dumped in JSON
type SyscallRecord struct {
	Syscall   Syscall   `json:"syscall"`
	NR        int32     `json:"nr"`
	PID       int       `json:"pid"`
	Comm      string    `json:"comm,omitempty"`
	Args      []string  `json:"args"`
	Ret       string    `json:"ret"`
	Timestamp time.Time `json:"timestamp"`
}

func (sr SyscallRecord) name() string {
	if _, ok := syscallNames[sr.Syscall]; ok {
		return sr.Syscall.String()
	}
	return "syscall"
}

// String returns the strace line of the record
func (sr SyscallRecord) String() string {
	return fmt.Sprintf("[ID %d]: %s(%s) = %s", sr.PID, sr.name(), strings.Join(sr.Args, ", "), sr.Ret)
}

// ExitRecord is the JSON form of a process exit
type ExitRecord struct {
	PID       int       `json:"pid"`
	Comm      string    `json:"comm,omitempty"`
	Exited    int       `json:"exited"`
	Timestamp time.Time `json:"timestamp"`
}

// String returns the strace line of the record
func (er ExitRecord) String() string {
	return fmt.Sprintf("[ID %d]: Exited: %d", er.PID, er.Exited)
}
