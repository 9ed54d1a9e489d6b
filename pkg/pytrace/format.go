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
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Formatter decodes syscall stops into strace lines
type Formatter struct {
	memory   MemoryReader
	clock    func() time.Time
	capacity int
	maxRead  int
}

// NewFormatter returns a formatter that renders buffers within capacity bytes, reading at most maxRead
// bytes of tracee memory per buffer. memory can be nil, buffers are then rendered as addresses.
func NewFormatter(memory MemoryReader, capacity int, maxRead int) *Formatter {
	return &Formatter{
		memory:   memory,
		clock:    time.Now,
		capacity: capacity,
		maxRead:  maxRead,
	}
}

// WithMemory returns a copy of the formatter reading buffers from memory
func (f *Formatter) WithMemory(memory MemoryReader) *Formatter {
	output := *f
	output.memory = memory
	return &output
}

// WithClock returns a copy of the formatter timestamping records with clock
func (f *Formatter) WithClock(clock func() time.Time) *Formatter {
	output := *f
	output.clock = clock
	return &output
}

// Now returns the timestamp of the record being formatted
func (f *Formatter) Now() time.Time {
	return f.clock()
}

// Record decodes a syscall. Arguments are read from the entry registers, the return value from the
// exit registers.
func (f *Formatter) Record(pid int, stop SyscallStop) SyscallRecord {
	entry, exit := stop.Entry, stop.Exit
	nr := entry.SyscallNumber()
	record := SyscallRecord{
		Syscall:   nr,
		NR:        int32(nr),
		PID:       pid,
		Args:      []string{},
		Ret:       retInt(exit),
		Timestamp: f.Now(),
	}

	if _, ok := syscallNames[nr]; !ok {
		record.Args = []string{strconv.FormatInt(int64(nr), 10), "..."}
		record.Ret = retUint64(exit)
		return record
	}

	switch nr {
	case SysWrite:
		record.Args = []string{
			argInt(entry, Arg0),
			f.buffer(pid, entry.Arg(Arg1), exit.ReturnValue()),
			argInt64(entry, Arg2),
		}
	case SysClose:
		record.Args = []string{argInt(entry, Arg0)}
	case SysFstat:
		record.Args = []string{argInt(entry, Arg0), argPointer(entry, Arg1)}
	case SysMmap:
		record.Args = []string{
			argPointer(entry, Arg0),
			argInt64(entry, Arg1),
			argInt(entry, Arg2),
			argInt(entry, Arg3),
			argInt(entry, Arg4),
			argUint64(entry, Arg5),
		}
		record.Ret = retPointer(exit)
	case SysIoctl:
		record.Args = []string{argInt(entry, Arg0), argUint64(entry, Arg1), argPointer(entry, Arg2)}
	case SysGetpid:
	case SysGetdents:
		record.Args = []string{argInt(entry, Arg0), argPointer(entry, Arg1), argInt(entry, Arg2)}
	case SysOpenat:
		record.Args = []string{argInt(entry, Arg0), argPointer(entry, Arg1), argInt(entry, Arg2), argInt(entry, Arg3)}
	}
	return record
}

// FormatExit renders the strace line of a syscall
func (f *Formatter) FormatExit(pid int, stop SyscallStop) string {
	return f.Record(pid, stop).String()
}

// FormatExited renders the strace line of a process exit
func (f *Formatter) FormatExited(pid int, status int) string {
	return ExitRecord{PID: pid, Exited: status}.String()
}

// BufferArgument returns the address and the transferred length of the buffer argument of a syscall
func (f *Formatter) BufferArgument(stop SyscallStop) (uint64, int, bool) {
	switch stop.Entry.SyscallNumber() {
	case SysWrite:
		return stop.Entry.Arg(Arg1), transferLength(stop.Exit.ReturnValue()), true
	}
	return 0, 0, false
}

// ReadBuffer reads the part of a buffer argument that can be rendered
func (f *Formatter) ReadBuffer(pid int, addr uint64, length int) ([]byte, error) {
	if length > f.maxRead {
		length = f.maxRead
	}
	if length <= 0 {
		return nil, nil
	}
	if f.memory == nil {
		return nil, errors.New("no memory reader")
	}
	data := make([]byte, length)
	n, err := f.memory.ReadMemory(pid, addr, data)
	if err != nil && n == 0 {
		return nil, err
	}
	return data[:n], nil
}

// buffer renders a buffer whose length is the number of bytes actually transferred, not the requested count
func (f *Formatter) buffer(pid int, addr uint64, ret uint64) string {
	length := transferLength(ret)
	data, err := f.ReadBuffer(pid, addr, length)
	if err != nil {
		logrus.Debugf("couldn't read buffer of pid %d at %s: %v", pid, Pointer(addr), err)
		return Pointer(addr).String()
	}
	rendered, err := RenderBuffer(data, length, f.capacity)
	if err != nil {
		logrus.Debugf("couldn't render buffer of pid %d at %s: %v", pid, Pointer(addr), err)
		return Pointer(addr).String()
	}
	return rendered.Text
}

// transferLength converts a syscall return value to a byte count, errors transferred nothing
func transferLength(ret uint64) int {
	length := int64(ret)
	if length < 0 {
		return 0
	}
	if length > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(length)
}

// String returns a short description of the formatter settings
func (f *Formatter) String() string {
	return fmt.Sprintf("capacity=%d max_read=%d", f.capacity, f.maxRead)
}
