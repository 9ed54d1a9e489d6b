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
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// PrintBufferSize is the default output budget of a rendered buffer argument
	PrintBufferSize = 256
	// MaxBufferRead is the upper bound of the number of bytes read from a tracee for a single argument
	MaxBufferRead = 4096
	// LauncherName is the name of the pytrace binary
	LauncherName = "pytrace"
)

// ByteOrder is the byte order of the raw dumps
var ByteOrder binary.ByteOrder = binary.LittleEndian

var (
	// ErrNotEnoughData is returned when a raw record is shorter than its declared layout
	ErrNotEnoughData = errors.New("not enough data")
	// ErrUnknownSyscall is returned when a syscall name can't be resolved
	ErrUnknownSyscall = errors.New("unknown syscall")
)

// Options contains the parameters of PyTrace
type Options struct {
	// Command is the command to spawn under ptrace
	Command []string
	// PID is the pid of a running process to attach to
	PID int
	// ReadyFD is closed once the tracer is attached, ignored when 0
	ReadyFD int
	// Output is the destination of the trace, stderr when empty
	Output string

	RawDump  bool
	JSONDump bool
	Stats    bool
	Follow   bool

	// BufferCapacity is the output budget of a rendered buffer argument
	BufferCapacity int
	// MaxBufferRead caps the bytes read from the tracee for a buffer argument
	MaxBufferRead int

	EventHandler          EventHandler
	hasCustomEventHandler bool
	SyscallFilters        []Syscall
	CommFilters           []string
}

// ShouldActivateTracer returns true when a tracee was provided
func (o Options) ShouldActivateTracer() bool {
	return len(o.Command) > 0 || o.PID > 0
}

// IsValid checks the consistency of the options
func (o Options) IsValid() error {
	if o.JSONDump && o.RawDump {
		return errors.New("you can't activate both --json and --raw")
	}
	if len(o.Command) > 0 && o.PID > 0 {
		return errors.New("you can't both spawn a command and attach to a pid")
	}
	if o.PID < 0 {
		return errors.Errorf("invalid pid: %d", o.PID)
	}
	if o.BufferCapacity != 0 && o.BufferCapacity < renderReserve {
		return errors.Errorf("buffer capacity must be at least %d, got %d", renderReserve, o.BufferCapacity)
	}
	if o.MaxBufferRead < 0 {
		return errors.Errorf("invalid max buffer read: %d", o.MaxBufferRead)
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.BufferCapacity == 0 {
		o.BufferCapacity = PrintBufferSize
	}
	if o.MaxBufferRead == 0 || o.MaxBufferRead > MaxBufferRead {
		// a byte takes at least one output byte, reading more than the budget can't change the output
		o.MaxBufferRead = o.BufferCapacity
		if o.MaxBufferRead > MaxBufferRead {
			o.MaxBufferRead = MaxBufferRead
		}
	}
}
