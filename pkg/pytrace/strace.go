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
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SinkOpener opens the destination of a trace
type SinkOpener func() (io.Writer, error)

// StraceContext is the context of the pseudo strace plugin
type StraceContext struct {
	Sink      io.Writer
	Formatter *Formatter
}

// NewStraceHandler returns the pseudo strace plugin: one line per syscall exit and per process exit
func NewStraceHandler(open SinkOpener, formatter *Formatter) TraceHandler[*StraceContext] {
	return TraceHandler[*StraceContext]{
		Init: func(ctx *StraceContext) (*StraceContext, error) {
			sink, err := open()
			if err != nil {
				return nil, errors.Wrap(err, "couldn't open output")
			}
			ctx.Sink = sink
			return ctx, nil
		},
		Handle: HandleStrace,
		Arg:    &StraceContext{Formatter: formatter},
	}
}

// HandleStrace writes the strace line of an event. Entry stops produce no output, the line is written
// once the return value is known.
func HandleStrace(ctx *StraceContext, event TraceeEvent) *StraceContext {
	var line string
	switch event.Status() {
	case SyscallExit:
		line = ctx.Formatter.FormatExit(event.PID(), event.Stop())
	case ExitedNormally:
		line = ctx.Formatter.FormatExited(event.PID(), event.ExitCode())
	default:
		return ctx
	}
	if _, err := fmt.Fprintln(ctx.Sink, line); err != nil {
		logrus.Errorf("couldn't write trace: %v", err)
	}
	return ctx
}

// JSONContext is the context of the JSON plugin
type JSONContext struct {
	Encoder   *json.Encoder
	Formatter *Formatter
	Resolver  *ProcessResolver
}

// NewJSONHandler returns a plugin that dumps one JSON record per syscall exit and per process exit
func NewJSONHandler(open SinkOpener, formatter *Formatter, resolver *ProcessResolver) TraceHandler[*JSONContext] {
	return TraceHandler[*JSONContext]{
		Init: func(ctx *JSONContext) (*JSONContext, error) {
			sink, err := open()
			if err != nil {
				return nil, errors.Wrap(err, "couldn't open output")
			}
			ctx.Encoder = json.NewEncoder(sink)
			return ctx, nil
		},
		Handle: HandleJSON,
		Arg:    &JSONContext{Formatter: formatter, Resolver: resolver},
	}
}

// HandleJSON encodes an event
func HandleJSON(ctx *JSONContext, event TraceeEvent) *JSONContext {
	var record interface{}
	switch event.Status() {
	case SyscallExit:
		sr := ctx.Formatter.Record(event.PID(), event.Stop())
		sr.Comm = ctx.comm(event.PID())
		record = sr
	case ExitedNormally:
		record = ExitRecord{
			PID:       event.PID(),
			Comm:      ctx.comm(event.PID()),
			Exited:    event.ExitCode(),
			Timestamp: ctx.Formatter.Now(),
		}
	default:
		return ctx
	}
	if err := ctx.Encoder.Encode(record); err != nil {
		logrus.Errorf("couldn't encode event: %v", err)
	}
	return ctx
}

func (ctx *JSONContext) comm(pid int) string {
	if ctx.Resolver == nil {
		return ""
	}
	return ctx.Resolver.ResolveComm(pid)
}

// RawDumpContext is the context of the raw dump plugin
type RawDumpContext struct {
	Sink      io.Writer
	Formatter *Formatter
}

// NewRawDumpHandler returns a plugin that dumps the events in binary, with the buffers they transferred.
// A raw dump can be replayed with ParseInputFile.
func NewRawDumpHandler(open SinkOpener, formatter *Formatter) TraceHandler[*RawDumpContext] {
	return TraceHandler[*RawDumpContext]{
		Init: func(ctx *RawDumpContext) (*RawDumpContext, error) {
			sink, err := open()
			if err != nil {
				return nil, errors.Wrap(err, "couldn't open output")
			}
			ctx.Sink = sink
			return ctx, nil
		},
		Handle: HandleRawDump,
		Arg:    &RawDumpContext{Formatter: formatter},
	}
}

// HandleRawDump writes the binary record of an event
func HandleRawDump(ctx *RawDumpContext, event TraceeEvent) *RawDumpContext {
	if event.Status() == SyscallEnter {
		return ctx
	}

	var captured CapturedMemory
	if event.Status() == SyscallExit {
		if addr, length, ok := ctx.Formatter.BufferArgument(event.Stop()); ok {
			data, err := ctx.Formatter.ReadBuffer(event.PID(), addr, length)
			if err != nil {
				logrus.Debugf("couldn't capture buffer of pid %d: %v", event.PID(), err)
			}
			captured = CapturedMemory{Addr: addr, Data: data}
		}
	}

	record := NewRawRecord(event, captured)
	record.Timestamp = MonotonicNow()
	if err := WriteRawRecord(ctx.Sink, record); err != nil {
		logrus.Errorf("failed to write raw record: %v", err)
	}
	return ctx
}
