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
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PyTrace is the main PyTrace structure
type PyTrace struct {
	handleEvent EventHandler
	options     Options
	sink        io.Writer
	outputFile  *os.File

	formatter       *Formatter
	replayMemory    *CapturedMemory
	replayTime      time.Time
	timeResolver    *TimeResolver
	processResolver *ProcessResolver
	filters         *filters
	stats           *Stats

	tracer   *tracer
	stopOnce sync.Once
	stopErr  error

	// OutputFile is the path of the trace output, empty when the trace goes to stderr
	OutputFile string
}

// NewPyTrace creates a new PyTrace instance
func NewPyTrace(options Options) (*PyTrace, error) {
	if err := options.IsValid(); err != nil {
		return nil, err
	}
	options.applyDefaults()

	e := &PyTrace{
		options:         options,
		handleEvent:     options.EventHandler,
		replayMemory:    &CapturedMemory{},
		processResolver: NewProcessResolver(),
		stats:           NewStats(),
	}
	var err error
	if e.timeResolver, err = NewTimeResolver(); err != nil {
		return nil, errors.Wrap(err, "couldn't create time resolver")
	}
	e.filters = newFilters(options.SyscallFilters, options.CommFilters, e.processResolver)
	e.formatter = NewFormatter(ProcessMemoryReader{}, options.BufferCapacity, options.MaxBufferRead)
	logrus.Debugf("formatter: %s", e.formatter)

	if e.handleEvent == nil {
		handler, err := e.defaultEventHandler(e.formatter)
		if err != nil {
			return nil, err
		}
		e.handleEvent = handler
	} else {
		e.options.hasCustomEventHandler = true
	}
	return e, nil
}

// openSink opens the output once, the sink is never closed
func (e *PyTrace) openSink() (io.Writer, error) {
	if e.sink != nil {
		return e.sink, nil
	}
	switch e.options.Output {
	case "", "-", "/dev/stderr":
		e.sink = os.Stderr
	case "/dev/stdout":
		e.sink = os.Stdout
	default:
		f, err := os.OpenFile(e.options.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't open %s", e.options.Output)
		}
		e.outputFile = f
		e.OutputFile = f.Name()
		e.sink = f
	}
	return e.sink, nil
}

func (e *PyTrace) defaultEventHandler(formatter *Formatter) (EventHandler, error) {
	switch {
	case e.options.RawDump:
		return NewRawDumpHandler(e.openSink, formatter).Bind()
	case e.options.JSONDump:
		return NewJSONHandler(e.openSink, formatter, e.processResolver).Bind()
	default:
		return NewStraceHandler(e.openSink, formatter).Bind()
	}
}

// Start spawns or attaches to the tracee and begins tracing
func (e *PyTrace) Start() error {
	if !e.options.ShouldActivateTracer() {
		return errors.New("nothing to trace: provide a command or a pid")
	}

	e.tracer = newTracer(e.options, e.dispatch, e.processResolver.Forget)
	if err := e.tracer.start(); err != nil {
		return errors.Wrap(err, "couldn't start tracer")
	}

	if e.options.ReadyFD > 0 {
		if err := notifyReady(e.options.ReadyFD); err != nil {
			logrus.Warnf("couldn't notify readiness: %v", err)
		}
	}
	return nil
}

// notifyReady writes a byte to fd and closes it, a reader seeing EOF without the byte knows that the
// tracer failed
func notifyReady(fd int) error {
	f := os.NewFile(uintptr(fd), "ready")
	if f == nil {
		return errors.Errorf("invalid ready fd %d", fd)
	}
	defer f.Close()
	_, err := f.Write([]byte{1})
	return err
}

// dispatch hands an event to the event handler
func (e *PyTrace) dispatch(event TraceeEvent) {
	if e.filters.match(event) {
		e.stats.Record(event)
		e.handleEvent(event)
	}
	if event.Status() == ExitedNormally {
		e.processResolver.Forget(event.PID())
	}
}

// Wait blocks until all the tracees exited, and returns the exit code of the main tracee
func (e *PyTrace) Wait() (int, error) {
	if e.tracer == nil {
		return 0, errors.New("tracer not started")
	}
	return e.tracer.wait()
}

// Stats returns the syscall counters
func (e *PyTrace) Stats() *Stats {
	return e.stats
}

// ParseInputFile replays a raw dump through the event handler of the current options
func (e *PyTrace) ParseInputFile(inputFile string) error {
	if e.options.RawDump {
		return errors.New("can't replay a raw dump into a raw dump")
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return errors.Wrapf(err, "couldn't open input file %s", inputFile)
	}
	defer f.Close()

	handleEvent := e.handleEvent
	if !e.options.hasCustomEventHandler {
		// the tracee is gone, buffers and timestamps are read from the dump
		replay := e.formatter.WithMemory(e.replayMemory).WithClock(func() time.Time {
			return e.replayTime
		})
		handleEvent, err = e.defaultEventHandler(replay)
		if err != nil {
			return err
		}
	}

	for {
		record, err := ReadRawRecord(f)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrapf(err, "couldn't parse %s", inputFile)
		}

		event, err := record.Event()
		if err != nil {
			logrus.Debugf("failed to parse event: %v", err)
			continue
		}
		*e.replayMemory = record.Buffer
		e.replayTime = e.timeResolver.ResolveMonotonicTimestamp(record.Timestamp)

		if e.filters.match(event) {
			e.stats.Record(event)
			handleEvent(event)
		}
	}
}

// Stop shuts down PyTrace: spawned tracees are killed, attached tracees are detached. Statistics and
// the output file are flushed once the tracer stopped dispatching events.
func (e *PyTrace) Stop() error {
	e.stopOnce.Do(func() {
		if e.tracer != nil {
			if err := e.tracer.stop(); err != nil {
				go func() {
					<-e.tracer.done
					if err := e.flush(); err != nil {
						logrus.Errorf("couldn't flush trace: %v", err)
					}
				}()
				e.stopErr = err
				return
			}
		}
		e.stopErr = e.flush()
	})
	return e.stopErr
}

func (e *PyTrace) flush() error {
	if e.options.Stats {
		e.stats.Dump()
	}
	if e.outputFile == nil {
		return nil
	}

	var result *multierror.Error
	if err := e.outputFile.Sync(); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "couldn't sync %s", e.OutputFile))
	}
	if err := e.outputFile.Close(); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "couldn't close %s", e.OutputFile))
	}
	return result.ErrorOrNil()
}
