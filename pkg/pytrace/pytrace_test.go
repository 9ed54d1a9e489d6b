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
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
)

// newStoppingPyTrace returns a PyTrace whose tracer loop runs until done is closed
func newStoppingPyTrace(c *qt.C) (*PyTrace, chan struct{}) {
	output, err := os.Create(filepath.Join(c.TempDir(), "trace.txt"))
	c.Assert(err, qt.IsNil)

	done := make(chan struct{})
	e := &PyTrace{
		options:    Options{Stats: true},
		stats:      NewStats(),
		outputFile: output,
		OutputFile: output.Name(),
		tracer: &tracer{
			tracees:     make(map[int]*traceeState),
			done:        done,
			stopTimeout: 10 * time.Millisecond,
		},
	}
	return e, done
}

func TestStopFlushesAfterTracerLoop(t *testing.T) {
	c := qt.New(t)

	e, done := newStoppingPyTrace(c)
	c.Assert(e.Stop(), qt.ErrorMatches, "tracees still running after 10ms")

	// the loop may still be dispatching: the output stays open
	_, err := e.outputFile.WriteString("[ID 42]: close(3) = 0\n")
	c.Assert(err, qt.IsNil)
	e.stats.Record(NewSyscallExitEvent(42, entrySnapshot(SysClose, 3), exitSnapshot(SysClose, 0, 3)))

	close(done)
	closed := false
	for i := 0; i < 100 && !closed; i++ {
		_, err = e.outputFile.WriteString("late\n")
		closed = errors.Is(err, os.ErrClosed)
		if !closed {
			time.Sleep(10 * time.Millisecond)
		}
	}
	c.Assert(closed, qt.Equals, true)

	// Stop is idempotent
	c.Assert(e.Stop(), qt.ErrorMatches, "tracees still running after 10ms")
}

func TestStopFlushesStoppedTracer(t *testing.T) {
	c := qt.New(t)

	e, done := newStoppingPyTrace(c)
	close(done)
	c.Assert(e.Stop(), qt.IsNil)

	_, err := e.outputFile.WriteString("late\n")
	c.Assert(errors.Is(err, os.ErrClosed), qt.Equals, true)
}
