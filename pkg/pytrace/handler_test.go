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

func TestTraceHandlerBind(t *testing.T) {
	c := qt.New(t)

	inits := 0
	handler := TraceHandler[[]int]{
		Init: func(seen []int) ([]int, error) {
			inits++
			return append(seen, 0), nil
		},
		Handle: func(seen []int, event TraceeEvent) []int {
			return append(seen, event.PID())
		},
		Arg: []int{-1},
	}

	var last []int
	tracking := handler
	tracking.Handle = func(seen []int, event TraceeEvent) []int {
		last = handler.Handle(seen, event)
		return last
	}

	handle, err := tracking.Bind()
	c.Assert(err, qt.IsNil)
	c.Assert(inits, qt.Equals, 1)

	for pid := 1; pid <= 3; pid++ {
		handle(NewExitedEvent(pid, 0))
	}
	c.Assert(inits, qt.Equals, 1)
	// the context starts from Arg, as extended by Init
	c.Assert(last, qt.DeepEquals, []int{-1, 0, 1, 2, 3})
}

func TestTraceHandlerBindErrors(t *testing.T) {
	c := qt.New(t)

	_, err := TraceHandler[int]{}.Bind()
	c.Assert(err, qt.ErrorMatches, "incomplete trace handler")

	_, err = TraceHandler[int]{
		Init:   func(int) (int, error) { return 0, errors.New("no sink") },
		Handle: func(ctx int, _ TraceeEvent) int { return ctx },
	}.Bind()
	c.Assert(err, qt.ErrorMatches, "couldn't initialize trace handler: no sink")
}

func TestTraceHandlerInitReceivesArg(t *testing.T) {
	c := qt.New(t)

	var got string
	handle, err := TraceHandler[string]{
		Init: func(prefix string) (string, error) {
			got = prefix
			return prefix, nil
		},
		Handle: func(prefix string, _ TraceeEvent) string { return prefix },
		Arg:    "[trace] ",
	}.Bind()
	c.Assert(err, qt.IsNil)
	c.Assert(handle, qt.IsNotNil)
	c.Assert(got, qt.Equals, "[trace] ")
}
