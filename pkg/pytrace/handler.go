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
	"github.com/pkg/errors"
)

// EventHandler consumes the events of the tracees, in delivery order
type EventHandler func(event TraceeEvent)

// TraceHandler is a trace plugin. Init is called once with Arg before any event to build the per-trace
// context, Handle is called once per event and returns the context handed to the next call.
// There is no destruction hook: the context lives as long as the trace.
type TraceHandler[C any] struct {
	Init   func(arg C) (C, error)
	Handle func(ctx C, event TraceeEvent) C
	Arg    C
}

// Bind initializes the plugin and returns the EventHandler threading its context
func (h TraceHandler[C]) Bind() (EventHandler, error) {
	if h.Init == nil || h.Handle == nil {
		return nil, errors.New("incomplete trace handler")
	}
	ctx, err := h.Init(h.Arg)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't initialize trace handler")
	}
	return func(event TraceeEvent) {
		ctx = h.Handle(ctx, event)
	}, nil
}
