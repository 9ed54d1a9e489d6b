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

package interpose

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrCheckpointConsumed is returned when a checkpoint is resumed more than once
var ErrCheckpointConsumed = errors.New("checkpoint already resumed")

// Checkpoint is a single-use continuation captured at process startup
type Checkpoint struct {
	consumed int32
	resume   func()
}

// NewCheckpoint returns a checkpoint transferring control to resume. A nil resume is valid when the
// transfer itself is done by the caller, in which case Resume only consumes the checkpoint.
func NewCheckpoint(resume func()) *Checkpoint {
	return &Checkpoint{resume: resume}
}

// Consumed returns true once the checkpoint was resumed
func (c *Checkpoint) Consumed() bool {
	return atomic.LoadInt32(&c.consumed) == 1
}

// Resume consumes the checkpoint and transfers control. A non-local resume doesn't return.
func (c *Checkpoint) Resume() error {
	if !atomic.CompareAndSwapInt32(&c.consumed, 0, 1) {
		return ErrCheckpointConsumed
	}
	if c.resume != nil {
		c.resume()
	}
	return nil
}
