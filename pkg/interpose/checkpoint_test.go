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
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestCheckpointSingleUse(t *testing.T) {
	c := qt.New(t)

	resumes := 0
	checkpoint := NewCheckpoint(func() { resumes++ })
	c.Assert(checkpoint.Consumed(), qt.Equals, false)

	c.Assert(checkpoint.Resume(), qt.IsNil)
	c.Assert(checkpoint.Consumed(), qt.Equals, true)
	c.Assert(resumes, qt.Equals, 1)

	c.Assert(errors.Is(checkpoint.Resume(), ErrCheckpointConsumed), qt.Equals, true)
	c.Assert(resumes, qt.Equals, 1)
}

func TestCheckpointWithoutTransfer(t *testing.T) {
	c := qt.New(t)

	checkpoint := NewCheckpoint(nil)
	c.Assert(checkpoint.Resume(), qt.IsNil)
	c.Assert(checkpoint.Resume(), qt.Equals, ErrCheckpointConsumed)
}
