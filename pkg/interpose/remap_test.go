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
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPidRemap(t *testing.T) {
	c := qt.New(t)

	var remap PidRemap
	c.Assert(remap.IsSet(), qt.Equals, false)
	c.Assert(remap.Getpid(200), qt.Equals, 200)
	_, _, ok := remap.Pids()
	c.Assert(ok, qt.Equals, false)

	c.Assert(remap.Set(100, 200), qt.Equals, true)
	c.Assert(remap.IsSet(), qt.Equals, true)
	c.Assert(remap.Getpid(200), qt.Equals, 100)
	c.Assert(remap.Getpid(300), qt.Equals, 300)

	// written once
	c.Assert(remap.Set(1, 2), qt.Equals, false)
	c.Assert(remap.Getpid(200), qt.Equals, 100)
	c.Assert(remap.Getpid(2), qt.Equals, 2)

	pre, post, ok := remap.Pids()
	c.Assert(ok, qt.Equals, true)
	c.Assert([]int{pre, post}, qt.DeepEquals, []int{100, 200})
}
