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
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestBoundedBuffer(t *testing.T) {
	c := qt.New(t)

	b := NewBoundedBuffer(6)
	c.Assert(b.Cap(), qt.Equals, 6)

	n, err := b.WriteString("abcd")
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 4)
	c.Assert(b.Remaining(), qt.Equals, 2)

	n, err = b.Write([]byte("xyz"))
	c.Assert(errors.Is(err, ErrNoSpace), qt.Equals, true)
	c.Assert(n, qt.Equals, 0)
	c.Assert(b.String(), qt.Equals, "abcd")

	c.Assert(b.WriteByte('e'), qt.IsNil)
	c.Assert(b.WriteByte('f'), qt.IsNil)
	c.Assert(errors.Is(b.WriteByte('g'), ErrNoSpace), qt.Equals, true)
	c.Assert(b.Bytes(), qt.DeepEquals, []byte("abcdef"))
	c.Assert(b.Len(), qt.Equals, 6)
}

func TestBoundedBufferNegativeCapacity(t *testing.T) {
	c := qt.New(t)

	b := NewBoundedBuffer(-3)
	c.Assert(b.Cap(), qt.Equals, 0)
	c.Assert(errors.Is(b.WriteByte('a'), ErrNoSpace), qt.Equals, true)
}
