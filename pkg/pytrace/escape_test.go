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
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestEscapeByteTwoCharacterForms(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		in   byte
		want string
	}{
		{in: '"', want: `\"`},
		{in: '\\', want: `\\`},
		{in: '\n', want: `\n`},
	}
	for _, test := range tests {
		for budget := 2; budget <= 8; budget++ {
			escaped, width := EscapeByte(test.in, budget)
			c.Assert(width, qt.Equals, 2, qt.Commentf("byte 0x%02x, budget %d", test.in, budget))
			c.Assert(escaped.String(), qt.Equals, test.want)
		}
		_, width := EscapeByte(test.in, 1)
		c.Assert(width, qt.Equals, 0)
	}
}

func TestEscapeByteVerbatim(t *testing.T) {
	c := qt.New(t)

	for _, in := range []byte{'a', 'Z', '0', ' ', '~', '\t', '\''} {
		escaped, width := EscapeByte(in, 1)
		c.Assert(width, qt.Equals, 1)
		c.Assert(escaped.Bytes(), qt.DeepEquals, []byte{in})

		_, width = EscapeByte(in, 0)
		c.Assert(width, qt.Equals, 0)
	}
}

func TestEscapeByteOctal(t *testing.T) {
	c := qt.New(t)

	for i := 0; i < 256; i++ {
		in := byte(i)
		if isPrint(in) || in == '\t' || in == '\n' {
			continue
		}

		escaped, width := EscapeByte(in, 4)
		c.Assert(width, qt.Equals, 4, qt.Commentf("byte 0x%02x", in))
		text := escaped.String()
		c.Assert(text[0], qt.Equals, byte('\\'))
		for _, digit := range text[1:] {
			c.Assert(digit >= '0' && digit <= '7', qt.Equals, true, qt.Commentf("escape %q", text))
		}
		value, err := strconv.ParseUint(text[1:], 8, 8)
		c.Assert(err, qt.IsNil)
		c.Assert(byte(value), qt.Equals, in)

		_, width = EscapeByte(in, 3)
		c.Assert(width, qt.Equals, 0)
	}
}

func TestEscapeByteNeverExceedsBudget(t *testing.T) {
	c := qt.New(t)

	for i := 0; i < 256; i++ {
		for budget := 0; budget <= 5; budget++ {
			escaped, width := EscapeByte(byte(i), budget)
			c.Assert(width <= budget, qt.Equals, true)
			c.Assert(escaped.Width(), qt.Equals, width)
		}
	}
}
