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

// EscapedByte is the printable representation of a single raw byte
type EscapedByte struct {
	buf [4]byte
	n   int
}

// Bytes returns the escaped text
func (e EscapedByte) Bytes() []byte {
	return e.buf[:e.n]
}

// String returns the escaped text
func (e EscapedByte) String() string {
	return string(e.buf[:e.n])
}

// Width returns the number of output bytes of the escaped text
func (e EscapedByte) Width() int {
	return e.n
}

// EscapeByte escapes c for a quoted literal. The returned width is 1, 2 or 4 and never exceeds budget,
// a width of 0 means that the escaped byte doesn't fit in the remaining budget.
//
// Quotes, backslashes and new lines are checked first so that they never end up in the octal form.
func EscapeByte(c byte, budget int) (EscapedByte, int) {
	var e EscapedByte
	switch {
	case c == '"' || c == '\\':
		if budget < 2 {
			return e, 0
		}
		e.buf[0], e.buf[1], e.n = '\\', c, 2
	case c == '\n':
		if budget < 2 {
			return e, 0
		}
		e.buf[0], e.buf[1], e.n = '\\', 'n', 2
	case isPrint(c) || c == '\t':
		if budget < 1 {
			return e, 0
		}
		e.buf[0], e.n = c, 1
	default:
		if budget < 4 {
			return e, 0
		}
		e.buf[0] = '\\'
		e.buf[1] = octalDigit(c, 2)
		e.buf[2] = octalDigit(c, 1)
		e.buf[3] = octalDigit(c, 0)
		e.n = 4
	}
	return e, e.n
}

// isPrint matches the printable ASCII range, bytes above 0x7e are escaped
func isPrint(c byte) bool {
	return c >= 0x20 && c <= 0x7e
}

// octalDigit returns the n-th base 8 digit of c
func octalDigit(c byte, n uint) byte {
	return ((c >> (3 * n)) & 0x7) + '0'
}
