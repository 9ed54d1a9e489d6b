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

// ErrNoSpace is returned when a write doesn't fit in a BoundedBuffer
var ErrNoSpace = errors.New("no space left in bounded buffer")

// BoundedBuffer is a cursor over a fixed capacity buffer. A write that doesn't fit is rejected as a whole.
type BoundedBuffer struct {
	buf      []byte
	capacity int
}

// NewBoundedBuffer returns a buffer that holds at most capacity bytes
func NewBoundedBuffer(capacity int) *BoundedBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &BoundedBuffer{
		buf:      make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Cap returns the capacity of the buffer
func (b *BoundedBuffer) Cap() int {
	return b.capacity
}

// Len returns the number of bytes written so far
func (b *BoundedBuffer) Len() int {
	return len(b.buf)
}

// Remaining returns the number of bytes that can still be written
func (b *BoundedBuffer) Remaining() int {
	return b.capacity - len(b.buf)
}

// Write appends p, or nothing if p doesn't fit
func (b *BoundedBuffer) Write(p []byte) (int, error) {
	if len(p) > b.Remaining() {
		return 0, ErrNoSpace
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteString appends s, or nothing if s doesn't fit
func (b *BoundedBuffer) WriteString(s string) (int, error) {
	if len(s) > b.Remaining() {
		return 0, ErrNoSpace
	}
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// WriteByte appends c
func (b *BoundedBuffer) WriteByte(c byte) error {
	if b.Remaining() < 1 {
		return ErrNoSpace
	}
	b.buf = append(b.buf, c)
	return nil
}

// Bytes returns the written bytes
func (b *BoundedBuffer) Bytes() []byte {
	return b.buf
}

// String returns the written bytes as a string
func (b *BoundedBuffer) String() string {
	return string(b.buf)
}
