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

const (
	quote = '"'
	// continuationMarker closes a truncated literal
	continuationMarker = "\"..."
	// renderReserve is the room kept for the opening quote and the continuation marker
	renderReserve = 1 + len(continuationMarker)
)

// ErrInsufficientSpace is returned when the output capacity can't even hold an empty literal.
// It is distinct from truncation, no text is produced.
var ErrInsufficientSpace = errors.New("insufficient space to render buffer")

// Rendered is an escaped, quoted buffer literal
type Rendered struct {
	// Text is the literal, at most the requested capacity long
	Text string
	// Consumed is the number of raw bytes represented in Text
	Consumed int
	// Truncated is set when Text ends with the continuation marker
	Truncated bool
}

// RenderBuffer renders the first length bytes of raw as a quoted literal of at most capacity bytes.
// raw is never read past min(length, len(raw)). When length claims more bytes than raw holds,
// the literal is marked as truncated.
func RenderBuffer(raw []byte, length int, capacity int) (Rendered, error) {
	budget := capacity - renderReserve
	if budget < 0 {
		return Rendered{}, ErrInsufficientSpace
	}
	if length < 0 {
		length = 0
	}
	available := length
	if available > len(raw) {
		available = len(raw)
	}

	out := NewBoundedBuffer(capacity)
	if err := out.WriteByte(quote); err != nil {
		return Rendered{}, err
	}

	for i := 0; i < available; i++ {
		escaped, width := EscapeByte(raw[i], budget)
		if width == 0 {
			return truncate(out, i)
		}
		if _, err := out.Write(escaped.Bytes()); err != nil {
			return Rendered{}, errors.Wrapf(err, "byte %d overflowed the render budget", i)
		}
		budget -= width
	}

	if available < length {
		return truncate(out, available)
	}

	if err := out.WriteByte(quote); err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Text:     out.String(),
		Consumed: available,
	}, nil
}

func truncate(out *BoundedBuffer, consumed int) (Rendered, error) {
	if _, err := out.WriteString(continuationMarker); err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Text:      out.String(),
		Consumed:  consumed,
		Truncated: true,
	}, nil
}
