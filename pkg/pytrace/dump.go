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
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// rawHeaderLength is the length of the fixed part of a raw record:
// status (1) + padding (3) + pid (4) + exit code (4) + buffer length (4) + buffer address (8) + timestamp (8)
const rawHeaderLength = 32

var regsLength = binary.Size(unix.PtraceRegs{})

// RawRecord is the binary form of a TraceeEvent
type RawRecord struct {
	Status   Status
	PID      int32
	ExitCode int32

	// Timestamp is the CLOCK_MONOTONIC time of the event, in nanoseconds
	Timestamp uint64
	Entry     unix.PtraceRegs
	Exit      unix.PtraceRegs
	Buffer    CapturedMemory
}

// NewRawRecord returns the raw record of an event, captured holds the buffer transferred by the syscall
func NewRawRecord(event TraceeEvent, captured CapturedMemory) RawRecord {
	record := RawRecord{
		Status: event.Status(),
		PID:    int32(event.PID()),
	}
	switch event.Status() {
	case SyscallEnter:
		record.Entry = event.Registers().Raw()
	case SyscallExit:
		stop := event.Stop()
		record.Entry = stop.Entry.Raw()
		record.Exit = stop.Exit.Raw()
		record.Buffer = captured
	case ExitedNormally:
		record.ExitCode = int32(event.ExitCode())
	}
	return record
}

// Event returns the TraceeEvent of the record
func (rr RawRecord) Event() (TraceeEvent, error) {
	switch rr.Status {
	case SyscallEnter:
		return NewSyscallEnterEvent(int(rr.PID), NewRegisterSnapshot(rr.Entry)), nil
	case SyscallExit:
		return NewSyscallExitEvent(int(rr.PID), NewRegisterSnapshot(rr.Entry), NewRegisterSnapshot(rr.Exit)), nil
	case ExitedNormally:
		return NewExitedEvent(int(rr.PID), int(rr.ExitCode)), nil
	}
	return TraceeEvent{}, errors.Errorf("invalid raw record status %d", rr.Status)
}

// MarshalBinary encodes the record
func (rr RawRecord) MarshalBinary() ([]byte, error) {
	data := make([]byte, rawHeaderLength, rawHeaderLength+2*regsLength+len(rr.Buffer.Data))
	data[0] = uint8(rr.Status)
	ByteOrder.PutUint32(data[4:8], uint32(rr.PID))
	ByteOrder.PutUint32(data[8:12], uint32(rr.ExitCode))
	ByteOrder.PutUint32(data[12:16], uint32(len(rr.Buffer.Data)))
	ByteOrder.PutUint64(data[16:24], rr.Buffer.Addr)
	ByteOrder.PutUint64(data[24:32], rr.Timestamp)

	buf := bytes.NewBuffer(data)
	if err := binary.Write(buf, ByteOrder, rr.Entry); err != nil {
		return nil, errors.Wrap(err, "couldn't encode entry registers")
	}
	if err := binary.Write(buf, ByteOrder, rr.Exit); err != nil {
		return nil, errors.Wrap(err, "couldn't encode exit registers")
	}
	buf.Write(rr.Buffer.Data)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a record and returns the number of bytes read
func (rr *RawRecord) UnmarshalBinary(data []byte) (int, error) {
	if len(data) < rawHeaderLength+2*regsLength {
		return 0, errors.Wrapf(ErrNotEnoughData, "parsing RawRecord, got len %d, needed %d", len(data), rawHeaderLength+2*regsLength)
	}
	rr.Status = Status(data[0])
	rr.PID = int32(ByteOrder.Uint32(data[4:8]))
	rr.ExitCode = int32(ByteOrder.Uint32(data[8:12]))
	bufferLength := int(ByteOrder.Uint32(data[12:16]))
	rr.Buffer.Addr = ByteOrder.Uint64(data[16:24])
	rr.Timestamp = ByteOrder.Uint64(data[24:32])
	cursor := rawHeaderLength

	reader := bytes.NewReader(data[cursor : cursor+2*regsLength])
	if err := binary.Read(reader, ByteOrder, &rr.Entry); err != nil {
		return 0, errors.Wrap(err, "parsing RawRecord.Entry")
	}
	if err := binary.Read(reader, ByteOrder, &rr.Exit); err != nil {
		return 0, errors.Wrap(err, "parsing RawRecord.Exit")
	}
	cursor += 2 * regsLength

	if len(data[cursor:]) < bufferLength {
		return 0, errors.Wrapf(ErrNotEnoughData, "parsing RawRecord.Buffer, got len %d, needed %d", len(data[cursor:]), bufferLength)
	}
	rr.Buffer.Data = nil
	if bufferLength > 0 {
		rr.Buffer.Data = make([]byte, bufferLength)
		copy(rr.Buffer.Data, data[cursor:cursor+bufferLength])
	}
	cursor += bufferLength
	return cursor, nil
}

// WriteRawRecord writes a size prefixed record
func WriteRawRecord(w io.Writer, record RawRecord) error {
	data, err := record.MarshalBinary()
	if err != nil {
		return err
	}
	if len(data) > 0xffff {
		return errors.Errorf("raw record too large: %d bytes", len(data))
	}
	var sizeB [2]byte
	ByteOrder.PutUint16(sizeB[:], uint16(len(data)))
	if _, err = w.Write(sizeB[:]); err != nil {
		return errors.Wrap(err, "failed to write record size")
	}
	if _, err = w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write record")
	}
	return nil
}

// ReadRawRecord reads a size prefixed record, it returns io.EOF at the end of the input
func ReadRawRecord(r io.Reader) (RawRecord, error) {
	var record RawRecord
	var sizeB [2]byte
	if _, err := io.ReadFull(r, sizeB[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return record, errors.Wrap(ErrNotEnoughData, "truncated record size")
		}
		return record, err
	}

	data := make([]byte, ByteOrder.Uint16(sizeB[:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return record, errors.Wrapf(ErrNotEnoughData, "truncated record: %v", err)
	}
	if _, err := record.UnmarshalBinary(data); err != nil {
		return record, err
	}
	return record, nil
}
