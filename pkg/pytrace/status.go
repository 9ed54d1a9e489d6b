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

//go:generate stringer -type=Status -output status_string.go

// Status is the state of a tracee at the time of an event
type Status uint8

const (
	// SyscallEnter is reported when a tracee enters a syscall
	SyscallEnter Status = iota
	// SyscallExit is reported when a syscall returns
	SyscallExit
	// ExitedNormally is reported when a tracee exits, it is the last event of a tracee
	ExitedNormally
)
