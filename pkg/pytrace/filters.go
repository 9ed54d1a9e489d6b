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

// filters select the events handed to the event handler. Process exits are only filtered by comm, and
// are kept when the process was gone before its comm could be resolved.
type filters struct {
	syscalls map[Syscall]bool
	comms    map[string]bool
	resolver *ProcessResolver
}

func newFilters(syscalls []Syscall, comms []string, resolver *ProcessResolver) *filters {
	f := &filters{
		syscalls: make(map[Syscall]bool),
		comms:    make(map[string]bool),
		resolver: resolver,
	}
	for _, nr := range syscalls {
		f.syscalls[nr] = true
	}
	for _, comm := range comms {
		f.comms[comm] = true
	}
	return f
}

func (f *filters) match(event TraceeEvent) bool {
	if len(f.comms) > 0 {
		comm := f.resolver.ResolveComm(event.PID())
		if !f.comms[comm] && !(comm == "" && event.Status() == ExitedNormally) {
			return false
		}
	}
	if len(f.syscalls) > 0 && event.Status() != ExitedNormally {
		return f.syscalls[event.Syscall()]
	}
	return true
}
