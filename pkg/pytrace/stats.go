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
	"sort"

	"github.com/sirupsen/logrus"
)

// Stats counts the traced syscalls
type Stats struct {
	counts map[Syscall]uint64
	exits  uint64
}

// NewStats returns an empty Stats
func NewStats() *Stats {
	return &Stats{
		counts: make(map[Syscall]uint64),
	}
}

// Record accounts for an event, syscalls are counted on exit
func (s *Stats) Record(event TraceeEvent) {
	switch event.Status() {
	case SyscallExit:
		s.counts[event.Syscall()]++
	case ExitedNormally:
		s.exits++
	}
}

// Count returns the number of calls of a syscall
func (s *Stats) Count(nr Syscall) uint64 {
	return s.counts[nr]
}

// Total returns the number of traced syscalls
func (s *Stats) Total() uint64 {
	var total uint64
	for _, count := range s.counts {
		total += count
	}
	return total
}

// Dump logs the syscall counters, most frequent first
func (s *Stats) Dump() {
	syscalls := make([]Syscall, 0, len(s.counts))
	for nr := range s.counts {
		syscalls = append(syscalls, nr)
	}
	sort.Slice(syscalls, func(i, j int) bool {
		if s.counts[syscalls[i]] == s.counts[syscalls[j]] {
			return syscalls[i] < syscalls[j]
		}
		return s.counts[syscalls[i]] > s.counts[syscalls[j]]
	})

	logrus.Infoln()
	logrus.Infof("%24s\t\t|\t\tCalls", "Syscall Name")
	for _, nr := range syscalls {
		logrus.Infof("%24s\t\t|\t\t%d", nr, s.counts[nr])
	}
	logrus.Infoln()
	logrus.Infof("Total syscalls: %d", s.Total())
	logrus.Infof("Exited processes: %d", s.exits)
}
