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
	"github.com/DataDog/gopsutil/process"
)

// ProcessResolver resolves and caches the comm of the tracees
type ProcessResolver struct {
	cache  map[int]string
	lookup func(pid int) (string, error)
}

// NewProcessResolver returns a new process resolver
func NewProcessResolver() *ProcessResolver {
	return &ProcessResolver{
		cache:  make(map[int]string),
		lookup: lookupComm,
	}
}

func lookupComm(pid int) (string, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", err
	}
	return p.Name()
}

// ResolveComm returns the comm of a process, or an empty string if it can't be resolved
func (pr *ProcessResolver) ResolveComm(pid int) string {
	if comm, ok := pr.cache[pid]; ok {
		return comm
	}
	comm, err := pr.lookup(pid)
	if err != nil {
		return ""
	}
	pr.cache[pid] = comm
	return comm
}

// Forget drops the cached comm of a process, after an exec or an exit
func (pr *ProcessResolver) Forget(pid int) {
	delete(pr.cache, pid)
}
