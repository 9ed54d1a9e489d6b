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

package interpose

import (
	"sync/atomic"
)

type pidPair struct {
	pre  int
	post int
}

// PidRemap hides the pid change caused by the trace setup. It is written once, before the program
// starts its own threads, and is read-only afterwards.
type PidRemap struct {
	pids atomic.Pointer[pidPair]
}

// Set records the pids seen before and after the setup. Only the first call has an effect, the returned
// value reports whether it was this one.
func (r *PidRemap) Set(pre int, post int) bool {
	return r.pids.CompareAndSwap(nil, &pidPair{pre: pre, post: post})
}

// IsSet returns true once the pids were recorded
func (r *PidRemap) IsSet() bool {
	return r.pids.Load() != nil
}

// Pids returns the pids seen before and after the setup, ok is false until they were recorded
func (r *PidRemap) Pids() (pre int, post int, ok bool) {
	pids := r.pids.Load()
	if pids == nil {
		return 0, 0, false
	}
	return pids.pre, pids.post, true
}

// Getpid maps the real pid of the caller to the pid the program expects
func (r *PidRemap) Getpid(real int) int {
	pids := r.pids.Load()
	if pids != nil && real == pids.post {
		return pids.pre
	}
	return real
}
