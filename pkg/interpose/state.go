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

//go:generate stringer -type=State -output state_string.go

// State is the progress of the interposer through process startup
type State uint8

const (
	// Unstarted is the initial state
	Unstarted State = iota
	// SetupRan is reached once the trace was started, whether it succeeded or not
	SetupRan
	// Resumed is terminal: the real entry point is running
	Resumed
)
