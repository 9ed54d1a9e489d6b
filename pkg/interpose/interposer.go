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
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LauncherName is the name of the binary starting the traces, it is never traced by the interposer
const LauncherName = "pytrace"

// EntryPoint is the entry point of a program
type EntryPoint func(argv []string) int

// StartRoutine initializes the process and calls the entry point it is given
type StartRoutine func(main EntryPoint, argv []string) int

// Starter starts tracing the current process
type Starter interface {
	StartTrace() error
}

// StarterFunc adapts a function to the Starter interface
type StarterFunc func() error

// StartTrace calls f
func (f StarterFunc) StartTrace() error {
	return f()
}

// Interposer runs the trace setup at process startup and hides its effect on the pid of the process.
// It is meant to be used from a single thread during startup.
type Interposer struct {
	state      State
	remap      PidRemap
	starter    Starter
	getpid     func() int
	checkpoint *Checkpoint
}

// NewInterposer returns an interposer starting the trace with starter
func NewInterposer(starter Starter) *Interposer {
	return &Interposer{
		starter: starter,
		getpid:  os.Getpid,
	}
}

// IsLauncher returns true when argv0 is the trace launcher
func IsLauncher(argv0 string) bool {
	return filepath.Base(argv0) == LauncherName
}

// State returns the current state of the interposer
func (i *Interposer) State() State {
	return i.state
}

// Save captures the startup checkpoint. resume transfers control back to the caller of Save, nil when
// the caller does the transfer itself.
func (i *Interposer) Save(resume func()) *Checkpoint {
	if i.state != Unstarted || i.checkpoint != nil {
		panic(fmt.Sprintf("interpose: checkpoint saved in state %s", i.state))
	}
	i.checkpoint = NewCheckpoint(resume)
	return i.checkpoint
}

// Setup starts the trace, unless argv0 is the launcher. A trace start failure is logged and the process
// keeps running untraced.
func (i *Interposer) Setup(argv0 string) {
	if i.state != Unstarted {
		return
	}
	if IsLauncher(argv0) {
		logrus.Debugf("%s is the launcher, skipping trace setup", argv0)
		return
	}

	pre := i.getpid()
	if err := i.starter.StartTrace(); err != nil {
		logrus.Errorf("unable to start trace: %v", err)
	}
	post := i.getpid()

	i.remap.Set(pre, post)
	i.state = SetupRan
}

// Substitute is the entry point given to the start routine the first time: it runs the setup and
// resumes the checkpoint
func (i *Interposer) Substitute(argv []string) error {
	if i.checkpoint == nil {
		panic("interpose: no checkpoint to resume")
	}
	var argv0 string
	if len(argv) > 0 {
		argv0 = argv[0]
	}
	i.Setup(argv0)
	return i.checkpoint.Resume()
}

// Resumed marks the transfer to the real entry point
func (i *Interposer) Resumed() {
	i.state = Resumed
}

// Pids returns the pids recorded by the setup, ok is false when the setup was skipped
func (i *Interposer) Pids() (pre int, post int, ok bool) {
	return i.remap.Pids()
}

// Getpid maps the real pid of the process to the pid observed before the setup
func (i *Interposer) Getpid(real int) int {
	return i.remap.Getpid(real)
}

type resumeJump struct {
	checkpoint *Checkpoint
}

// Run calls start twice: first with the substitute entry point, which runs the setup and jumps back,
// then with main. The jump unwinds the first call with a panic.
func (i *Interposer) Run(start StartRoutine, main EntryPoint, argv []string) int {
	var checkpoint *Checkpoint
	checkpoint = i.Save(func() {
		panic(resumeJump{checkpoint: checkpoint})
	})

	substitute := func(argv []string) int {
		if err := i.Substitute(argv); err != nil {
			panic(err)
		}
		return 0
	}
	if !runUntilResume(checkpoint, func() { start(substitute, argv) }) {
		panic("interpose: start routine returned without resuming the checkpoint")
	}

	i.Resumed()
	return start(main, argv)
}

func runUntilResume(checkpoint *Checkpoint, fn func()) (resumed bool) {
	defer func() {
		if r := recover(); r != nil {
			jump, ok := r.(resumeJump)
			if !ok || jump.checkpoint != checkpoint {
				panic(r)
			}
			resumed = true
		}
	}()
	fn()
	return false
}
