//go:build linux && cgo

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

package main

/*
#cgo LDFLAGS: -ldl
*/
import "C"

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Gui774ume/pytrace/pkg/interpose"
)

const logLevelEnv = "PYTRACE_LOG_LEVEL"

var interposer *interpose.Interposer

func init() {
	if level, err := logrus.ParseLevel(os.Getenv(logLevelEnv)); err == nil {
		logrus.SetLevel(level)
	}

	var starter interpose.Starter
	launcher, err := interpose.NewLauncherStarterFromEnv()
	if err != nil {
		// reported once by the setup, the program runs untraced
		starter = interpose.StarterFunc(func() error { return err })
	} else {
		starter = launcher
	}
	interposer = interpose.NewInterposer(starter)
}

func main() {}

// PytraceCheckpoint registers the checkpoint saved by __libc_start_main
//
//export PytraceCheckpoint
func PytraceCheckpoint() {
	interposer.Save(nil)
}

// PytraceSubstituteMain runs the trace setup and stores the pids seen around it in pre and post, both
// are left untouched when the setup was skipped. It returns 1 when the caller may jump back to the
// checkpoint, 0 if the checkpoint was already consumed.
//
//export PytraceSubstituteMain
func PytraceSubstituteMain(argv0 *C.char, pre *C.int, post *C.int) C.int {
	var argv []string
	if argv0 != nil {
		argv = []string{C.GoString(argv0)}
	}
	if err := interposer.Substitute(argv); err != nil {
		logrus.Errorf("can't resume startup: %v", err)
		return 0
	}
	if before, after, ok := interposer.Pids(); ok {
		*pre = C.int(before)
		*post = C.int(after)
	}
	return 1
}

// PytraceResumed is called once the real entry point is about to run
//
//export PytraceResumed
func PytraceResumed() {
	interposer.Resumed()
}

// go build -o pytrace-preload.so -buildmode=c-shared ./cmd/pytrace-preload
