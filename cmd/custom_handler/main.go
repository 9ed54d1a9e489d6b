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

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Gui774ume/pytrace/pkg/pytrace"
)

// counters is the context of the syscall counter plugin
type counters map[int]map[pytrace.Syscall]uint64

// syscallCounter counts the syscalls of each tracee and prints the counters of a tracee when it exits
var syscallCounter = pytrace.TraceHandler[counters]{
	Init: func(ctx counters) (counters, error) {
		if ctx == nil {
			ctx = make(counters)
		}
		return ctx, nil
	},
	Handle: func(ctx counters, event pytrace.TraceeEvent) counters {
		switch event.Status() {
		case pytrace.SyscallExit:
			perPID, ok := ctx[event.PID()]
			if !ok {
				perPID = make(map[pytrace.Syscall]uint64)
				ctx[event.PID()] = perPID
			}
			perPID[event.Syscall()]++
		case pytrace.ExitedNormally:
			printCounters(event.PID(), event.ExitCode(), ctx[event.PID()])
			delete(ctx, event.PID())
		}
		return ctx
	},
}

func printCounters(pid int, exitCode int, perPID map[pytrace.Syscall]uint64) {
	syscalls := make([]pytrace.Syscall, 0, len(perPID))
	for nr := range perPID {
		syscalls = append(syscalls, nr)
	}
	sort.Slice(syscalls, func(i, j int) bool {
		return perPID[syscalls[i]] > perPID[syscalls[j]]
	})

	fmt.Printf("pid %d exited with %d\n", pid, exitCode)
	for _, nr := range syscalls {
		fmt.Printf("%24s %d\n", nr, perPID[nr])
	}
}

func main() {
	// Set log level
	logrus.SetLevel(logrus.TraceLevel)

	if len(os.Args) < 2 {
		logrus.Errorf("usage: %s command [args...]", os.Args[0])
		os.Exit(1)
	}

	handler, err := syscallCounter.Bind()
	if err != nil {
		logrus.Errorf("couldn't bind handler: %v", err)
		os.Exit(1)
	}

	// create a new PyTrace instance
	pt, err := pytrace.NewPyTrace(pytrace.Options{
		Command:      os.Args[1:],
		Follow:       true,
		EventHandler: handler,
	})
	if err != nil {
		logrus.Errorf("couldn't instantiate pytrace: %v", err)
		os.Exit(1)
	}

	// start PyTrace
	if err = pt.Start(); err != nil {
		logrus.Errorf("couldn't start pytrace: %v", err)
		os.Exit(1)
	}

	exitCode, err := pt.Wait()
	if err != nil {
		logrus.Errorf("trace failed: %v", err)
	}
	if err = pt.Stop(); err != nil {
		logrus.Errorf("couldn't stop pytrace: %v", err)
	}
	os.Exit(exitCode)
}
