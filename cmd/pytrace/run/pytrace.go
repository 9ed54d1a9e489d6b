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

package run

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/Gui774ume/pytrace/pkg/interpose"
	"github.com/Gui774ume/pytrace/pkg/pytrace"
)

// preloadLogLevelEnv sets the log level of the interposer library
const preloadLogLevelEnv = "PYTRACE_LOG_LEVEL"

var exitCode int

// ExitCode returns the exit code of the main tracee of the last trace
func ExitCode() int {
	return exitCode
}

func prepareOptions() error {
	// Set log level
	logrus.SetLevel(options.LogLevel)

	options.PyTraceOptions.SyscallFilters = nil
	for _, s := range options.SyscallFilters {
		newSyscall := pytrace.ParseSyscallName(s)
		if newSyscall == -1 {
			return errors.Wrap(pytrace.ErrUnknownSyscall, s)
		}
		options.PyTraceOptions.SyscallFilters = append(options.PyTraceOptions.SyscallFilters, newSyscall)
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	if err := prepareOptions(); err != nil {
		return err
	}
	options.PyTraceOptions.Command = args
	return trace()
}

func attachCmd(cmd *cobra.Command, args []string) error {
	if err := prepareOptions(); err != nil {
		return err
	}
	if options.Detach {
		return detach(cmd.Flags())
	}
	return trace()
}

// detach restarts the attach command in the background and prints the pid of the new process. The
// ready fd is handed over as fd 3.
func detach(flags *pflag.FlagSet) error {
	self, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "couldn't resolve the pytrace binary")
	}

	args := append([]string{"attach"}, forwardedArgs(flags, "detach", "ready-fd")...)
	tracer := exec.Command(self, args...)
	tracer.Stdout = os.Stderr
	tracer.Stderr = os.Stderr
	tracer.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if fd := options.PyTraceOptions.ReadyFD; fd > 0 {
		ready := os.NewFile(uintptr(fd), "ready")
		if ready == nil {
			return errors.Errorf("invalid ready fd %d", fd)
		}
		defer ready.Close()
		tracer.ExtraFiles = []*os.File{ready}
		tracer.Args = append(tracer.Args, "--ready-fd=3")
	}

	if err := tracer.Start(); err != nil {
		return errors.Wrapf(err, "couldn't restart %s", self)
	}
	logrus.Debugf("tracer restarted as %d", tracer.Process.Pid)
	fmt.Println(tracer.Process.Pid)
	return tracer.Process.Release()
}

func trace() error {
	// create a new PyTrace instance
	pt, err := pytrace.NewPyTrace(options.PyTraceOptions)
	if err != nil {
		return errors.Wrap(err, "couldn't create a new PyTrace")
	}

	// start PyTrace
	if err := pt.Start(); err != nil {
		return errors.Wrap(err, "couldn't start")
	}
	logrus.Debugln("Tracing started ... (Ctrl + C to stop)")
	if len(pt.OutputFile) > 0 {
		logrus.Infof("output file: %s", pt.OutputFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		code, err := pt.Wait()
		exitCode = code
		return err
	})
	g.Go(func() error {
		return wait(ctx, pt)
	})

	err = g.Wait()
	if stopErr := pt.Stop(); stopErr != nil {
		logrus.Errorf("couldn't stop pytrace: %v", stopErr)
	}
	return err
}

// wait stops pytrace when an interrupt or terminate signal is sent, and returns once the trace is over
func wait(ctx context.Context, pt *pytrace.PyTrace) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-sig:
		fmt.Println()
		return pt.Stop()
	case <-ctx.Done():
		return nil
	}
}

func replayCmd(cmd *cobra.Command, args []string) error {
	if err := prepareOptions(); err != nil {
		return err
	}
	options.PyTraceOptions.RawDump = false

	pt, err := pytrace.NewPyTrace(options.PyTraceOptions)
	if err != nil {
		return errors.Wrap(err, "couldn't create a new PyTrace")
	}

	logrus.Debugf("Parsing %s ...", options.InputFile)
	err = pt.ParseInputFile(options.InputFile)
	if stopErr := pt.Stop(); stopErr != nil {
		logrus.Errorf("couldn't stop pytrace: %v", stopErr)
	}
	if err != nil {
		return errors.Wrap(err, "couldn't parse input file")
	}
	return nil
}

// execCmd replaces pytrace with the command, the interposer library then asks pytrace to attach to it
func execCmd(cmd *cobra.Command, args []string) error {
	if err := prepareOptions(); err != nil {
		return err
	}

	preload, err := filepath.Abs(options.Preload)
	if err != nil {
		return errors.Wrapf(err, "invalid preload library %s", options.Preload)
	}
	launcher, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "couldn't resolve the pytrace binary")
	}
	path, err := exec.LookPath(args[0])
	if err != nil {
		return errors.Wrapf(err, "couldn't find %s", args[0])
	}

	env := execEnv(preload, launcher, forwardedArgs(cmd.Flags(), "preload"))
	logrus.Debugf("exec %s with %s preloaded", path, preload)
	return errors.Wrapf(unix.Exec(path, args, env), "couldn't exec %s", path)
}

// execEnv is the environment of a program started by exec. The variables read by the interposer replace
// the ones already set, the first occurrence of a variable is the one a program sees.
func execEnv(preload string, launcher string, launcherArgs []string) []string {
	env := interpose.EnvironWithout(interpose.PreloadEnv, interpose.LauncherEnv, interpose.LauncherArgsEnv, preloadLogLevelEnv)
	return append(env,
		interpose.PreloadEnv+"="+preload,
		interpose.LauncherEnv+"="+launcher,
		interpose.LauncherArgsEnv+"="+strings.Join(launcherArgs, "\n"),
		preloadLogLevelEnv+"="+options.LogLevel.String(),
	)
}

// forwardedArgs returns the flags set on the command line, except the skipped ones, in a form the
// attach command parses
func forwardedArgs(flags *pflag.FlagSet, skip ...string) []string {
	var args []string
	flags.Visit(func(f *pflag.Flag) {
		for _, name := range skip {
			if f.Name == name {
				return
			}
		}
		if values, ok := f.Value.(pflag.SliceValue); ok {
			for _, value := range values.GetSlice() {
				args = append(args, fmt.Sprintf("--%s=%s", f.Name, value))
			}
			return
		}
		args = append(args, fmt.Sprintf("--%s=%s", f.Name, f.Value.String()))
	})
	return args
}
