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

package interpose

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	// LauncherEnv is the path of the launcher used to attach to the process
	LauncherEnv = "PYTRACE_BIN"
	// LauncherArgsEnv holds extra launcher flags, one per line
	LauncherArgsEnv = "PYTRACE_ARGS"

	readyFD             = 3
	defaultReadyTimeout = 10 * time.Second
)

// LauncherStarter starts a trace by spawning the launcher in attach mode against the current process,
// and waits until the launcher reports that it is attached
type LauncherStarter struct {
	Launcher string
	Args     []string
	Timeout  time.Duration
}

// NewLauncherStarterFromEnv builds a LauncherStarter from PYTRACE_BIN and PYTRACE_ARGS. The launcher is
// looked up in PATH when PYTRACE_BIN isn't set.
func NewLauncherStarterFromEnv() (*LauncherStarter, error) {
	launcher := os.Getenv(LauncherEnv)
	if launcher == "" {
		path, err := exec.LookPath(LauncherName)
		if err != nil {
			return nil, errors.Wrapf(err, "%s isn't set and %s isn't in PATH", LauncherEnv, LauncherName)
		}
		launcher = path
	}

	var args []string
	for _, arg := range strings.Split(os.Getenv(LauncherArgsEnv), "\n") {
		if arg != "" {
			args = append(args, arg)
		}
	}
	return &LauncherStarter{
		Launcher: launcher,
		Args:     args,
		Timeout:  defaultReadyTimeout,
	}, nil
}

func (s *LauncherStarter) command(ctx context.Context, pid int, ready *os.File, stdout io.Writer) *exec.Cmd {
	args := append([]string{"attach", "--pid", strconv.Itoa(pid), "--ready-fd", strconv.Itoa(readyFD), "--detach"}, s.Args...)
	cmd := exec.CommandContext(ctx, s.Launcher, args...)
	// the launcher must not load the interposer, it would start a trace of its own
	cmd.Env = EnvironWithout(PreloadEnv)
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{ready}
	cmd.WaitDelay = time.Second
	return cmd
}

// StartTrace spawns the launcher and blocks until it attached to the current process. The launcher
// restarts itself in the background and prints the pid of the tracer: the tracer is never a child of
// the program, which would otherwise see it in wait(2) or SIGCHLD.
func (s *LauncherStarter) StartTrace() error {
	// Yama only lets the tracer attach once allowed to, it isn't an ancestor of the tracee
	if err := unix.Prctl(unix.PR_SET_PTRACER, unix.PR_SET_PTRACER_ANY, 0, 0, 0); err != nil {
		logrus.Debugf("PR_SET_PTRACER failed: %v", err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	deadline := time.Now().Add(timeout)

	r, w, err := os.Pipe()
	if err != nil {
		return errors.Wrap(err, "couldn't create ready pipe")
	}
	defer r.Close()

	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	var out strings.Builder
	cmd := s.command(ctx, os.Getpid(), w, &out)
	if err = cmd.Start(); err != nil {
		w.Close()
		return errors.Wrapf(err, "couldn't start %s", s.Launcher)
	}
	w.Close()

	tracer, err := tracerPID(cmd, &out)
	if err != nil {
		return errors.Wrapf(err, "%s didn't attach", s.Launcher)
	}

	if err := r.SetReadDeadline(deadline); err != nil {
		logrus.Debugf("couldn't set ready deadline: %v", err)
	}
	ready := make([]byte, 1)
	n, err := r.Read(ready)
	if n == 1 && ready[0] == 1 {
		return nil
	}
	_ = unix.Kill(tracer, unix.SIGKILL)
	if err != nil {
		return errors.Wrapf(err, "%s didn't attach", s.Launcher)
	}
	return errors.Errorf("%s didn't attach", s.Launcher)
}

// tracerPID waits for the launcher to restart in the background, and returns the pid it printed
func tracerPID(cmd *exec.Cmd, out *strings.Builder) (int, error) {
	if err := cmd.Wait(); err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(out.String()))
	if err != nil || pid <= 0 {
		return 0, errors.Errorf("invalid tracer pid %q", out.String())
	}
	return pid, nil
}
