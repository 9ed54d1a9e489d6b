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
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sys/unix"
)

func writeLauncher(c *qt.C, script string) string {
	path := filepath.Join(c.TempDir(), "launcher")
	c.Assert(os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755), qt.IsNil)
	return path
}

func TestLauncherStarterReady(t *testing.T) {
	c := qt.New(t)

	out := filepath.Join(c.TempDir(), "args")
	starter := &LauncherStarter{
		Launcher: writeLauncher(c, `echo "$@" > `+out+`; (printf '\001' >&3; sleep 1) >/dev/null 2>&1 & echo $!`),
		Args:     []string{"--follow"},
		Timeout:  5 * time.Second,
	}
	c.Assert(starter.StartTrace(), qt.IsNil)

	args, err := os.ReadFile(out)
	c.Assert(err, qt.IsNil)
	c.Assert(string(args), qt.Equals, "attach --pid "+strconv.Itoa(os.Getpid())+" --ready-fd 3 --detach --follow\n")

	// the launcher was reaped and the tracer isn't a child of the process
	var ws unix.WaitStatus
	_, err = unix.Wait4(-1, &ws, unix.WNOHANG, nil)
	c.Assert(err, qt.Equals, unix.ECHILD)
}

func TestLauncherStarterDropsPreload(t *testing.T) {
	c := qt.New(t)

	t.Setenv(PreloadEnv, filepath.Join(c.TempDir(), "missing.so"))
	out := filepath.Join(c.TempDir(), "env")
	starter := &LauncherStarter{
		Launcher: writeLauncher(c, `echo "${LD_PRELOAD-unset}" > `+out+`; (printf '\001' >&3) >/dev/null 2>&1 & echo $!`),
		Timeout:  5 * time.Second,
	}
	c.Assert(starter.StartTrace(), qt.IsNil)

	env, err := os.ReadFile(out)
	c.Assert(err, qt.IsNil)
	c.Assert(string(env), qt.Equals, "unset\n")
}

func TestLauncherStarterExitsWithoutAttaching(t *testing.T) {
	c := qt.New(t)

	starter := &LauncherStarter{Launcher: writeLauncher(c, "exit 1"), Timeout: 5 * time.Second}
	c.Assert(starter.StartTrace(), qt.ErrorMatches, ".* didn't attach.*")
}

func TestLauncherStarterWithoutTracerPID(t *testing.T) {
	c := qt.New(t)

	starter := &LauncherStarter{Launcher: writeLauncher(c, "exit 0"), Timeout: 5 * time.Second}
	c.Assert(starter.StartTrace(), qt.ErrorMatches, `.* didn't attach: invalid tracer pid ""`)
}

func TestLauncherStarterTimeout(t *testing.T) {
	c := qt.New(t)

	starter := &LauncherStarter{
		Launcher: writeLauncher(c, "sleep 10 >/dev/null 2>&1 & echo $!"),
		Timeout:  50 * time.Millisecond,
	}
	c.Assert(starter.StartTrace(), qt.ErrorMatches, ".* didn't attach.*")
}

func TestLauncherStarterMissingLauncher(t *testing.T) {
	c := qt.New(t)

	starter := &LauncherStarter{Launcher: filepath.Join(c.TempDir(), "missing")}
	c.Assert(starter.StartTrace(), qt.ErrorMatches, "couldn't start .*")
}

func TestNewLauncherStarterFromEnv(t *testing.T) {
	c := qt.New(t)

	t.Setenv(LauncherEnv, "/opt/bin/pytrace")
	t.Setenv(LauncherArgsEnv, "--json\n--syscall=write\n\n--output=/tmp/trace.json")

	starter, err := NewLauncherStarterFromEnv()
	c.Assert(err, qt.IsNil)
	c.Assert(starter.Launcher, qt.Equals, "/opt/bin/pytrace")
	c.Assert(starter.Args, qt.DeepEquals, []string{"--json", "--syscall=write", "--output=/tmp/trace.json"})
	c.Assert(starter.Timeout, qt.Equals, defaultReadyTimeout)
}

func TestNewLauncherStarterFromEnvWithoutLauncher(t *testing.T) {
	c := qt.New(t)

	t.Setenv(LauncherEnv, "")
	t.Setenv("PATH", c.TempDir())

	_, err := NewLauncherStarterFromEnv()
	c.Assert(err, qt.ErrorMatches, "PYTRACE_BIN isn't set and pytrace isn't in PATH: .*")
}
