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
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	// syscallTrap is the stop signal of syscall stops with PTRACE_O_TRACESYSGOOD
	syscallTrap = unix.SIGTRAP | 0x80
	// defaultStopTimeout is how long stop waits for the tracees to be killed or detached
	defaultStopTimeout = 5 * time.Second
)

type traceeState struct {
	inSyscall bool
	entry     RegisterSnapshot
	// fresh is set until the initial SIGSTOP of a new tracee was suppressed
	fresh bool
}

// tracer drives the ptrace loop. Every ptrace request is issued from the goroutine running the loop,
// which is locked to its OS thread: the kernel ties a tracee to the thread that attached to it.
type tracer struct {
	options  Options
	dispatch EventHandler
	onExec   func(pid int)

	mainPID int
	mu      sync.Mutex
	tracees map[int]*traceeState

	started     chan error
	done        chan struct{}
	stopTimeout time.Duration
	exitCode    int
	err         error
	detaching   int32
}

func newTracer(options Options, dispatch EventHandler, onExec func(pid int)) *tracer {
	return &tracer{
		options:  options,
		dispatch: dispatch,
		onExec:   onExec,
		tracees:  make(map[int]*traceeState),
		started:  make(chan error, 1),
		done:     make(chan struct{}),

		stopTimeout: defaultStopTimeout,
	}
}

func (t *tracer) spawnMode() bool {
	return len(t.options.Command) > 0
}

func (t *tracer) ptraceOptions() int {
	opts := unix.PTRACE_O_TRACESYSGOOD | unix.PTRACE_O_TRACEEXEC
	if t.options.Follow {
		opts |= unix.PTRACE_O_TRACECLONE | unix.PTRACE_O_TRACEFORK | unix.PTRACE_O_TRACEVFORK
	}
	if t.spawnMode() {
		opts |= unix.PTRACE_O_EXITKILL
	}
	return opts
}

// start attaches to the tracee and returns once it is running under ptrace
func (t *tracer) start() error {
	go t.run()
	return <-t.started
}

func (t *tracer) run() {
	// the thread is never unlocked: it is destroyed with the goroutine, and the tracees along with it
	runtime.LockOSThread()
	defer close(t.done)

	if err := t.attach(); err != nil {
		t.started <- err
		return
	}
	t.started <- nil
	t.err = t.loop()
}

func (t *tracer) attach() error {
	if t.spawnMode() {
		cmd := exec.Command(t.options.Command[0], t.options.Command[1:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}
		if err := cmd.Start(); err != nil {
			return errors.Wrapf(err, "couldn't start %s", t.options.Command[0])
		}
		t.mainPID = cmd.Process.Pid
	} else {
		if err := unix.PtraceAttach(t.options.PID); err != nil {
			return errors.Wrapf(err, "couldn't attach to %d", t.options.PID)
		}
		t.mainPID = t.options.PID
	}

	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(t.mainPID, &ws, unix.WALL, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "couldn't wait for %d", t.mainPID)
		}
		break
	}
	if !ws.Stopped() {
		return errors.Errorf("tracee %d exited before the trace started", t.mainPID)
	}

	if err := unix.PtraceSetOptions(t.mainPID, t.ptraceOptions()); err != nil {
		return errors.Wrapf(err, "couldn't set ptrace options of %d", t.mainPID)
	}
	t.addTracee(t.mainPID, false)
	logrus.Debugf("tracing pid %d", t.mainPID)

	if err := unix.PtraceSyscall(t.mainPID, 0); err != nil {
		return errors.Wrapf(err, "couldn't resume %d", t.mainPID)
	}
	return nil
}

func (t *tracer) loop() error {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WALL, nil)
		if err != nil {
			switch err {
			case unix.EINTR:
				continue
			case unix.ECHILD:
				return nil
			}
			return errors.Wrap(err, "wait4 failed")
		}

		t.handleStatus(pid, ws)

		t.mu.Lock()
		remaining := len(t.tracees)
		t.mu.Unlock()
		if remaining == 0 {
			return nil
		}
	}
}

func (t *tracer) handleStatus(pid int, ws unix.WaitStatus) {
	switch {
	case ws.Exited():
		t.onExit(pid, ws.ExitStatus())
	case ws.Signaled():
		t.onExit(pid, 128+int(ws.Signal()))
	case ws.Stopped():
		t.onStop(pid, ws)
	}
}

func (t *tracer) onExit(pid int, code int) {
	if _, ok := t.tracee(pid); !ok {
		return
	}
	if pid == t.mainPID {
		t.exitCode = code
	}
	t.removeTracee(pid)
	t.dispatch(NewExitedEvent(pid, code))
}

func (t *tracer) onStop(pid int, ws unix.WaitStatus) {
	state, ok := t.tracee(pid)
	if !ok {
		// a new child can report its first stop before its parent reports the fork event
		state = t.addTracee(pid, true)
	}
	sig := ws.StopSignal()

	if atomic.LoadInt32(&t.detaching) == 1 {
		t.detach(pid, ws)
		return
	}

	switch {
	case sig == syscallTrap:
		t.onSyscallStop(pid, state)
		t.resume(pid, 0)
	case sig == unix.SIGTRAP && ws.TrapCause() > 0:
		t.onEventStop(pid, ws.TrapCause())
		t.resume(pid, 0)
	case sig == unix.SIGSTOP && state.fresh:
		state.fresh = false
		t.resume(pid, 0)
	case isGroupStop(pid):
		t.resume(pid, 0)
	default:
		t.resume(pid, sig)
	}
}

func (t *tracer) onSyscallStop(pid int, state *traceeState) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		// the tracee was killed, its exit will be reported
		logrus.Debugf("couldn't read registers of %d: %v", pid, err)
		return
	}
	snapshot := NewRegisterSnapshot(regs)

	if !state.inSyscall {
		state.inSyscall = true
		state.entry = snapshot
		t.dispatch(NewSyscallEnterEvent(pid, snapshot))
		return
	}
	state.inSyscall = false
	t.dispatch(NewSyscallExitEvent(pid, state.entry, snapshot))
}

func (t *tracer) onEventStop(pid int, cause int) {
	switch cause {
	case unix.PTRACE_EVENT_CLONE, unix.PTRACE_EVENT_FORK, unix.PTRACE_EVENT_VFORK:
		msg, err := unix.PtraceGetEventMsg(pid)
		if err != nil {
			logrus.Debugf("couldn't read the new child of %d: %v", pid, err)
			return
		}
		child := int(msg)
		if _, ok := t.tracee(child); !ok {
			t.addTracee(child, true)
		}
		logrus.Debugf("following %d, child of %d", child, pid)
	case unix.PTRACE_EVENT_EXEC:
		msg, err := unix.PtraceGetEventMsg(pid)
		if err == nil && int(msg) != pid {
			// a thread other than the leader called execve, it took over the leader pid
			t.removeTracee(int(msg))
		}
		if t.onExec != nil {
			t.onExec(pid)
		}
	}
}

// resume restarts a stopped tracee until its next syscall stop
func (t *tracer) resume(pid int, sig unix.Signal) {
	if err := unix.PtraceSyscall(pid, int(sig)); err != nil && err != unix.ESRCH {
		logrus.Warnf("couldn't resume %d: %v", pid, err)
	}
}

// detach releases a stopped tracee. The signal of a signal-delivery stop is forwarded, except for the
// SIGSTOP sent by stop.
func (t *tracer) detach(pid int, ws unix.WaitStatus) {
	var sig unix.Signal
	if s := ws.StopSignal(); s != syscallTrap && s != unix.SIGSTOP && s != unix.SIGTRAP && !isGroupStop(pid) {
		sig = s
	}
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_DETACH, uintptr(pid), 0, uintptr(sig), 0, 0)
	if errno != 0 && errno != unix.ESRCH {
		logrus.Warnf("couldn't detach from %d: %v", pid, errno)
	}
	t.removeTracee(pid)
	_ = unix.Kill(pid, unix.SIGCONT)
	logrus.Debugf("detached from %d", pid)
}

// isGroupStop returns true when the stopped tracee is in a group-stop, in which case no siginfo is
// available
func isGroupStop(pid int) bool {
	var info [128]byte
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_GETSIGINFO, uintptr(pid), 0, uintptr(unsafe.Pointer(&info[0])), 0, 0)
	return errno == unix.EINVAL
}

func (t *tracer) tracee(pid int) (*traceeState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.tracees[pid]
	return state, ok
}

func (t *tracer) addTracee(pid int, fresh bool) *traceeState {
	state := &traceeState{fresh: fresh}
	t.mu.Lock()
	t.tracees[pid] = state
	t.mu.Unlock()
	return state
}

func (t *tracer) removeTracee(pid int) {
	t.mu.Lock()
	delete(t.tracees, pid)
	t.mu.Unlock()
}

func (t *tracer) pids() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	pids := make([]int, 0, len(t.tracees))
	for pid := range t.tracees {
		pids = append(pids, pid)
	}
	return pids
}

// stop kills the spawned tracees, or detaches from the attached ones, and waits for the loop to return
func (t *tracer) stop() error {
	select {
	case <-t.done:
		return nil
	default:
	}

	if t.spawnMode() {
		for _, pid := range t.pids() {
			_ = unix.Kill(pid, unix.SIGKILL)
		}
	} else {
		atomic.StoreInt32(&t.detaching, 1)
		for _, pid := range t.pids() {
			_ = unix.Kill(pid, unix.SIGSTOP)
		}
	}

	select {
	case <-t.done:
		return nil
	case <-time.After(t.stopTimeout):
		return errors.Errorf("tracees still running after %s", t.stopTimeout)
	}
}

// wait blocks until the loop returned
func (t *tracer) wait() (int, error) {
	<-t.done
	return t.exitCode, t.err
}
