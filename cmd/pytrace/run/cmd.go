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
	"github.com/spf13/cobra"

	"github.com/Gui774ume/pytrace/pkg/pytrace"
)

// PyTrace represents the base command of pytrace
var PyTrace = &cobra.Command{
	Use:           "pytrace",
	Short:         "pytrace traces the syscalls of a process with ptrace",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var runCommand = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "spawn a command and trace it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCmd,
}

var attachCommand = &cobra.Command{
	Use:   "attach --pid <pid>",
	Short: "attach to a running process and trace it until it exits",
	Args:  cobra.NoArgs,
	RunE:  attachCmd,
}

var execCommand = &cobra.Command{
	Use:   "exec --preload <library> -- command [args...]",
	Short: "exec a command with the interposer preloaded, the command starts its own trace",
	Args:  cobra.MinimumNArgs(1),
	RunE:  execCmd,
}

var replayCommand = &cobra.Command{
	Use:   "replay --input <dump>",
	Short: "parse a raw dump",
	Args:  cobra.NoArgs,
	RunE:  replayCmd,
}

var options CLIOptions

func init() {
	PyTrace.PersistentFlags().VarP(
		NewLogLevelSanitizer(&options.LogLevel),
		"log-level",
		"l",
		"log level, options: panic, fatal, error, warn, info, debug or trace")
	PyTrace.PersistentFlags().StringVarP(
		&options.PyTraceOptions.Output,
		"output",
		"o",
		"",
		"output file of the trace, the trace is written to stderr by default")
	PyTrace.PersistentFlags().BoolVar(
		&options.PyTraceOptions.RawDump,
		"raw",
		false,
		"dump the events in binary with the buffers they transferred. You can ask pytrace to parse a raw dump using the replay command")
	PyTrace.PersistentFlags().BoolVar(
		&options.PyTraceOptions.JSONDump,
		"json",
		false,
		"dump one JSON record per syscall and per process exit")
	PyTrace.PersistentFlags().IntVar(
		&options.PyTraceOptions.BufferCapacity,
		"bytes",
		pytrace.PrintBufferSize,
		"output budget of a buffer argument, including its quotes")
	PyTrace.PersistentFlags().BoolVar(
		&options.PyTraceOptions.Stats,
		"stats",
		false,
		"show syscall statistics")
	PyTrace.PersistentFlags().BoolVar(
		&options.PyTraceOptions.Follow,
		"follow",
		false,
		"defines if pytrace should trace the children and threads of the tracee")
	PyTrace.PersistentFlags().StringArrayVarP(
		&options.PyTraceOptions.CommFilters,
		"comm",
		"c",
		[]string{},
		"list of process comms to filter, leave empty to capture everything")
	PyTrace.PersistentFlags().StringArrayVarP(
		&options.SyscallFilters,
		"syscall",
		"s",
		[]string{},
		"list of syscalls to filter, leave empty to capture everything")

	attachCommand.Flags().IntVar(
		&options.PyTraceOptions.PID,
		"pid",
		0,
		"pid of the process to attach to")
	attachCommand.Flags().IntVar(
		&options.PyTraceOptions.ReadyFD,
		"ready-fd",
		0,
		"file descriptor notified once the tracer is attached")
	attachCommand.Flags().BoolVar(
		&options.Detach,
		"detach",
		false,
		"restart in the background, print the pid of the tracer and exit. The tracee doesn't become the parent of its tracer")
	_ = attachCommand.MarkFlagRequired("pid")

	execCommand.Flags().StringVar(
		&options.Preload,
		"preload",
		"",
		"path to the interposer library")
	_ = execCommand.MarkFlagRequired("preload")

	replayCommand.Flags().StringVar(
		&options.InputFile,
		"input",
		"",
		"input file to parse data from")
	_ = replayCommand.MarkFlagRequired("input")

	PyTrace.AddCommand(runCommand, attachCommand, execCommand, replayCommand)
}
