//go:build linux && amd64

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

import "golang.org/x/sys/unix"

// Syscalls rendered with typed arguments
const (
	SysWrite    Syscall = unix.SYS_WRITE
	SysClose    Syscall = unix.SYS_CLOSE
	SysFstat    Syscall = unix.SYS_FSTAT
	SysMmap     Syscall = unix.SYS_MMAP
	SysIoctl    Syscall = unix.SYS_IOCTL
	SysGetpid   Syscall = unix.SYS_GETPID
	SysGetdents Syscall = unix.SYS_GETDENTS
	SysOpenat   Syscall = unix.SYS_OPENAT
)

var syscallNames = map[Syscall]string{
	SysWrite:    "write",
	SysClose:    "close",
	SysFstat:    "fstat",
	SysMmap:     "mmap",
	SysIoctl:    "ioctl",
	SysGetpid:   "getpid",
	SysGetdents: "getdents",
	SysOpenat:   "openat",
}
