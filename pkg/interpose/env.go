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
	"strings"
)

// PreloadEnv is the variable loading the interposer into a program
const PreloadEnv = "LD_PRELOAD"

// EnvironWithout returns the environment of the process without the given variables
func EnvironWithout(keys ...string) []string {
	return filterEnv(os.Environ(), keys...)
}

func filterEnv(env []string, keys ...string) []string {
	output := make([]string, 0, len(env))
	for _, entry := range env {
		name, _, _ := strings.Cut(entry, "=")
		drop := false
		for _, key := range keys {
			if name == key {
				drop = true
				break
			}
		}
		if !drop {
			output = append(output, entry)
		}
	}
	return output
}
