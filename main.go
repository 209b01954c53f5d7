// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/forge/cmd/forge"

func main() {
	cmd.Execute()
}
