// SPDX-License-Identifier: MPL-2.0

package main

import cmd "termhost/cmd/termhost"

func main() {
	cmd.Execute()
}
