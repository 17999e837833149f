// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/bryanwweber/tomltool/cmd/tomltool"

func main() {
	cmd.Execute()
}
