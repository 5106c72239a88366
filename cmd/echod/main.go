// File: cmd/echod/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// echod runs the single-loop TCP echo server.

package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
