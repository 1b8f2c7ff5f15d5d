// Command cdctrg drives the drift chamber trigger front-end simulator.
package main

import "github.com/sarchlab/cdctrg/cmd/cdctrg/cmd"

func main() {
	cmd.Execute()
}
