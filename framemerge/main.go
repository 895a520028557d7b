// Command framemerge runs the frame merger model from the command line.
package main

import "github.com/sarchlab/framemerge/framemerge/cmd"

func main() {
	cmd.Execute()
}
