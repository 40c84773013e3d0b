// Package main is the entry point for the droidprobe CLI.
package main

import "droidprobe.dev/pkg/droidprobe/cmd"

func main() {
	cmd.Execute()
}
