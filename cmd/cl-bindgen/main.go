// Package main is the entry point for the cl-bindgen CLI tool.
package main

import (
	"github.com/hargabyte/cl-bindgen/internal/cmd"
)

func main() {
	cmd.Execute()
}
