package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/monosplit/monosplit/cmd/cli"
	"github.com/monosplit/monosplit/internal/split"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the monosplit command-line application.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	var unsafeWorktreeError split.UnsafeWorktreeError
	if errors.As(executionError, &unsafeWorktreeError) {
		fmt.Fprintln(os.Stdout, unsafeWorktreeError.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	os.Exit(1)
}
