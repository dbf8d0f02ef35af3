package main

import (
	"fmt"
	"io"
	"sync"
)

// terminalNavigator stands in for a page change: it prints where the user
// would land and signals done once.
type terminalNavigator struct {
	out  io.Writer
	once sync.Once
	done chan string
}

func newTerminalNavigator(out io.Writer) *terminalNavigator {
	return &terminalNavigator{out: out, done: make(chan string, 1)}
}

func (n *terminalNavigator) Navigate(path string) {
	n.once.Do(func() {
		fmt.Fprintf(n.out, "-> %s\n", path)
		n.done <- path
	})
}
