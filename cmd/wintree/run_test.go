package main

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestExitOnSignalReturnsWhenDone(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	returned := make(chan struct{})
	exited := false
	go func() {
		exitOnSignal(sigCh, done, func() { exited = true }, quietLogger())
		close(returned)
	}()

	close(done)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("exitOnSignal still waiting after done was closed")
	}
	if exited {
		t.Fatal("exit called without a signal")
	}
}

func TestExitOnSignalCallsExit(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	defer close(done)
	exited := make(chan struct{})
	go exitOnSignal(sigCh, done, func() { close(exited) }, quietLogger())

	sigCh <- syscall.SIGTERM
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("exit not called after SIGTERM")
	}
}
