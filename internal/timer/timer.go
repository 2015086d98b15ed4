// Package timer runs the named repeat timers (key repeat, click repeat,
// touch long-press) on their own goroutine. The main loop steers them with
// commands and learns about firings through the signal channel, one
// reserved byte per firing.
package timer

import (
	"fmt"
	"time"
)

// Name identifies one of the fixed timers.
type Name uint8

const (
	Key Name = iota
	Click
	Touch

	numTimers
)

// Names lists every timer.
var Names = []Name{Key, Click, Touch}

func (n Name) String() string {
	switch n {
	case Key:
		return "key"
	case Click:
		return "click"
	case Touch:
		return "touch"
	default:
		return fmt.Sprintf("timer(%d)", uint8(n))
	}
}

// Byte is the signal channel value reserved for n. Zero is left for
// generic wakeups.
func (n Name) Byte() byte {
	return byte(n) + 1
}

// FromByte maps a signal channel value back to its timer.
func FromByte(b byte) (Name, bool) {
	if b == 0 || b > byte(numTimers) {
		return 0, false
	}
	return Name(b - 1), true
}

// Repeat is a timer's re-arming rule.
type Repeat struct {
	initial   time.Duration
	interval  time.Duration
	hasDelay  bool
	recurring bool
}

// None never arms on Start; a SetDelay still fires once.
func None() Repeat {
	return Repeat{}
}

// Fixed arms at d and keeps firing every d.
func Fixed(d time.Duration) Repeat {
	return Repeat{initial: d, interval: d, hasDelay: true, recurring: true}
}

// Pair arms at initial and then fires every interval.
func Pair(initial, interval time.Duration) Repeat {
	return Repeat{initial: initial, interval: interval, hasDelay: true, recurring: true}
}

// Initial returns the delay Start arms with.
func (r Repeat) Initial() (time.Duration, bool) {
	return r.initial, r.hasDelay
}

// Interval returns the delay used after each firing.
func (r Repeat) Interval() (time.Duration, bool) {
	return r.interval, r.recurring
}

// Op is a timer command kind.
type Op uint8

const (
	OpSetDelay Op = iota
	OpStart
	OpStop
	OpQuit
)

// Command is sent from the main loop to the service.
type Command struct {
	Op    Op
	Name  Name
	Delay time.Duration
}

func SetDelay(n Name, d time.Duration) Command { return Command{Op: OpSetDelay, Name: n, Delay: d} }
func Start(n Name) Command                     { return Command{Op: OpStart, Name: n} }
func Stop(n Name) Command                      { return Command{Op: OpStop, Name: n} }
func Quit() Command                            { return Command{Op: OpQuit} }

// state is one timer. It is inactive while armed is false.
type state struct {
	repeat    Repeat
	remaining time.Duration
	armed     bool
}

// set holds every timer. It belongs to the service goroutine.
type set [numTimers]state

func newSet(policies map[Name]Repeat) set {
	var s set
	for name, r := range policies {
		if name < numTimers {
			s[name].repeat = r
		}
	}
	return s
}

// apply executes cmd and reports whether the service should quit.
func (s *set) apply(cmd Command) bool {
	if cmd.Op == OpQuit {
		return true
	}
	if cmd.Name >= numTimers {
		return false
	}
	t := &s[cmd.Name]
	switch cmd.Op {
	case OpSetDelay:
		t.remaining, t.armed = cmd.Delay, true
	case OpStart:
		if d, ok := t.repeat.Initial(); ok {
			t.remaining, t.armed = d, true
		} else {
			t.armed = false
		}
	case OpStop:
		t.armed = false
	}
	return false
}

// next returns the smallest remaining delay among armed timers.
func (s *set) next() (time.Duration, bool) {
	var (
		least time.Duration
		found bool
	)
	for i := range s {
		if !s[i].armed {
			continue
		}
		if !found || s[i].remaining < least {
			least, found = s[i].remaining, true
		}
	}
	if least < 0 {
		least = 0
	}
	return least, found
}

// advance subtracts elapsed from every armed timer and returns the ones that
// fired, re-arming those with a recurring delay.
func (s *set) advance(elapsed time.Duration) []Name {
	var fired []Name
	for i := range s {
		t := &s[i]
		if !t.armed {
			continue
		}
		t.remaining -= elapsed
		if t.remaining > 0 {
			continue
		}
		fired = append(fired, Name(i))
		if d, ok := t.repeat.Interval(); ok {
			t.remaining = d
		} else {
			t.armed = false
		}
	}
	return fired
}
