package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrCommandChannel is returned when the command channel was closed
	// without a Quit.
	ErrCommandChannel = errors.New("timer: command channel closed")
	// ErrStopped is returned by Send after the service goroutine exited.
	ErrStopped = errors.New("timer: service stopped")
)

// Notifier delivers one byte to the main loop.
type Notifier interface {
	Notify(b byte) error
}

// Service owns the timer states on a dedicated goroutine.
type Service struct {
	cmds     chan Command
	notifier Notifier
	logger   *slog.Logger
	timers   set

	startOnce sync.Once
	exited    chan struct{}
	err       error
}

// New returns a service with the given repeat policies. Timers without a
// policy use None.
func New(policies map[Name]Repeat, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cmds:     make(chan Command, 16),
		notifier: notifier,
		logger:   logger,
		timers:   newSet(policies),
		exited:   make(chan struct{}),
	}
}

// Start launches the service goroutine.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		go func() {
			s.err = s.run()
			close(s.exited)
		}()
	})
}

// Send queues a command for the service.
func (s *Service) Send(cmd Command) error {
	select {
	case <-s.exited:
		return ErrStopped
	default:
	}
	select {
	case s.cmds <- cmd:
		return nil
	case <-s.exited:
		return ErrStopped
	}
}

// Done is closed when the service goroutine has exited.
func (s *Service) Done() <-chan struct{} {
	return s.exited
}

// Err returns the reason the service exited, once Done is closed.
func (s *Service) Err() error {
	select {
	case <-s.exited:
		return s.err
	default:
		return nil
	}
}

// Stop sends Quit and waits for the goroutine to exit.
func (s *Service) Stop() error {
	if err := s.Send(Quit()); err != nil && !errors.Is(err, ErrStopped) {
		return err
	}
	<-s.exited
	return s.err
}

func (s *Service) run() error {
	s.logger.Debug("timer service started")
	for {
		var (
			wait  *time.Timer
			alarm <-chan time.Time
		)
		if d, ok := s.timers.next(); ok {
			wait = time.NewTimer(d)
			alarm = wait.C
		}

		start := time.Now()
		var (
			cmd    Command
			gotCmd bool
		)
		select {
		case c, ok := <-s.cmds:
			if !ok {
				s.logger.Error("timer service: command channel closed")
				return ErrCommandChannel
			}
			cmd, gotCmd = c, true
		case <-alarm:
		}
		if wait != nil {
			wait.Stop()
		}

		for _, name := range s.timers.advance(time.Since(start)) {
			if err := s.notifier.Notify(name.Byte()); err != nil {
				s.logger.Error("timer service: notify failed", "timer", name, "error", err)
				return fmt.Errorf("timer %s: %w", name, err)
			}
		}
		if gotCmd && s.timers.apply(cmd) {
			s.logger.Debug("timer service stopped")
			return nil
		}
	}
}
