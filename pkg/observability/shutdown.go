package observability

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a cleanup function run during graceful shutdown
type ShutdownFunc func(ctx context.Context) error

// ShutdownManager coordinates graceful shutdown of service components.
// Hooks run in reverse registration order so dependents stop before
// their dependencies.
type ShutdownManager struct {
	mu      sync.Mutex
	hooks   []namedHook
	timeout time.Duration
	logger  *Logger
}

type namedHook struct {
	name string
	fn   ShutdownFunc
}

// NewShutdownManager creates a shutdown manager with the given timeout
func NewShutdownManager(timeout time.Duration, logger *Logger) *ShutdownManager {
	if logger == nil {
		logger = NewLogger(InfoLevel, os.Stdout)
	}
	return &ShutdownManager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a named shutdown hook
func (s *ShutdownManager) Register(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, namedHook{name: name, fn: fn})
}

// Shutdown runs all registered hooks in reverse order, collecting errors
func (s *ShutdownManager) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.mu.Lock()
	hooks := make([]namedHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		s.logger.WithField("component", hook.name).Info("shutting down component")
		if err := hook.fn(ctx); err != nil {
			s.logger.WithField("component", hook.name).WithError(err).Error("component shutdown failed")
			errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown completed with %d error(s): %v", len(errs), errs)
	}
	return nil
}

// WaitForSignal blocks until SIGINT or SIGTERM is received, then returns
// the signal name
func WaitForSignal() string {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	return sig.String()
}
