package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/logtools/ingressparse/pkg/logging"
)

// Manager handles graceful shutdown of the serve command. Registered
// functions run in reverse order (LIFO) so the HTTP server stops before
// the store closes.
type Manager struct {
	shutdownFuncs []func(context.Context) error
	mu            sync.Mutex
	timeout       time.Duration
	log           *logging.Logger
}

// New creates a new shutdown manager.
func New(timeout time.Duration, log *logging.Logger) *Manager {
	return &Manager{
		shutdownFuncs: make([]func(context.Context) error, 0),
		timeout:       timeout,
		log:           log,
	}
}

// Register adds a shutdown function.
func (m *Manager) Register(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownFuncs = append(m.shutdownFuncs, fn)
}

// Wait blocks until SIGTERM or SIGINT arrives, then runs the registered
// shutdown functions.
func (m *Manager) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	m.log.Info("received signal, shutting down", map[string]interface{}{"signal": sig.String()})
	m.Shutdown()
}

// Shutdown executes the registered functions in reverse order.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	for i := len(m.shutdownFuncs) - 1; i >= 0; i-- {
		if err := m.shutdownFuncs[i](ctx); err != nil {
			m.log.Error("shutdown step failed", map[string]interface{}{"step": i, "error": err.Error()})
		}
	}
	m.log.Info("graceful shutdown complete")
}

// StopHTTPServer wraps an http.Server-style Shutdown for Register.
func StopHTTPServer(server interface{ Shutdown(context.Context) error }) func(context.Context) error {
	return func(ctx context.Context) error {
		return server.Shutdown(ctx)
	}
}

// CloseResource wraps an io.Closer for Register.
func CloseResource(closer interface{ Close() error }) func(context.Context) error {
	return func(context.Context) error {
		return closer.Close()
	}
}
