// Package bridge owns the single logical handle to the ledger kernel and the
// exclusive-access discipline that makes every dispatched cause appear
// atomic. The kernel has no concurrency control of its own visible to the
// gateway, so the bridge guarantees at most one in-flight poke at any time.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/proofmesh/snarkgate/internal/noun"
	"github.com/proofmesh/snarkgate/internal/protocol"
	"go.uber.org/zap"
)

// ErrRejected marks kernel-level rejections (unknown id, unintelligible
// cause). Kernel implementations wrap it so the gateway can tell a rejection
// apart from a transport failure.
var ErrRejected = errors.New("rejected by kernel")

// ErrNotInitialized is returned by Dispatch before Init has succeeded.
var ErrNotInitialized = errors.New("kernel not initialized")

// Kernel is the external collaborator the bridge talks to: a single
// asynchronous request/response channel accepting one cause at a time and
// returning zero or more effects.
type Kernel interface {
	Poke(ctx context.Context, cause noun.Noun) ([]noun.Noun, error)
}

// Kind classifies a DispatchError.
type Kind int

const (
	// KindTransport — the poke never reached the kernel or the channel failed.
	KindTransport Kind = iota
	// KindRejected — the kernel received the cause and refused it.
	KindRejected
	// KindTimeout — the per-dispatch timeout expired.
	KindTimeout
)

// DispatchError is the only error type Dispatch returns. Nothing is
// swallowed: every kernel failure surfaces here with its kind.
type DispatchError struct {
	Kind Kind
	Err  error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("dispatch rejected: %v", e.Err)
	case KindTimeout:
		return fmt.Sprintf("dispatch timed out: %v", e.Err)
	default:
		return fmt.Sprintf("dispatch transport failure: %v", e.Err)
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// MetricsRecordFunc is an optional callback for recording dispatch results.
type MetricsRecordFunc func(result string, d time.Duration)

// Bridge serializes all gateway-issued causes against one kernel handle.
type Bridge struct {
	mu      sync.Mutex
	kernel  Kernel
	timeout time.Duration
	booted  bool

	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a Bridge around the given kernel handle. timeout bounds each
// dispatch; zero disables the bound.
func New(kernel Kernel, timeout time.Duration, logger *zap.Logger) *Bridge {
	return &Bridge{kernel: kernel, timeout: timeout, logger: logger}
}

// SetMetricsRecord configures the metrics recording callback.
func (b *Bridge) SetMetricsRecord(fn MetricsRecordFunc) {
	b.onMetrics = fn
}

// Init dispatches the %init cause. It must be called exactly once, before
// any other dispatch; a failure here is fatal to the whole gateway, not to
// a request.
func (b *Bridge) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.booted {
		return errors.New("bridge: already initialized")
	}

	if _, err := b.poke(ctx, protocol.InitCause()); err != nil {
		return fmt.Errorf("init kernel: %w", err)
	}
	b.booted = true
	b.logger.Info("kernel initialized")
	return nil
}

// Dispatch sends one cause to the kernel and returns its effects. The
// exclusive lock is held for the full encode→send→await→receive window and
// released on every path, so concurrent HTTP requests observe a total order
// of dispatches.
func (b *Bridge) Dispatch(ctx context.Context, cause noun.Noun) ([]noun.Noun, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.booted {
		return nil, &DispatchError{Kind: KindTransport, Err: ErrNotInitialized}
	}
	return b.poke(ctx, cause)
}

// poke runs one cause against the kernel under the caller-held lock.
// A client disconnect must not abort a poke the kernel is already
// processing, so the kernel sees a context detached from the request's
// cancellation, bounded only by the per-dispatch timeout.
func (b *Bridge) poke(ctx context.Context, cause noun.Noun) ([]noun.Noun, error) {
	pokeCtx := context.WithoutCancel(ctx)
	if b.timeout > 0 {
		var cancel context.CancelFunc
		pokeCtx, cancel = context.WithTimeout(pokeCtx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	effects, err := b.kernel.Poke(pokeCtx, cause)
	elapsed := time.Since(start)

	if err != nil {
		derr := &DispatchError{Kind: KindTransport, Err: err}
		result := "transport_error"
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			derr.Kind = KindTimeout
			result = "timeout"
		case errors.Is(err, ErrRejected):
			derr.Kind = KindRejected
			result = "rejected"
		}
		b.record(result, elapsed)
		return nil, derr
	}

	b.record("ok", elapsed)
	return effects, nil
}

func (b *Bridge) record(result string, d time.Duration) {
	if b.onMetrics != nil {
		b.onMetrics(result, d)
	}
}
