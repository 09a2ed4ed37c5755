package callback

import (
	"context"
	"reflect"
	"sync"

	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Func receives an operation result
type Func func(navigation.OperationResult)

type key struct {
	op navigation.OperationType
	vm navigation.ViewModel
}

type registration struct {
	id uint64
	fn Func
}

// Manager implements navigation.CallbackManager
type Manager struct {
	mu      sync.Mutex
	next    uint64
	pending map[key][]registration
	count   int

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a callback manager
func NewManager(logger *zap.Logger, metrics *monitoring.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pending: make(map[key][]registration),
		logger:  logger,
		metrics: metrics,
	}
}

// Register calls fn with the next result for (op, vm). The returned function
// removes the registration if it has not fired yet.
func (m *Manager) Register(op navigation.OperationType, vm navigation.ViewModel, fn Func) (unregister func()) {
	if fn == nil {
		panic("callback: nil func")
	}
	if vm != nil && !reflect.TypeOf(vm).Comparable() {
		panic("callback: view-model is not comparable")
	}
	k := key{op: op, vm: vm}

	m.mu.Lock()
	m.next++
	id := m.next
	m.pending[k] = append(m.pending[k], registration{id: id, fn: fn})
	m.count++
	count := m.count
	m.mu.Unlock()

	m.metrics.SetCallbacksPending(count)
	return func() { m.remove(k, id) }
}

// Expect returns a Pending that completes with the next result for (op, vm)
func (m *Manager) Expect(op navigation.OperationType, vm navigation.ViewModel) *Pending {
	p := &Pending{Operation: op, ViewModel: vm, done: make(chan struct{})}
	unregister := m.Register(op, vm, p.resolve)
	p.cancel = func() {
		unregister()
		p.resolve(navigation.CanceledResult(op, vm, nil))
	}
	return p
}

// SetResult resolves every registration under (result.Operation,
// result.ViewModel). Callbacks run on the caller's goroutine after the lock is
// released.
func (m *Manager) SetResult(result navigation.OperationResult) {
	vm := result.ViewModel
	if vm != nil && !reflect.TypeOf(vm).Comparable() {
		m.unmatched(result)
		return
	}
	k := key{op: result.Operation, vm: vm}

	m.mu.Lock()
	regs := m.pending[k]
	delete(m.pending, k)
	m.count -= len(regs)
	count := m.count
	m.mu.Unlock()

	if len(regs) == 0 {
		m.unmatched(result)
		return
	}

	m.metrics.SetCallbacksPending(count)
	m.metrics.RecordCallbackResolved(result.Kind.String())
	m.logger.Debug("Operation resolved",
		zap.String("operation", string(result.Operation)),
		zap.String("kind", result.Kind.String()),
		zap.Int("callbacks", len(regs)))

	for _, reg := range regs {
		reg.fn(result)
	}
}

func (m *Manager) unmatched(result navigation.OperationResult) {
	m.metrics.RecordCallbackUnmatched()
	m.logger.Debug("No callback for operation result",
		zap.String("operation", string(result.Operation)),
		zap.String("kind", result.Kind.String()))
}

func (m *Manager) remove(k key, id uint64) {
	m.mu.Lock()
	regs := m.pending[k]
	for i, reg := range regs {
		if reg.id != id {
			continue
		}
		regs = append(regs[:i:i], regs[i+1:]...)
		m.count--
		if len(regs) == 0 {
			delete(m.pending, k)
		} else {
			m.pending[k] = regs
		}
		break
	}
	count := m.count
	m.mu.Unlock()

	m.metrics.SetCallbacksPending(count)
}

// Len returns the number of registrations awaiting a result
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// ByOperation returns the pending registration count per operation
func (m *Manager) ByOperation() map[navigation.OperationType]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[navigation.OperationType]int)
	for k, regs := range m.pending {
		out[k.op] += len(regs)
	}
	return out
}

// Pending is a future for one operation result
type Pending struct {
	Operation navigation.OperationType
	ViewModel navigation.ViewModel

	once   sync.Once
	done   chan struct{}
	result navigation.OperationResult
	cancel func()
}

func (p *Pending) resolve(r navigation.OperationResult) {
	p.once.Do(func() {
		p.result = r
		close(p.done)
	})
}

// Done is closed once the result is available
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the result if it is available
func (p *Pending) Result() (navigation.OperationResult, bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return navigation.OperationResult{}, false
	}
}

// Wait blocks until the result is available or ctx is done. Giving up on
// ctx leaves the registration in place.
func (p *Pending) Wait(ctx context.Context) (navigation.OperationResult, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return navigation.OperationResult{}, ctx.Err()
	}
}

// Cancel withdraws the registration and completes p with a canceled result.
// It has no effect once p is resolved.
func (p *Pending) Cancel() {
	p.cancel()
}
