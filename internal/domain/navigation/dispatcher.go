package navigation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Dispatcher drives each navigation attempt through Navigating and then
// exactly one of Navigated, Failed or Canceled. It owns the opened
// view-model registry and resolves operation callbacks.
//
// Attempts are not serialized against each other; callers must not issue
// overlapping incompatible navigations.
type Dispatcher struct {
	callbacks CallbackManager
	registry  *Registry
	events    broadcaster
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger used for phase tracing and failures
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// NewDispatcher creates a dispatcher that reports operation results to
// callbacks.
func NewDispatcher(callbacks CallbackManager, opts ...Option) *Dispatcher {
	if callbacks == nil {
		panic("navigation: nil callback manager")
	}
	d := &Dispatcher{
		callbacks: callbacks,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.registry = NewRegistry(d.logger.Named("registry"), d.metrics)
	return d
}

// BeginNavigating runs the guard chain and reports whether the navigation may
// proceed. A veto is (false, nil). A guard error or ctx cancellation is
// returned as the error. No lock is held while a guard blocks.
func (d *Dispatcher) BeginNavigating(ctx context.Context, nav *Context) (bool, error) {
	mustContext(nav)
	d.trace("navigating", nav)

	if ImmediateClose.Value(nav.Data()) {
		return true, nil
	}

	start := time.Now()
	allowed, err := d.guard(ctx, nav)
	d.metrics.RecordGuard(nav.Type().Key(), nav.Mode().String(), time.Since(start), allowed && err == nil)
	if err != nil {
		return false, err
	}
	return allowed, nil
}

func (d *Dispatcher) guard(ctx context.Context, nav *Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	from := nav.ViewModelFrom()
	if from == nil {
		return true, nil
	}

	if n, ok := from.(Navigable); ok {
		allowed, err := n.OnNavigatingFrom(ctx, nav)
		if err != nil {
			return false, fmt.Errorf("navigating from %s: %w", describe(from), err)
		}
		if !allowed {
			return false, nil
		}
	}

	if !nav.Mode().IsClose() {
		return true, nil
	}
	return d.canClose(ctx, from, nav)
}

// canClose asks the view-model first and the ClosingEvent handler second;
// both must allow.
func (d *Dispatcher) canClose(ctx context.Context, vm ViewModel, nav *Context) (bool, error) {
	if c, ok := vm.(Closeable); ok {
		allowed, err := c.OnClosing(ctx, nav)
		if err != nil {
			return false, fmt.Errorf("closing %s: %w", describe(vm), err)
		}
		if !allowed {
			return false, nil
		}
	}

	handler, ok := ClosingEvent.Get(vm.Metadata())
	if !ok || handler == nil {
		return true, nil
	}
	args := newClosingEventArgs(vm, nav)
	handler(vm, args)
	allowed, err := args.CanClose(ctx)
	if err != nil {
		return false, fmt.Errorf("closing handler for %s: %w", describe(vm), err)
	}
	return allowed, nil
}

// CommitNavigated records a navigation that has happened: it updates the
// registry, runs the navigated and closed hooks, resolves the operation
// callback of a closed view-model and emits Navigated.
func (d *Dispatcher) CommitNavigated(nav *Context) {
	mustContext(nav)
	d.trace("navigated", nav)

	d.registry.Reconcile(nav)

	from := nav.ViewModelFrom()
	if n, ok := from.(Navigable); ok {
		n.OnNavigatedFrom(nav)
	}
	if n, ok := nav.ViewModelTo().(Navigable); ok {
		n.OnNavigatedTo(nav)
	}

	if from != nil && nav.Mode().IsClose() {
		if c, ok := from.(Closeable); ok {
			c.OnClosed(nav)
		}
		if handler, ok := ClosedEvent.Get(from.Metadata()); ok && handler != nil {
			handler(from, &ClosedEventArgs{ViewModel: from, Context: nav})
		}
		if !SuppressCallbackOnClose.Value(nav.Data()) && nav.Type().HasOperation() {
			d.callbacks.SetResult(SuccessResult(nav.Type().Operation, from, nav))
		}
	}

	d.metrics.RecordNavigation(nav.Type().Key(), nav.Mode().String(), monitoring.OutcomeNavigated)
	d.emit(NavigatedEvent{Context: nav})
}

// ReportFailed finalizes a navigation that failed with err. The error is
// surfaced through the callback result and the Navigated event only.
func (d *Dispatcher) ReportFailed(nav *Context, err error) {
	mustContext(nav)
	if err == nil {
		panic("navigation: nil error")
	}
	d.trace("failed", nav)
	d.logger.Error("Navigation failed",
		zap.String("type", nav.Type().String()),
		zap.String("mode", nav.Mode().String()),
		zap.String("navigation", nav.String()),
		zap.Error(err))

	if vm := nav.affected(); vm != nil && nav.Type().HasOperation() {
		d.callbacks.SetResult(ErrorResult(nav.Type().Operation, vm, err, nav))
	}

	d.metrics.RecordNavigation(nav.Type().Key(), nav.Mode().String(), monitoring.OutcomeFailed)
	d.emit(NavigatedEvent{Context: nav, Err: err})
}

// ReportCanceled finalizes a vetoed or abandoned navigation
func (d *Dispatcher) ReportCanceled(nav *Context) {
	mustContext(nav)
	d.trace("canceled", nav)

	if vm := nav.affected(); vm != nil && nav.Type().HasOperation() {
		d.callbacks.SetResult(CanceledResult(nav.Type().Operation, vm, nav))
	}

	d.metrics.RecordNavigation(nav.Type().Key(), nav.Mode().String(), monitoring.OutcomeCanceled)
	d.emit(NavigatedEvent{Context: nav, Canceled: true})
}

// Navigate runs a full attempt: the guard chain, then perform, then the
// terminal phase matching the outcome. It returns true only when the
// navigation was committed. A veto returns (false, nil); failures are
// reported and returned.
func (d *Dispatcher) Navigate(ctx context.Context, nav *Context, perform func(ctx context.Context) error) (bool, error) {
	mustContext(nav)

	allowed, err := d.BeginNavigating(ctx, nav)
	if err != nil {
		d.finish(nav, err)
		return false, err
	}
	if !allowed {
		d.ReportCanceled(nav)
		return false, nil
	}

	if perform != nil {
		if err := perform(ctx); err != nil {
			d.finish(nav, err)
			return false, err
		}
	}

	d.CommitNavigated(nav)
	return true, nil
}

// finish routes an error to the cancel or failure phase
func (d *Dispatcher) finish(nav *Context, err error) {
	if isCancellation(err) {
		d.ReportCanceled(nav)
		return
	}
	d.ReportFailed(nav, err)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Subscribe registers fn for Navigated notifications. Delivery is
// synchronous on the goroutine that finalizes the navigation.
func (d *Dispatcher) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		panic("navigation: nil listener")
	}
	return d.events.subscribe(fn)
}

// Subscribers returns the number of active subscriptions
func (d *Dispatcher) Subscribers() int {
	return d.events.count()
}

func (d *Dispatcher) emit(ev NavigatedEvent) {
	for _, fn := range d.events.listeners() {
		d.deliver(fn, ev)
	}
}

func (d *Dispatcher) deliver(fn Listener, ev NavigatedEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Navigated listener panicked",
				zap.Any("panic", r),
				zap.String("navigation", ev.Context.String()))
		}
	}()
	fn(ev)
}

func (d *Dispatcher) trace(phase string, nav *Context) {
	ce := d.logger.Check(zap.DebugLevel, phase)
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("mode", nav.Mode().String()),
		zap.String("from", describe(nav.ViewModelFrom())),
		zap.String("to", describe(nav.ViewModelTo())),
		zap.String("type", nav.Type().String()),
	}
	if nav.Data().Len() > 0 {
		fields = append(fields, zap.Strings("flags", nav.Data().Names()))
	}
	ce.Write(fields...)
}

// Registry returns the opened view-model registry
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// OpenTypes returns the navigation types with a stored list
func (d *Dispatcher) OpenTypes() []Type {
	return d.registry.ListOpenTypes()
}

// Opened returns the live view-models opened under typ
func (d *Dispatcher) Opened(typ Type) []OpenedViewModelInfo {
	return d.registry.ListOpened(typ)
}

// AllOpened returns the live view-models of every non-empty type
func (d *Dispatcher) AllOpened() map[Type][]OpenedViewModelInfo {
	return d.registry.ListAll()
}

// UpdateOpened overwrites the opened list for typ
func (d *Dispatcher) UpdateOpened(typ Type, infos []OpenedViewModelInfo) {
	d.registry.ReplaceOpened(typ, infos)
}

// Release tells the dispatcher vm was destroyed without being closed
func (d *Dispatcher) Release(vm ViewModel) bool {
	return d.registry.Release(vm)
}
