package navigation

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/navcore/internal/shared/id"
	"github.com/GriffinCanCode/navcore/internal/shared/metadata"
)

// ViewModel is anything that can be navigated to. Implementations must be
// comparable by identity; pointer types are the norm.
type ViewModel interface {
	// Metadata returns the view-model's settings store. The dispatcher reads
	// ClosingEvent and ClosedEvent handlers from it.
	Metadata() *metadata.Store
}

// Navigable view-models take part in navigating-from checks and receive
// navigated notifications.
type Navigable interface {
	// OnNavigatingFrom reports whether the view-model may be left. It may
	// return at once or block until it decides; it must honour ctx.
	OnNavigatingFrom(ctx context.Context, nav *Context) (bool, error)
	OnNavigatedFrom(nav *Context)
	OnNavigatedTo(nav *Context)
}

// Closeable view-models can veto and observe being closed.
type Closeable interface {
	OnClosing(ctx context.Context, nav *Context) (bool, error)
	OnClosed(nav *Context)
}

// Identifiable view-models have a stable id and can be saved in snapshots.
type Identifiable interface {
	ID() string
}

// ClosingHandler observes a view-model about to close and may veto it
type ClosingHandler func(vm ViewModel, args *ClosingEventArgs)

// ClosedHandler observes a view-model that has closed
type ClosedHandler func(vm ViewModel, args *ClosedEventArgs)

// View-model metadata keys holding external event handlers
var (
	ClosingEvent = metadata.NewKey[ClosingHandler]("ClosingEvent")
	ClosedEvent  = metadata.NewKey[ClosedHandler]("ClosedEvent")
)

// Deferral is a deferred closing decision registered by a ClosingHandler
type Deferral func(ctx context.Context) (bool, error)

// ClosingEventArgs is passed to a ClosingHandler. The handler either decides
// synchronously with Cancel, or registers Deferrals that are awaited after it
// returns.
type ClosingEventArgs struct {
	ViewModel ViewModel
	Context   *Context

	mu        sync.Mutex
	canceled  bool
	deferrals []Deferral
}

func newClosingEventArgs(vm ViewModel, nav *Context) *ClosingEventArgs {
	return &ClosingEventArgs{ViewModel: vm, Context: nav}
}

// Cancel vetoes the close
func (a *ClosingEventArgs) Cancel() {
	a.mu.Lock()
	a.canceled = true
	a.mu.Unlock()
}

// IsCanceled reports whether the close was vetoed synchronously
func (a *ClosingEventArgs) IsCanceled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canceled
}

// Defer registers a deferred decision
func (a *ClosingEventArgs) Defer(d Deferral) {
	if d == nil {
		return
	}
	a.mu.Lock()
	a.deferrals = append(a.deferrals, d)
	a.mu.Unlock()
}

// CanClose awaits every deferral in registration order. It allows only when
// nothing canceled and every deferral allowed; the first denial or error
// stops the chain.
func (a *ClosingEventArgs) CanClose(ctx context.Context) (bool, error) {
	a.mu.Lock()
	canceled := a.canceled
	deferrals := append([]Deferral(nil), a.deferrals...)
	a.mu.Unlock()

	if canceled {
		return false, nil
	}
	for _, d := range deferrals {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		ok, err := d(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return !a.IsCanceled(), nil
}

// ClosedEventArgs is passed to a ClosedHandler
type ClosedEventArgs struct {
	ViewModel ViewModel
	Context   *Context
}

// Base implements ViewModel and Identifiable for embedding. The zero value is
// ready to use and mints an id on first access.
type Base struct {
	once sync.Once
	id   string
	meta *metadata.Store
}

// NewBase creates a Base with a fixed id; an empty id is generated lazily.
func NewBase(vmID string) *Base {
	return &Base{id: vmID}
}

func (b *Base) init() {
	b.once.Do(func() {
		if b.id == "" {
			b.id = id.NewViewModelID().String()
		}
		b.meta = metadata.NewStore()
	})
}

// ID returns the view-model id
func (b *Base) ID() string {
	b.init()
	return b.id
}

// Metadata returns the settings store
func (b *Base) Metadata() *metadata.Store {
	b.init()
	return b.meta
}

// OnClosingFunc registers a ClosingHandler on vm's metadata
func OnClosingFunc(vm ViewModel, h ClosingHandler) {
	ClosingEvent.Set(vm.Metadata(), h)
}

// OnClosedFunc registers a ClosedHandler on vm's metadata
func OnClosedFunc(vm ViewModel, h ClosedHandler) {
	ClosedEvent.Set(vm.Metadata(), h)
}
