package navigation

import (
	"fmt"

	"github.com/GriffinCanCode/navcore/internal/shared/metadata"
)

// Side-channel flags read from Context.Data
var (
	// DoNotTrackViewModelFrom keeps the source out of registry bookkeeping
	DoNotTrackViewModelFrom = metadata.NewKey[bool]("DoNotTrackViewModelFrom")
	// DoNotTrackViewModelTo keeps the destination out of registry bookkeeping
	DoNotTrackViewModelTo = metadata.NewKey[bool]("DoNotTrackViewModelTo")
	// ImmediateClose skips every navigating/closing guard
	ImmediateClose = metadata.NewKey[bool]("ImmediateClose")
	// SuppressCallbackOnClose stops a close from resolving the operation callback
	SuppressCallbackOnClose = metadata.NewKey[bool]("SuppressNavigationCallbackOnClose")
)

// Context describes one navigation attempt. It is created fresh per attempt
// and passed by reference through every phase. Only Data is mutable.
type Context struct {
	from     ViewModel
	to       ViewModel
	mode     Mode
	typ      Type
	provider any
	data     *metadata.Store
}

// NewContext creates a navigation context. from and to may be nil.
func NewContext(typ Type, mode Mode, from, to ViewModel, provider any) *Context {
	return &Context{
		from:     from,
		to:       to,
		mode:     mode,
		typ:      typ,
		provider: provider,
		data:     metadata.NewStore(),
	}
}

// ViewModelFrom returns the view-model being left, or nil
func (c *Context) ViewModelFrom() ViewModel { return c.from }

// ViewModelTo returns the view-model being navigated to, or nil
func (c *Context) ViewModelTo() ViewModel { return c.to }

// Mode returns the transition kind
func (c *Context) Mode() Mode { return c.mode }

// Type returns the navigation type
func (c *Context) Type() Type { return c.typ }

// Provider returns the opaque initiator of the navigation
func (c *Context) Provider() any { return c.provider }

// Data returns the side-channel store
func (c *Context) Data() *metadata.Store { return c.data }

// With sets a flag on the side-channel and returns the context for chaining
func (c *Context) With(flag metadata.Key[bool]) *Context {
	flag.Set(c.data, true)
	return c
}

// affected returns the view-model whose operation a failure or cancel
// resolves: the source when it is leaving, otherwise the destination.
func (c *Context) affected() ViewModel {
	if c.mode.IsCloseOrBackground() {
		return c.from
	}
	return c.to
}

func (c *Context) String() string {
	return fmt.Sprintf("%s(%s) from '%s' to '%s'", c.typ, c.mode, describe(c.from), describe(c.to))
}

func describe(vm ViewModel) string {
	if vm == nil {
		return "<nil>"
	}
	if id, ok := vm.(Identifiable); ok {
		return id.ID()
	}
	if s, ok := vm.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", vm)
}

func mustContext(nav *Context) {
	if nav == nil {
		panic("navigation: nil context")
	}
}
