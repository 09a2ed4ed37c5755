package navigation

import "fmt"

// OperationType correlates a navigation with pending operation callbacks.
// The empty value means the navigation type has no associated operation.
type OperationType string

const (
	OperationPage   OperationType = "page"
	OperationTab    OperationType = "tab"
	OperationWindow OperationType = "window"
)

// Type is the category of navigation surface. It is a comparable value and
// is used as the registry's map key.
type Type struct {
	Name      string
	Operation OperationType
}

var (
	TypeUndefined = Type{Name: "undefined"}
	TypePage      = Type{Name: "page", Operation: OperationPage}
	TypeTab       = Type{Name: "tab", Operation: OperationTab}
	TypeWindow    = Type{Name: "window", Operation: OperationWindow}
)

// NewType creates a custom navigation type
func NewType(name string, operation OperationType) Type {
	return Type{Name: name, Operation: operation}
}

// HasOperation reports whether navigations of this type resolve callbacks
func (t Type) HasOperation() bool {
	return t.Operation != ""
}

// Key renders the type unambiguously: the name alone when there is no
// operation, name:operation otherwise. Use it wherever a type becomes a
// map key or a metric label.
func (t Type) Key() string {
	if t.Operation == "" {
		return t.Name
	}
	return t.Name + ":" + string(t.Operation)
}

// String is the display form. Unlike Key it folds a matching operation into
// the name, so TypePage and NewType("page", "") both print "page".
func (t Type) String() string {
	if t.Operation == "" || string(t.Operation) == t.Name {
		return t.Name
	}
	return fmt.Sprintf("%s(%s)", t.Name, t.Operation)
}

// Mode is the kind of transition
type Mode int

const (
	ModeUndefined Mode = iota
	ModeNew
	ModeBack
	ModeForward
	ModeRefresh
	ModeReset
	ModeClose
	ModeBackground
	ModeForeground
)

var modeNames = map[Mode]string{
	ModeUndefined:  "Undefined",
	ModeNew:        "New",
	ModeBack:       "Back",
	ModeForward:    "Forward",
	ModeRefresh:    "Refresh",
	ModeReset:      "Reset",
	ModeClose:      "Close",
	ModeBackground: "Background",
	ModeForeground: "Foreground",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name back into a Mode
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeUndefined, fmt.Errorf("unknown navigation mode %q", s)
}

// IsClose reports whether the transition closes the source view-model.
// Going back leaves the current view-model for good, so it counts as a close.
func (m Mode) IsClose() bool {
	return m == ModeBack || m == ModeClose
}

// IsCloseOrBackground reports whether the source view-model is the one
// affected by the transition.
func (m Mode) IsCloseOrBackground() bool {
	return m.IsClose() || m == ModeBackground
}

// opens reports whether the destination becomes the most recently opened
// view-model of its type.
func (m Mode) opens() bool {
	return m == ModeNew || m == ModeBack || m == ModeRefresh
}
