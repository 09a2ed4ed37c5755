package http

import (
	"fmt"

	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
)

// TypeView is the JSON form of a navigation type
type TypeView struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Operation string `json:"operation,omitempty"`
}

// OpenedView is the JSON form of an opened view-model
type OpenedView struct {
	ViewModel string `json:"view_model"`
	Kind      string `json:"kind"`
	Provider  string `json:"provider,omitempty"`
	Type      string `json:"type"`
}

func typeView(t navigation.Type) TypeView {
	return TypeView{Key: t.Key(), Name: t.Name, Operation: string(t.Operation)}
}

func openedViews(infos []navigation.OpenedViewModelInfo) []OpenedView {
	views := make([]OpenedView, len(infos))
	for i, info := range infos {
		views[i] = OpenedView{
			ViewModel: label(info.ViewModel),
			Kind:      fmt.Sprintf("%T", info.ViewModel),
			Type:      info.Type.Key(),
		}
		if info.Provider != nil {
			views[i].Provider = label(info.Provider)
		}
	}
	return views
}

// label names a view-model or provider for display
func label(v any) string {
	switch x := v.(type) {
	case navigation.Identifiable:
		return x.ID()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}
