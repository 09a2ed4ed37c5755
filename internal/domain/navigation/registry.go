package navigation

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/navcore/internal/shared/arena"
	"go.uber.org/zap"
)

// OpenedViewModelInfo is an immutable snapshot of one opened view-model
type OpenedViewModelInfo struct {
	ViewModel ViewModel
	Provider  any
	Type      Type
}

// weakEntry holds non-owning handles; it decays when the view-model's handle
// stops resolving.
type weakEntry struct {
	vm       arena.Handle
	provider arena.Handle
	typ      Type
}

// Registry tracks which view-models are open per navigation type without
// extending their lifetime. Decayed entries are pruned lazily on access.
type Registry struct {
	mu     sync.Mutex
	opened map[Type][]*weakEntry

	// Always locked after mu
	vms       *arena.Arena[ViewModel]
	providers *arena.Arena[any]

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger, metrics *monitoring.Metrics) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		opened:    make(map[Type][]*weakEntry),
		vms:       arena.New[ViewModel](),
		providers: arena.New[any](),
		logger:    logger,
		metrics:   metrics,
	}
}

// ListOpenTypes returns the types that currently have a stored list. A type
// whose list emptied through Reconcile is still reported until the next
// ListOpened for it.
func (r *Registry) ListOpenTypes() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]Type, 0, len(r.opened))
	for t := range r.opened {
		types = append(types, t)
	}
	sortTypes(types)
	return types
}

// ListOpened returns the live view-models opened under typ in the order they
// were opened. Decayed entries are removed in place; the type is forgotten
// when nothing survives.
func (r *Registry) ListOpened(typ Type) []OpenedViewModelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listLocked(typ)
}

// ListAll returns the live view-models of every type that still has any
func (r *Registry) ListAll() map[Type][]OpenedViewModelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[Type][]OpenedViewModelInfo, len(r.opened))
	for t := range r.opened {
		if infos := r.listLocked(t); len(infos) > 0 {
			result[t] = infos
		}
	}
	return result
}

func (r *Registry) listLocked(typ Type) []OpenedViewModelInfo {
	list, ok := r.opened[typ]
	if !ok {
		return nil
	}

	result := make([]OpenedViewModelInfo, 0, len(list))
	kept := list[:0]
	for _, e := range list {
		info, ok := r.resolve(e)
		if !ok {
			r.dropEntry(e)
			continue
		}
		kept = append(kept, e)
		result = append(result, info)
	}
	clearTail(list, len(kept))

	if len(kept) == 0 {
		delete(r.opened, typ)
	} else {
		r.opened[typ] = kept
	}
	r.reportLocked(typ)
	return result
}

// ReplaceOpened overwrites the list stored for typ. An empty infos removes the
// type.
func (r *Registry) ReplaceOpened(typ Type, infos []OpenedViewModelInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.opened[typ]
	if len(infos) == 0 {
		delete(r.opened, typ)
	} else {
		fresh := make([]*weakEntry, 0, len(infos))
		for _, info := range infos {
			if info.ViewModel == nil {
				continue
			}
			fresh = append(fresh, r.newEntry(info.ViewModel, info.Provider, info.Type))
		}
		r.opened[typ] = fresh
	}
	// Drop after retaining so view-models present in both lists keep their slot
	for _, e := range old {
		r.dropEntry(e)
	}
	r.reportLocked(typ)
}

// Reconcile updates the registry after a committed navigation. The type's
// list is created if missing and is left in place even when it ends up empty.
func (r *Registry) Reconcile(nav *Context) {
	mustContext(nav)

	from := nav.ViewModelFrom()
	if DoNotTrackViewModelFrom.Value(nav.Data()) {
		from = nil
	}
	to := nav.ViewModelTo()
	if DoNotTrackViewModelTo.Value(nav.Data()) {
		to = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	typ := nav.Type()
	list, ok := r.opened[typ]
	if !ok {
		list = []*weakEntry{}
	}

	if to != nil && nav.Mode().opens() {
		var reuse *weakEntry
		kept := list[:0]
		for _, e := range list {
			vm, ok := r.vms.Resolve(e.vm)
			switch {
			case !ok:
				r.dropEntry(e)
			case vm == to:
				if reuse != nil {
					r.dropEntry(reuse)
				}
				reuse = e
			default:
				kept = append(kept, e)
			}
		}
		clearTail(list, len(kept))
		if reuse == nil {
			reuse = r.newEntry(to, nav.Provider(), typ)
		}
		list = append(kept, reuse)
	}

	if from != nil && nav.Mode().IsClose() {
		kept := list[:0]
		for _, e := range list {
			vm, ok := r.vms.Resolve(e.vm)
			if !ok || vm == from {
				r.dropEntry(e)
				continue
			}
			kept = append(kept, e)
		}
		clearTail(list, len(kept))
		list = kept
	}

	r.opened[typ] = list
	r.reportLocked(typ)
}

// Release marks vm as destroyed by its owner. Every entry referring to it
// decays and is pruned on the next access.
func (r *Registry) Release(vm ViewModel) bool {
	if vm == nil || !isComparable(vm) {
		return false
	}
	released := r.vms.Release(vm)
	if r.providers.Release(vm) {
		released = true
	}
	if released {
		r.logger.Debug("view-model released", zap.String("view_model", describe(vm)))
	}
	return released
}

// Tracked reports how many distinct view-models the registry holds handles to
func (r *Registry) Tracked() int {
	return r.vms.Len()
}

func (r *Registry) newEntry(vm ViewModel, provider any, typ Type) *weakEntry {
	if !isComparable(vm) {
		panic(fmt.Sprintf("navigation: view-model %T is not comparable", vm))
	}
	e := &weakEntry{vm: r.vms.Retain(vm), typ: typ}
	if provider != nil && isComparable(provider) {
		e.provider = r.providers.Retain(provider)
	}
	return e
}

func (r *Registry) dropEntry(e *weakEntry) {
	r.vms.Drop(e.vm)
	if !e.provider.IsZero() {
		r.providers.Drop(e.provider)
	}
}

func (r *Registry) resolve(e *weakEntry) (OpenedViewModelInfo, bool) {
	vm, ok := r.vms.Resolve(e.vm)
	if !ok {
		return OpenedViewModelInfo{}, false
	}
	info := OpenedViewModelInfo{ViewModel: vm, Type: e.typ}
	if p, ok := r.providers.Resolve(e.provider); ok {
		info.Provider = p
	}
	return info, true
}

// reportLocked publishes the stored entry count for typ (must hold lock)
func (r *Registry) reportLocked(typ Type) {
	r.metrics.SetOpenViewModels(typ.Key(), len(r.opened[typ]))
}

func isComparable(v any) bool {
	return reflect.TypeOf(v).Comparable()
}

// clearTail nils out entries past n so the backing array does not pin them
func clearTail(list []*weakEntry, n int) {
	for i := n; i < len(list); i++ {
		list[i] = nil
	}
}

func sortTypes(types []Type) {
	sort.Slice(types, func(i, j int) bool {
		if types[i].Name != types[j].Name {
			return types[i].Name < types[j].Name
		}
		return types[i].Operation < types[j].Operation
	})
}
