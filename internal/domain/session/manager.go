package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/storage"
	"github.com/GriffinCanCode/navcore/internal/shared/id"
	"go.uber.org/zap"
)

const keyPrefix = "sessions/"

var (
	ErrSnapshotNotFound = errors.New("session snapshot not found")
	ErrInvalidSnapshot  = errors.New("invalid session snapshot")
)

// Registry is the view of the navigation dispatcher a Manager needs
type Registry interface {
	AllOpened() map[navigation.Type][]navigation.OpenedViewModelInfo
	UpdateOpened(typ navigation.Type, infos []navigation.OpenedViewModelInfo)
}

// Resolver maps a saved view-model id back to a live view-model
type Resolver interface {
	Resolve(ctx context.Context, viewModelID string, typ navigation.Type) (navigation.ViewModel, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context, viewModelID string, typ navigation.Type) (navigation.ViewModel, error)

// Resolve calls f
func (f ResolverFunc) Resolve(ctx context.Context, viewModelID string, typ navigation.Type) (navigation.ViewModel, error) {
	return f(ctx, viewModelID, typ)
}

// Manager saves and restores the opened view-model layout
type Manager struct {
	sessions     sync.Map
	registry     Registry
	store        storage.BlobStore
	codec        *codec
	logger       *zap.Logger
	metrics      *monitoring.Metrics
	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// NewManager creates a session manager over store
func NewManager(registry Registry, store storage.BlobStore, logger *zap.Logger, metrics *monitoring.Metrics) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := newCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}
	return &Manager{
		registry: registry,
		store:    store,
		codec:    c,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Save captures every live opened view-model that has an id
func (m *Manager) Save(ctx context.Context, name string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snapshot := &Snapshot{
		ID:        id.NewSessionID().String(),
		Name:      name,
		CreatedAt: now,
		Entries:   m.capture(),
	}

	data, err := m.codec.encode(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.store.Put(keyPrefix+snapshot.ID, data); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}

	m.sessions.Store(snapshot.ID, snapshot)
	m.metrics.IncSessionsSaved()

	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	m.logger.Info("Session saved",
		zap.String("id", snapshot.ID),
		zap.String("name", name),
		zap.Int("entries", len(snapshot.Entries)))
	return snapshot, nil
}

func (m *Manager) capture() []Entry {
	all := m.registry.AllOpened()
	types := make([]navigation.Type, 0, len(all))
	for t := range all {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Key() < types[j].Key() })

	entries := []Entry{}
	for _, t := range types {
		for _, info := range all[t] {
			vm, ok := info.ViewModel.(navigation.Identifiable)
			if !ok {
				m.logger.Debug("Skipping view-model without id", zap.String("type", t.String()))
				continue
			}
			entries = append(entries, Entry{
				Type:        t.Name,
				Operation:   string(t.Operation),
				ViewModelID: vm.ID(),
			})
		}
	}
	return entries
}

// Load returns a saved snapshot
func (m *Manager) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	if cached, ok := m.sessions.Load(sessionID); ok {
		return cached.(*Snapshot), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := m.store.Get(keyPrefix + sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	snapshot, err := m.codec.decode(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if snapshot.ID != sessionID {
		return nil, fmt.Errorf("%w: %s holds id %q", ErrInvalidSnapshot, sessionID, snapshot.ID)
	}

	m.sessions.Store(sessionID, snapshot)
	return snapshot, nil
}

// Restore replaces the registry layout with a saved one. Types missing from
// the snapshot are cleared. Ids the resolver cannot map are skipped, as are
// repeats of a view-model already restored under the same type. It
// returns the number of view-models restored.
func (m *Manager) Restore(ctx context.Context, sessionID string, resolver Resolver) (int, error) {
	snapshot, err := m.Load(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to load session: %w", err)
	}

	var order []navigation.Type
	layout := make(map[navigation.Type][]navigation.OpenedViewModelInfo)
	restored := 0
	for _, e := range snapshot.Entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		typ := e.navigationType()
		if _, seen := layout[typ]; !seen {
			order = append(order, typ)
			layout[typ] = nil
		}

		vm, err := resolver.Resolve(ctx, e.ViewModelID, typ)
		if err != nil || vm == nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			m.logger.Debug("Skipping unresolvable view-model",
				zap.String("view_model_id", e.ViewModelID),
				zap.String("type", typ.String()),
				zap.Error(err))
			continue
		}
		if opened(layout[typ], vm) {
			m.logger.Debug("Skipping duplicate view-model",
				zap.String("view_model_id", e.ViewModelID),
				zap.String("type", typ.String()))
			continue
		}
		layout[typ] = append(layout[typ], navigation.OpenedViewModelInfo{ViewModel: vm, Type: typ})
		restored++
	}

	for typ := range m.registry.AllOpened() {
		if _, ok := layout[typ]; !ok {
			m.registry.UpdateOpened(typ, nil)
		}
	}
	for _, typ := range order {
		m.registry.UpdateOpened(typ, layout[typ])
	}

	now := time.Now().UTC()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()
	m.metrics.IncSessionsRestored()

	m.logger.Info("Session restored",
		zap.String("id", sessionID),
		zap.Int("restored", restored),
		zap.Int("entries", len(snapshot.Entries)))
	return restored, nil
}

func opened(infos []navigation.OpenedViewModelInfo, vm navigation.ViewModel) bool {
	for _, info := range infos {
		if info.ViewModel == vm {
			return true
		}
	}
	return false
}

// List returns metadata for every stored snapshot, oldest first
func (m *Manager) List(ctx context.Context) ([]Metadata, error) {
	keys, err := m.store.Keys(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	list := make([]Metadata, 0, len(keys))
	for _, key := range keys {
		snapshot, err := m.Load(ctx, key[len(keyPrefix):])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			m.logger.Warn("Skipping unreadable session", zap.String("key", key), zap.Error(err))
			continue
		}
		list = append(list, snapshot.Metadata())
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// Delete removes a snapshot
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := m.store.Delete(keyPrefix + sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		m.sessions.Delete(sessionID)
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	m.sessions.Delete(sessionID)
	return nil
}

// Stats returns session manager statistics
func (m *Manager) Stats() Stats {
	total := 0
	if keys, err := m.store.Keys(keyPrefix); err == nil {
		total = len(keys)
	} else {
		m.logger.Warn("Counting cached sessions only", zap.Error(err))
		m.sessions.Range(func(_, _ any) bool {
			total++
			return true
		})
	}

	m.mu.RLock()
	lastSaved := m.lastSaved
	lastRestored := m.lastRestored
	m.mu.RUnlock()

	return Stats{
		TotalSessions: total,
		LastSaved:     lastSaved,
		LastRestored:  lastRestored,
	}
}
