package navigation

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// plainVM supports no optional capability
type plainVM struct {
	*Base
}

func newPlain(name string) *plainVM {
	return &plainVM{Base: NewBase(name)}
}

// fakeVM records lifecycle calls and answers guards from its fields
type fakeVM struct {
	*Base

	mu         sync.Mutex
	allowLeave bool
	allowClose bool
	guardErr   error
	block      chan struct{}
	calls      []string
}

func newFake(name string) *fakeVM {
	return &fakeVM{Base: NewBase(name), allowLeave: true, allowClose: true}
}

func (f *fakeVM) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeVM) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeVM) OnNavigatingFrom(ctx context.Context, nav *Context) (bool, error) {
	f.record("navigating-from")
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if f.guardErr != nil {
		return false, f.guardErr
	}
	return f.allowLeave, nil
}

func (f *fakeVM) OnNavigatedFrom(nav *Context) { f.record("navigated-from") }
func (f *fakeVM) OnNavigatedTo(nav *Context)   { f.record("navigated-to") }

func (f *fakeVM) OnClosing(ctx context.Context, nav *Context) (bool, error) {
	f.record("closing")
	return f.allowClose, nil
}

func (f *fakeVM) OnClosed(nav *Context) { f.record("closed") }

// mockCallbacks is a testify mock of CallbackManager
type mockCallbacks struct {
	mock.Mock
}

func (m *mockCallbacks) SetResult(result OperationResult) {
	m.Called(result)
}

// recordingCallbacks collects every result it receives
type recordingCallbacks struct {
	mu      sync.Mutex
	results []OperationResult
}

func (r *recordingCallbacks) SetResult(result OperationResult) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
}

func (r *recordingCallbacks) Results() []OperationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OperationResult(nil), r.results...)
}

func viewModels(infos []OpenedViewModelInfo) []ViewModel {
	vms := make([]ViewModel, len(infos))
	for i, info := range infos {
		vms[i] = info.ViewModel
	}
	return vms
}
