package navigation

import "fmt"

// ResultKind is the outcome carried by an OperationResult
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultError
	ResultCanceled
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultError:
		return "error"
	case ResultCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// OperationResult resolves the callbacks pending on (Operation, ViewModel)
type OperationResult struct {
	Operation OperationType
	Kind      ResultKind
	ViewModel ViewModel
	Err       error
	Context   *Context
}

// SuccessResult carries the view-model that closed
func SuccessResult(op OperationType, vm ViewModel, nav *Context) OperationResult {
	return OperationResult{Operation: op, Kind: ResultSuccess, ViewModel: vm, Context: nav}
}

// ErrorResult carries the navigation failure
func ErrorResult(op OperationType, vm ViewModel, err error, nav *Context) OperationResult {
	return OperationResult{Operation: op, Kind: ResultError, ViewModel: vm, Err: err, Context: nav}
}

// CanceledResult reports a vetoed or abandoned navigation
func CanceledResult(op OperationType, vm ViewModel, nav *Context) OperationResult {
	return OperationResult{Operation: op, Kind: ResultCanceled, ViewModel: vm, Context: nav}
}

// IsCanceled reports a cancellation result
func (r OperationResult) IsCanceled() bool { return r.Kind == ResultCanceled }

// IsFaulted reports an error result
func (r OperationResult) IsFaulted() bool { return r.Kind == ResultError }

// CallbackManager receives operation results from the dispatcher
type CallbackManager interface {
	SetResult(result OperationResult)
}

// CallbackManagerFunc adapts a function to CallbackManager
type CallbackManagerFunc func(OperationResult)

// SetResult calls f(result)
func (f CallbackManagerFunc) SetResult(result OperationResult) {
	f(result)
}
