// Package callback correlates navigation outcomes with callers awaiting them.
//
// A caller that opens a view-model registers interest in its operation with
// Expect or Register; the dispatcher later calls SetResult once the
// view-model closes, fails or is canceled. Every registration under the same
// (operation, view-model) pair is resolved exactly once.
package callback
