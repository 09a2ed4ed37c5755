// Package navigation dispatches navigation attempts between view-models and
// tracks which view-models are open.
//
// Every attempt passes through Navigating and then exactly one of Navigated,
// Failed or Canceled:
//
//	nav := navigation.NewContext(navigation.TypeWindow, navigation.ModeClose, editor, nil, host)
//	ok, err := dispatcher.BeginNavigating(ctx, nav)
//	switch {
//	case err != nil:
//		dispatcher.ReportFailed(nav, err)
//	case !ok:
//		dispatcher.ReportCanceled(nav)
//	default:
//		// perform the transition, then
//		dispatcher.CommitNavigated(nav)
//	}
//
// Navigate wraps the same sequence around a perform callback.
//
// The Registry holds arena handles rather than view-models, so it never keeps
// one alive. Release decays every handle to a destroyed view-model; decayed
// entries are pruned the next time the list is read or reconciled.
package navigation
