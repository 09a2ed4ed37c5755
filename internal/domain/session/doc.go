// Package session saves and restores the opened view-model layout.
//
// A snapshot lists, per navigation type, the ids of the live view-models in
// the order they were opened. Only view-models implementing
// navigation.Identifiable are saved. Snapshots are JSON compressed with
// zstd and kept in a storage.BlobStore under "sessions/<id>".
//
// Restoring needs the application to turn ids back into view-models:
//
//	restored, err := sessions.Restore(ctx, id, session.ResolverFunc(
//		func(ctx context.Context, vmID string, typ navigation.Type) (navigation.ViewModel, error) {
//			return screens.Recreate(ctx, vmID)
//		}))
//
// Restore replaces the whole layout: types missing from the snapshot are
// cleared.
package session
