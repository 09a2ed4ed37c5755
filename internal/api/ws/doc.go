// Package ws streams Navigated notifications over WebSocket.
//
// Each client gets its own bounded queue. The dispatcher delivers
// notifications synchronously, so the subscriber only enqueues; when a
// client's queue is full the notification is dropped for that client.
//
// Server → client:
//   - system: sent once on connect, carries connection_id
//   - navigated: one per finished navigation attempt
//   - pong: reply to ping
//   - error: unknown client message
//
// The optional modes query parameter restricts the stream to the listed
// navigation modes, e.g. /stream?modes=Close,Back.
//
// Client → server:
//   - ping
//
//	handler := ws.NewHandler(dispatcher, cfg.Stream.Buffer, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
