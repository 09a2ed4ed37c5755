// Package server wires the navigation core into an HTTP service.
//
// Startup order:
//  1. Logger and metrics
//  2. Callback manager and dispatcher
//  3. Session storage: bbolt behind a circuit breaker, or in memory when
//     storage is disabled
//  4. Gin router with middleware, REST handlers, /stream and /metrics
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	go srv.Run()
package server
