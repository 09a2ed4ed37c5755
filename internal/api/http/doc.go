// Package http exposes the navigation core over a read-mostly REST API.
//
// Routes:
//
//	GET    /                          liveness
//	GET    /health                    component health
//	GET    /navigation/types          types with an opened list
//	GET    /navigation/opened         opened view-models of every type
//	GET    /navigation/opened/:type   one type; ?operation= picks the exact key
//	GET    /callbacks                 pending operation callbacks
//	GET    /sessions                  saved snapshots
//	POST   /sessions                  save a snapshot {"name": "..."}
//	GET    /sessions/:id              one snapshot
//	DELETE /sessions/:id              delete a snapshot
//
// Restoring a snapshot needs an application resolver and is not exposed.
package http
