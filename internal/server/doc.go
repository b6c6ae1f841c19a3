// Package server provides HTTP routing, middleware and the admin endpoints of the sync service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Endpoints
//
//   - POST /kopis/sync : runs a sync family synchronously through [SyncHandler]
//   - GET /metrics : prometheus metrics
//   - GET /healthz : database ping
//
// The sync endpoint always answers 200 with a JSON body carrying a success flag and the counters;
// callers inspect the payload to detect failures.
//
// # Admin Guard
//
// [RequireAdmin] accepts HS256 bearer tokens whose role claim is ADMIN. An empty secret disables the guard.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
