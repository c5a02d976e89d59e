// Package ws implements the WebSocket hub for logloss-server.
//
// Hub manages a set of connected clients and broadcasts the current
// evaluation snapshot to all of them on a configurable interval (default 5s).
//
// Message format sent to clients:
//
//	{
//	  "event": "snapshot",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The hub is mounted at /ws/stream by the server.
package ws
