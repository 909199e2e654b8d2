// Package gateway exposes a running engine to other processes.
//
// Three transports share the same JSON envelopes as the engine codec:
//
//   - Hub: WebSocket clients receive every event as {"event": name, "data": …}
//     and may send {"command": name, "data": …}. New clients first receive the
//     latest configUpdated, rotated, timerChange and phase events so they can
//     render without waiting for the next change.
//   - NewRouter: chi routes for /ws, GET /state, POST /commands and /healthz,
//     wrapped in CORS.
//   - Bridge: publishes events to <subject>.events.<name> on NATS and enqueues
//     commands received on <subject>.commands.
//
// Event fan-out runs on the engine goroutine (Hub.HandleEvent and
// Bridge.HandleEvent are engine observers), so neither may block.
package gateway
