// Package engine implements the mob timer rotation engine.
//
// The engine composes a turn Clock (counting down), an alert Clock
// (counting up once a turn has ended) and a Roster. Commands flow in,
// events flow out; the engine never calls back into its collaborators
// except through the emitted event stream and the Persister.
//
// ARCHITECTURE:
//
// Single-Writer Loop:
// Every mutation happens on one goroutine. Run() owns that goroutine and
// multiplexes three sources:
//   - queued commands (Enqueue, Do)
//   - the turn clock ticker
//   - the alert clock ticker
//
// Callers that own the engine directly (tests, offline CLI commands) may
// instead call the exported operations synchronously and never start Run.
// Mixing the two styles on one engine is not supported.
//
// Phases:
//
//	PhaseTurnEnded --Start--> PhaseRunning --Pause--> PhasePaused
//	      ^                        |                       |
//	      +----- clock < 0 --------+                       |
//	      +----- current mobber removed/disabled ----------+
//
// Event ordering on turn end:
//
//	timerChange, paused, stopAlerts, timerChange(reset), rotated, turnEnded, alert(0)
//
// Observers:
// Subscribe registers a callback that receives every event in emission
// order. Callbacks run on the engine goroutine and must not call back
// into the engine.
package engine
