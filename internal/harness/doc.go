// Package harness runs YAML scenarios against the rotation engine.
//
// A scenario seeds a roster and turn length, then executes steps. A step is
// either a wire command ({command, data}, decoded exactly as the gateway
// decodes it) or an advance of the fake clock. Every event the engine emits
// after setup is recorded in the trace, and assertions are evaluated
// against that trace and the final engine state.
//
// Scenarios are fully deterministic: time comes from a clockwork fake clock
// stepped at TickRate, and generated mobber ids come from a fixed sequence.
// RunWithGolden compares the rendered trace against testdata/golden.
//
// Example:
//
//	name: turn_ends_and_alerts
//	description: A two-second turn runs out and alerts start.
//	seconds_per_turn: 2
//	mobbers:
//	  - {id: a, name: Ann}
//	  - {id: b, name: Bob}
//	steps:
//	  - command: start
//	  - advance: 3s
//	assertions:
//	  - type: trace_order
//	    events: [paused, rotated, turnEnded, alert]
//	  - type: final_state
//	    expect:
//	      current: {id: b}
package harness
