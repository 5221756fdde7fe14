// Package nats embeds a NATS server in the ledanim daemon so other processes
// can drive LEDs and watch their state without the HTTP API.
//
// # Architecture
//
//   - Server: embedded NATS server running in the daemon (ledanim serve)
//   - Bridge: maps control subjects to AnimationRequestedEvents and mirrors
//     LEDStateChangedEvents back out
//   - Controller: client used by `ledanim set` and `ledanim watch`
//
// # Subject Hierarchy
//
//	ledanim.control.{led}.animation   # animation request (client → daemon)
//	ledanim.leds.{led}.state          # state change (daemon → clients)
//
// Messaging is fire-and-forget core NATS. The Controller degrades to offline
// mode when the daemon is not reachable.
//
// # Debugging with nats CLI
//
// Watch every LED:
//
//	nats sub "ledanim.leds.>"
//
// Switch an LED by hand:
//
//	nats pub "ledanim.control.status.animation" '{"animation":"DoubleBlink","reason":"debug"}'
//
// # Message Formats
//
// AnimationMessage (ledanim.control.{led}.animation). "led" defaults to the
// subject token:
//
//	{
//	  "animation": "Blink",
//	  "reason": "manual"
//	}
//
// StateMessage (ledanim.leds.{led}.state):
//
//	{
//	  "led": "status",
//	  "pin": 17,
//	  "animation": "Blink",
//	  "task_state": "blocked",
//	  "output": true,
//	  "timestamp": "2024-01-01T12:00:00Z"
//	}
package nats
