// Command editor is a terminal client for a workspace: it runs an editor
// session over a headless text widget and drives it from typed commands.
//
// Every session call runs on one event loop, the same loop the sync
// channel delivers its events on.
//
// Usage:
//
//	./editor -url ws://localhost:4000/ws -user u1 -sandbox demo
//
// Type "help" at the prompt for the command list.
package main
