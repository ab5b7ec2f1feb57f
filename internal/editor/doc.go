// Package editor is the client-side session core of the code editor.
//
// A Session coordinates three sources of truth:
//   - local UI state: open tabs and the active selection (Store)
//   - remote state: the file tree and file contents (Tree, ContentCache),
//     kept in sync over a Remote channel
//   - transient overlays tied to the cursor (Controller)
//
// The text widget, the document-level key source and the sidebar are
// reached through the narrow Surface, KeySource and Observer interfaces;
// package headless implements the first two in memory.
//
// Nothing in this package locks. A Session and everything it owns must be
// driven from one execution context, normally an eventloop.Loop that is
// also the channel's Executor.
package editor
