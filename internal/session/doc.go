// Package session persists editor tab layouts between runs.
//
// A layout records which files a user had open in a sandbox, in tab order,
// and which one was active. Layouts are stored as YAML at
// <dir>/<userId>/<sandboxId>.yaml and cached in memory after the first
// read.
package session
