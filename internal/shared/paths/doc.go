// Package paths provides the standardized file id and on-disk layout paths
// shared by the editor session and the workspace server.
//
// # File ids
//
// Workspace file ids are slash-separated and rooted at the sandbox:
//
//	projects/<sandboxId>/<name>
//	projects/<sandboxId>/<folder>/<name>
//
// File ids are never filesystem paths; they always use "/" regardless of
// platform.
//
// # Layout files
//
// Persisted tab layouts live under the configured layout directory:
//
//	<layoutDir>/<userId>/<sandboxId>.yaml
//
// # Usage
//
//	id := paths.FileID("sb_1", "main.go")       // projects/sb_1/main.go
//	name := paths.Base(id)                      // main.go
//	file := paths.LayoutFile(dir, "u1", "sb_1") // dir/u1/sb_1.yaml
package paths
