// Package workspace is the reference workspace service the editor talks
// to: an in-memory store of sandbox file trees and contents, a seeder that
// loads a directory into a sandbox, and the websocket handler serving the
// sync channel.
//
// On connect the handler pushes "loaded" with the sandbox tree. It then
// answers getFile, saveFile, renameFile, deleteFile and createFile. Tree
// changes are pushed to the other clients of the same sandbox as another
// "loaded".
package workspace
