package types

// Event names of the remote message catalog.
const (
	// EventLoaded pushes the full tree snapshot: args [tree]
	EventLoaded = "loaded"
	// EventGetFile requests file content: args [id] -> [content]
	EventGetFile = "getFile"
	// EventSaveFile persists content: args [id, content]
	EventSaveFile = "saveFile"
	// EventRenameFile renames a node, keeping its id: args [id, newName]
	EventRenameFile = "renameFile"
	// EventDeleteFile deletes a node: args [id] -> [tree]
	EventDeleteFile = "deleteFile"
	// EventCreateFile creates an empty file at the sandbox root: args [name]
	EventCreateFile = "createFile"
)

// Lifecycle events the channel client delivers to its own subscribers.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

// Catalog lists every event a client may send
var Catalog = []string{
	EventGetFile,
	EventSaveFile,
	EventRenameFile,
	EventDeleteFile,
	EventCreateFile,
}
