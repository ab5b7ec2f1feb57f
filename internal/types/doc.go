// Package types defines the wire types shared by the editor client and the
// workspace service: file tree nodes, sync channel frames, and the names of
// the remote message catalog.
//
// Frames are JSON objects encoded with sonic:
//
//	{"type":"emit","id":"req_01J...","event":"getFile","args":["projects/sb/a.go"]}
//	{"type":"ack","id":"req_01J...","args":["package main\n"]}
//	{"type":"event","event":"loaded","args":[[{"id":"projects/sb/a.go","name":"a.go","type":"file"}]]}
//	{"type":"error","id":"req_01J...","error":"file not found"}
package types
