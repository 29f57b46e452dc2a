// Package fileio reads and writes project documents.
//
// Accessor serializes work on a document with an exclusive lock, writes atomically with
// renameio, and remembers which files it modified together with a comment per write. Commit
// hands the modified set to a Committer and clears it.
//
// When an editor integration is configured, locking a file additionally performs a
// handshake through two JSON files: the engine writes a request and waits until the editor
// acknowledges it in the response file. See EditorClient.
package fileio
