//go:build !unix

package document

import "io/fs"

// Per-user temp dirs make every entry ours.
func ownedByCurrentUser(fs.FileInfo) bool { return true }
