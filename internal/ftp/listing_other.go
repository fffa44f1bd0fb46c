//go:build !linux && !darwin

package ftp

import "io/fs"

// Non-POSIX platforms have no st_nlink/st_uid/st_gid equivalent
// reachable through the standard library; report the conventional
// single-link, root-owned defaults rather than failing the listing.
func linkCount(info fs.FileInfo) uint64 { return 1 }
func ownerUID(info fs.FileInfo) uint32  { return 0 }
func ownerGID(info fs.FileInfo) uint32  { return 0 }
