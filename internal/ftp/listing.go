package ftp

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// formatEntry renders one LIST/NLST line: a 10-character mode string,
// link count, uid, gid, size, and mtime, each field right-justified
// and joined by two spaces, followed by the base name. Matches the
// reference server's fileProperty() layout field-for-field.
func formatEntry(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}

	mode := modeString(info)
	nlink := rjust(fmt.Sprint(linkCount(info)), 4)
	uid := rjust(fmt.Sprint(ownerUID(info)), 4)
	gid := rjust(fmt.Sprint(ownerGID(info)), 4)
	size := rjust(fmt.Sprint(info.Size()), 12)
	mtime := rjust(info.ModTime().UTC().Format("Jan 02 15:04"), 12)

	return strings.Join([]string{mode, nlink, uid, gid, size, mtime, filepath.Base(path)}, "  "), nil
}

func rjust(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// modeString renders the 10-character rwx mode string: type flag
// followed by owner/group/other read-write-execute triplets.
func modeString(info fs.FileInfo) string {
	perm := info.Mode()
	var b strings.Builder

	if perm.IsDir() {
		b.WriteByte('d')
	} else {
		b.WriteByte('-')
	}

	bits := perm.Perm()
	triplet := func(r, w, x fs.FileMode) {
		if bits&r != 0 {
			b.WriteByte('r')
		} else {
			b.WriteByte('-')
		}
		if bits&w != 0 {
			b.WriteByte('w')
		} else {
			b.WriteByte('-')
		}
		if bits&x != 0 {
			b.WriteByte('x')
		} else {
			b.WriteByte('-')
		}
	}

	triplet(0400, 0200, 0100)
	triplet(0040, 0020, 0010)
	triplet(0004, 0002, 0001)

	return b.String()
}
