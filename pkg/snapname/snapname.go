// Package snapname implements the on-disk naming scheme for snapshot entries.
//
// A snapshot directory entry is named "<source>-<epoch_seconds>", where
// <source> is the final path segment of the subvolume that was snapshotted and
// <epoch_seconds> is the Unix timestamp captured at creation. The entry name is
// the only record of this pairing; there is no secondary index.
//
// Because <source> may itself contain '-', decoding splits at the last
// separator. The timestamp suffix therefore may not contain a separator. A
// source name that itself ends in "-<digits>" cannot be distinguished from an
// encoded entry; Ambiguous reports that case so callers can refuse to create
// such entries.
package snapname

import (
	"strconv"
	"strings"
)

// Separator joins the source name and the timestamp in an entry name.
const Separator = '-'

// Join encodes a source name and a creation instant (Unix seconds) into a
// single directory entry name.
func Join(source string, ts int64) string {
	return source + string(Separator) + strconv.FormatInt(ts, 10)
}

// Split decodes an entry name into its source name and creation instant.
//
// The entry is split at the last separator; the leading segment is the source
// name (which may itself contain separators) and the trailing segment must
// parse as a decimal integer. A false result means the entry is not a
// recognized snapshot name. It is a classification, not an error: directory
// scans routinely encounter foreign entries.
func Split(entry string) (source string, ts int64, ok bool) {
	i := strings.LastIndexByte(entry, Separator)
	if i < 0 {
		return "", 0, false
	}
	ts, err := strconv.ParseInt(entry[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return entry[:i], ts, true
}

// Ambiguous reports whether name already ends in "-<digits>" and would
// therefore be mis-split when decoded back out of an entry name.
func Ambiguous(name string) bool {
	_, _, ok := Split(name)
	return ok
}
