package store

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Backend is a Store that holds resources until closed.
type Backend interface {
	Store
	io.Closer
}

// Open creates the backend of the given kind. File stores live at the root
// of fs, sqlite stores at sqlitePath.
func Open(kind string, fs afero.Fs, sqlitePath string) (Backend, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(fs), nil
	case KindSQLite:
		return NewSQLStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}
