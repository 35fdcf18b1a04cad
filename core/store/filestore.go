package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/josephlewis42/shellmock/core/mock"
	"github.com/spf13/afero"
)

const (
	captureSuffix = ".playback.capture.tmp"
	stateSuffix   = ".playback.state.tmp"
)

// FileStore keeps one capture file and one state file per command in a
// directory. Every mutation rewrites the whole file.
type FileStore struct {
	fs afero.Fs
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store over fs; paths are relative to its root.
func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// CaptureFile is the name of the file holding command's captures.
func CaptureFile(command string) string {
	return command + captureSuffix
}

// StateFile is the name of the file holding command's replay cursors.
func StateFile(command string) string {
	return command + stateSuffix
}

// LoadCaptures implements Store.
func (s *FileStore) LoadCaptures(command string) ([]mock.Capture, error) {
	var out []mock.Capture
	if err := s.load(CaptureFile(command), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendCapture implements Store.
func (s *FileStore) AppendCapture(capture mock.Capture) error {
	captures, err := s.LoadCaptures(capture.Command)
	if err != nil {
		return err
	}

	captures = append(captures, capture)
	return s.save(CaptureFile(capture.Command), captures)
}

// LoadStates implements Store.
func (s *FileStore) LoadStates(command string) ([]mock.State, error) {
	var out []mock.State
	if err := s.load(StateFile(command), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertState implements Store.
func (s *FileStore) UpsertState(state mock.State) error {
	states, err := s.LoadStates(state.Command)
	if err != nil {
		return err
	}

	return s.save(StateFile(state.Command), upsert(states, state))
}

func (s *FileStore) load(name string, into interface{}) error {
	data, err := afero.ReadFile(s.fs, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return &MalformedError{Location: name, Err: errors.New("empty file")}
	}

	if err := json.Unmarshal(data, into); err != nil {
		return &MalformedError{Location: name, Err: err}
	}
	return nil
}

// save writes to a temporary file next to the target and renames it into
// place, a reader sees either the old or the new collection.
func (s *FileStore) save(name string, records interface{}) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, filepath.Dir(name), filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	if err := s.fs.Rename(tmpName, name); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return nil
}

// Close implements io.Closer, a FileStore holds no open files between calls.
func (s *FileStore) Close() error {
	return nil
}
