package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"

	"github.com/beam-cloud/tsmark/pkg/common"
)

type LocalStreamStorage struct {
	path string
}

type LocalStreamStorageOpts struct {
	Path string
}

func NewLocalStreamStorage(opts LocalStreamStorageOpts) (*LocalStreamStorage, error) {
	return &LocalStreamStorage{path: opts.Path}, nil
}

func (s *LocalStreamStorage) Path() string {
	return s.path
}

func (s *LocalStreamStorage) OpenReader(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("unable to open transport stream <%s>: %w", s.path, err)
	}
	return f, nil
}

// OpenWriter creates the output file behind a sidecar lock so two processes
// cannot interleave packets in the same stream. The lock is released and the
// lock file removed when the stream is closed.
func (s *LocalStreamStorage) OpenWriter(ctx context.Context) (io.WriteCloser, error) {
	lockPath := s.path + ".lock"
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("unable to acquire lock <%s>: %w", lockPath, err)
	}
	if !locked {
		return nil, common.ErrLockHeld
	}

	f, err := os.Create(s.path)
	if err != nil {
		fileLock.Unlock()
		os.Remove(lockPath)
		return nil, fmt.Errorf("unable to create transport stream <%s>: %w", s.path, err)
	}

	return &lockedFile{file: f, lock: fileLock, lockPath: lockPath}, nil
}

type lockedFile struct {
	file     *os.File
	lock     *flock.Flock
	lockPath string
}

func (l *lockedFile) Write(p []byte) (int, error) {
	return l.file.Write(p)
}

func (l *lockedFile) Close() error {
	err := l.file.Close()
	l.lock.Unlock()
	os.Remove(l.lockPath)
	return err
}
