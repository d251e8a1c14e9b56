// Package storage provides the byte streams the framing core reads and
// writes, backed by either the local filesystem or S3. The core itself only
// ever sees an io.Reader / io.Writer.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/beam-cloud/tsmark/pkg/common"
)

// StreamStorage opens the transport stream at a location for reading or
// writing. Returned streams are scoped to one operation: the caller opens
// them at the start and must close them on every exit path.
type StreamStorage interface {
	OpenReader(ctx context.Context) (io.ReadCloser, error)
	OpenWriter(ctx context.Context) (io.WriteCloser, error)
	Path() string
}

// Aborter is implemented by writers that can discard a partially written
// stream instead of committing it.
type Aborter interface {
	Abort() error
}

// Discard abandons a stream writer without committing buffered output.
// Writers without abort support are simply closed; whatever bytes already
// reached the sink remain there.
func Discard(w io.WriteCloser) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

type StreamStorageCredentials struct {
	S3 *S3StreamStorageCredentials
}

type StreamStorageOpts struct {
	Path        string
	Credentials StreamStorageCredentials
}

// NewStreamStorage selects a backend from the path: "s3://bucket/key" routes
// to S3, anything else is treated as a local file path.
func NewStreamStorage(opts StreamStorageOpts) (StreamStorage, error) {
	switch storageMode(opts.Path) {
	case common.StorageModeS3:
		info, err := parseS3Path(opts.Path)
		if err != nil {
			return nil, err
		}

		s3Opts := S3StreamStorageOpts{
			Bucket:   info.Bucket,
			Key:      info.Key,
			Region:   info.Region,
			Endpoint: info.Endpoint,
		}
		if opts.Credentials.S3 != nil {
			s3Opts.AccessKey = opts.Credentials.S3.AccessKey
			s3Opts.SecretKey = opts.Credentials.S3.SecretKey
		}

		return NewS3StreamStorage(s3Opts)
	default:
		return NewLocalStreamStorage(LocalStreamStorageOpts{Path: opts.Path})
	}
}

func storageMode(path string) common.StorageMode {
	if strings.HasPrefix(path, "s3://") {
		return common.StorageModeS3
	}
	return common.StorageModeLocal
}
