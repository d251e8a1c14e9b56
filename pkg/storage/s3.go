package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/tsmark/pkg/common"
)

type S3StreamStorageCredentials struct {
	AccessKey string
	SecretKey string
}

type S3StreamStorage struct {
	svc    *s3.Client
	bucket string
	key    string
}

type S3StreamStorageOpts struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

func NewS3StreamStorage(opts S3StreamStorageOpts) (*S3StreamStorage, error) {
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")

	if opts.AccessKey != "" && opts.SecretKey != "" {
		accessKey = opts.AccessKey
		secretKey = opts.SecretKey
	}

	cfg, err := getAWSConfig(accessKey, secretKey, opts.Region, opts.Endpoint)
	if err != nil {
		return nil, err
	}

	svc := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	// Check to see if we have access to the bucket
	_, err = svc.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(opts.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot access bucket <%s>: %v", opts.Bucket, err)
	}

	return &S3StreamStorage{
		svc:    svc,
		bucket: opts.Bucket,
		key:    opts.Key,
	}, nil
}

func getAWSConfig(accessKey string, secretKey string, region string, endpoint string) (aws.Config, error) {
	var cfg aws.Config
	var err error
	var endpointResolver aws.EndpointResolverWithOptions
	var useDualStack aws.DualStackEndpointState

	if endpoint != "" {
		endpointResolver = aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL: endpoint,
			}, nil
		})
	}

	httpClient := &http.Client{}
	if common.IsIPv6Available() {
		useDualStack = aws.DualStackEndpointStateEnabled
		ipv6Transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         common.DialContextIPv6,
			TLSHandshakeTimeout: 10 * time.Second,
		}
		httpClient.Transport = ipv6Transport
	} else {
		useDualStack = aws.DualStackEndpointStateDisabled
	}

	if accessKey == "" || secretKey == "" {
		if endpointResolver != nil {
			cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithRegion(region), config.WithEndpointResolverWithOptions(endpointResolver), config.WithUseDualStackEndpoint(useDualStack), config.WithHTTPClient(httpClient))
		} else {
			cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithRegion(region), config.WithUseDualStackEndpoint(useDualStack), config.WithHTTPClient(httpClient))
		}
	} else {
		credentials := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")

		if endpointResolver != nil {
			cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithRegion(region), config.WithCredentialsProvider(credentials), config.WithEndpointResolverWithOptions(endpointResolver), config.WithUseDualStackEndpoint(useDualStack), config.WithHTTPClient(httpClient))
		} else {
			cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithRegion(region), config.WithCredentialsProvider(credentials), config.WithUseDualStackEndpoint(useDualStack), config.WithHTTPClient(httpClient))
		}
	}

	return cfg, err
}

func (s *S3StreamStorage) Path() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// OpenReader stages the object into a temporary file so the packet loop reads
// from local disk, and removes the staging file on Close.
func (s *S3StreamStorage) OpenReader(ctx context.Context) (io.ReadCloser, error) {
	stagingPath := filepath.Join(os.TempDir(), fmt.Sprintf("tsmark-%s.ts", uuid.New().String()[:8]))

	f, err := os.Create(stagingPath)
	if err != nil {
		return nil, fmt.Errorf("unable to create staging file %q: %w", stagingPath, err)
	}

	startTime := time.Now()
	downloader := manager.NewDownloader(s.svc)
	_, err = downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		f.Close()
		os.Remove(stagingPath)
		return nil, fmt.Errorf("failed to download object <%s>: %v", s.Path(), err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(stagingPath)
		return nil, err
	}

	log.Debug().Msgf("staged <%s> in %v", s.Path(), time.Since(startTime))

	return &stagedReader{file: f, path: stagingPath}, nil
}

// OpenWriter buffers packets into a temporary file and uploads it to the
// object key when the stream is closed.
func (s *S3StreamStorage) OpenWriter(ctx context.Context) (io.WriteCloser, error) {
	stagingPath := filepath.Join(os.TempDir(), fmt.Sprintf("tsmark-%s.ts", uuid.New().String()[:8]))

	f, err := os.Create(stagingPath)
	if err != nil {
		return nil, fmt.Errorf("unable to create staging file %q: %w", stagingPath, err)
	}

	return &stagedWriter{ctx: ctx, storage: s, file: f, path: stagingPath}, nil
}

// Upload pushes a local transport stream file to the object key, optionally
// reporting percentage progress on progressChan.
func (s *S3StreamStorage) Upload(ctx context.Context, localPath string, progressChan chan<- int) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open transport stream <%s>: %v", localPath, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	length := fi.Size()

	pr := &progressReader{
		file: f,
		size: length,
		ch:   progressChan,
	}

	uploader := manager.NewUploader(s.svc, func(u *manager.Uploader) {
		u.Concurrency = 16
	})

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          pr,
		ContentLength: &length,
	})
	if err != nil {
		return fmt.Errorf("failed to upload transport stream: %v", err)
	}

	return nil
}

type stagedReader struct {
	file *os.File
	path string
}

func (r *stagedReader) Read(p []byte) (int, error) {
	return r.file.Read(p)
}

func (r *stagedReader) Close() error {
	err := r.file.Close()
	os.Remove(r.path)
	return err
}

type stagedWriter struct {
	ctx     context.Context
	storage *S3StreamStorage
	file    *os.File
	path    string
}

func (w *stagedWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *stagedWriter) Close() error {
	defer os.Remove(w.path)

	if err := w.file.Close(); err != nil {
		return err
	}
	return w.storage.Upload(w.ctx, w.path, nil)
}

// Abort drops the staging file without uploading it.
func (w *stagedWriter) Abort() error {
	err := w.file.Close()
	os.Remove(w.path)
	return err
}

type progressReader struct {
	file *os.File
	size int64
	read int64
	ch   chan<- int
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.file.Read(p)
	if n > 0 {
		pr.read += int64(n)
		progress := int(float64(pr.read) / float64(pr.size) * 100)

		if pr.ch != nil {
			pr.ch <- progress
		}
	}
	return n, err
}

// parseS3Path splits "s3://bucket/key" and fills region and endpoint from the
// environment.
func parseS3Path(path string) (common.S3StorageInfo, error) {
	trimmed := strings.TrimPrefix(path, "s3://")
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return common.S3StorageInfo{}, fmt.Errorf("invalid s3 path %q: expected s3://bucket/key", path)
	}

	return common.S3StorageInfo{
		Bucket:   bucket,
		Key:      key,
		Region:   os.Getenv("AWS_REGION"),
		Endpoint: os.Getenv("AWS_ENDPOINT_URL"),
	}, nil
}
