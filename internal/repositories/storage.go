package repositories

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/uncommondata/server/internal/config"
)

// ObjectStore persists raw upload bytes under a date-partitioned key.
type ObjectStore interface {
	Save(ctx context.Context, key string, r io.Reader) error
}

// Uploads is the configured storage backend; local disk unless an
// S3-compatible bucket is configured.
var Uploads ObjectStore

// UploadKey builds the storage key for an upload: YYYY/MM/DD/<id>_<name>.
func UploadKey(id uuid.UUID, t time.Time, filename string) string {
	return fmt.Sprintf("%s/%s_%s", t.Format("2006/01/02"), id.String(), filepath.Base(filename))
}

func InitStorage() {
	cfg := config.Envs.S3
	if cfg.BucketName == "" {
		Uploads = &LocalStore{Dir: config.Envs.UploadDir}
		log.Println("Using local upload storage at", config.Envs.UploadDir)
		return
	}

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	Uploads = &S3Store{Client: client, Bucket: cfg.BucketName}
	log.Println("Using S3 upload storage, bucket:", cfg.BucketName)
}

// LocalStore writes uploads below Dir, creating date directories on demand.
type LocalStore struct {
	Dir string
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) error {
	dstPath := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dstPath), os.ModePerm); err != nil {
		return err
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return err
	}
	return nil
}

// S3Store stores uploads in an S3-compatible bucket.
type S3Store struct {
	Client *s3.Client
	Bucket string
}

func (s *S3Store) Save(ctx context.Context, key string, r io.Reader) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	return err
}
