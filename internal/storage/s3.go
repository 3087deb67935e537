package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Location is a parsed s3://bucket/key reference.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return "s3://" + l.Bucket + "/" + l.Key }

// ParseURL parses s3://bucket/key. A key ending in "/" is treated as a
// prefix and the local file name is appended by Resolve.
func ParseURL(s3url string) (Location, error) {
	if !strings.HasPrefix(s3url, "s3://") {
		return Location{}, fmt.Errorf("invalid s3 url: %s", s3url)
	}
	p := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(p, "/")
	if slash <= 0 {
		return Location{}, fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return Location{Bucket: p[:slash], Key: p[slash+1:]}, nil
}

// Resolve fills in the object key for a prefix location.
func (l Location) Resolve(localPath string) Location {
	if l.Key == "" || strings.HasSuffix(l.Key, "/") {
		l.Key += path.Base(strings.ReplaceAll(localPath, "\\", "/"))
	}
	return l
}

// S3Uploader uploads finished label sheets.
type S3Uploader struct {
	uploader *manager.Uploader
}

// NewS3Uploader loads AWS config from the default chain (env, shared config, IMDS).
func NewS3Uploader(ctx context.Context) (*S3Uploader, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Uploader{uploader: manager.NewUploader(s3.NewFromConfig(cfg))}, nil
}

// UploadFile copies localPath to dst and returns the object location.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string, dst Location, meta map[string]string) (string, error) {
	dst = dst.Resolve(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	out, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(dst.Bucket),
		Key:         aws.String(dst.Key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Info().Str("bucket", dst.Bucket).Str("key", dst.Key).Str("location", out.Location).Msg("uploaded label sheet to s3")
	return out.Location, nil
}
