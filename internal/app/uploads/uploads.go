package uploads

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/coredev-id/coredev-web/internal/pkg/config"
)

// Uploader pushes image files to object storage and hands back a public URL.
// Only the URL travels on to the API; binaries never do.
type Uploader struct {
	uploader *manager.Uploader
	bucket   string
	region   string
	logger   *zap.Logger
}

// New builds an Uploader, or returns nil when no bucket is configured. A nil
// Uploader is valid; callers then forward whatever URL the form already had.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Uploader, error) {
	if cfg.AWS.Bucket == "" {
		logger.Warn("AWS_BUCKET_NAME not set, image uploads disabled")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}

	return &Uploader{
		uploader: manager.NewUploader(s3.NewFromConfig(awsCfg)),
		bucket:   cfg.AWS.Bucket,
		region:   cfg.AWS.Region,
		logger:   logger,
	}, nil
}

// UploadImage stores an image under a timestamped key and returns its URL.
func (u *Uploader) UploadImage(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("%s/%d%s", prefix, time.Now().UnixNano(), filepath.Ext(filename))

	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", key)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
	u.logger.Info("Uploaded image", zap.String("key", key))
	return url, nil
}
