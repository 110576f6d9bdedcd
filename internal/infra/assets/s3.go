package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectGetter is the part of the S3 client the origin uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Origin reads assets from a bucket, under an optional key prefix.
type S3Origin struct {
	Client ObjectGetter
	Bucket string
	Prefix string
}

type S3Config struct {
	Region string
	Bucket string
	Prefix string
}

func NewS3Origin(ctx context.Context, cfg S3Config) (*S3Origin, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	return &S3Origin{
		Client: s3.NewFromConfig(awsCfg),
		Bucket: cfg.Bucket,
		Prefix: cfg.Prefix,
	}, nil
}

func (o *S3Origin) key(p string) string {
	key := objectName(p)
	if prefix := strings.Trim(o.Prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

func (o *S3Origin) Fetch(ctx context.Context, p string) (Asset, error) {
	key := o.key(p)
	out, err := o.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.Bucket),
		Key:    aws.String(key),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return Asset{}, ErrNotFound
	}
	if err != nil {
		return Asset{}, err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return Asset{}, fmt.Errorf("read %s: %w", key, err)
	}
	ct := aws.ToString(out.ContentType)
	if ct == "" {
		ct = contentType(key, body)
	}
	return Asset{Body: body, ContentType: ct}, nil
}
