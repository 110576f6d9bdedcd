package assets

import (
	"context"
	"fmt"
)

type OriginConfig struct {
	Driver string
	Dir    string
	S3     S3Config
}

// NewOrigin picks the origin for driver: "dir" (default) or "s3".
func NewOrigin(ctx context.Context, cfg OriginConfig) (Origin, error) {
	switch cfg.Driver {
	case "", "dir":
		dir := cfg.Dir
		if dir == "" {
			dir = "./public"
		}
		return NewDirOrigin(dir), nil

	case "s3":
		if cfg.S3.Region == "" || cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET required")
		}
		return NewS3Origin(ctx, cfg.S3)

	default:
		return nil, fmt.Errorf("unknown ASSET_DRIVER: %s", cfg.Driver)
	}
}
