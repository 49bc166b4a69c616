// Package provider builds DocumentsProviders from configuration.
package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"dfc-go/internal/config"
	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/local"
	"dfc-go/internal/provider/memory"
	s3provider "dfc-go/internal/provider/s3"
	"dfc-go/internal/provider/sqlite"
)

// localRootID prefixes the document ids of local providers.
const localRootID = "root"

// Rooted is implemented by providers that expose a single root directory.
type Rooted interface {
	dfc.DocumentsProvider
	RootDocumentID() string
}

// NewProviderFromConfig creates a DocumentsProvider based on the provider config type.
func NewProviderFromConfig(ctx context.Context, cfg config.ProviderConfig) (Rooted, error) {
	if cfg.Authority == "" {
		return nil, fmt.Errorf("%s provider requires authority to be set", cfg.Type)
	}
	switch cfg.Type {
	case "memory":
		return memory.NewMemoryProvider(cfg.Authority), nil
	case "local":
		if cfg.LocalRoot == "" {
			return nil, fmt.Errorf("local provider requires local_root to be set")
		}
		p, err := local.NewLocalProviderFromDir(cfg.Authority, localRootID, cfg.LocalRoot)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite provider requires sqlite_path to be set")
		}
		p, err := sqlite.NewSQLiteProvider(cfg.Authority, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 provider requires s3_bucket to be set")
		}
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s3provider.NewS3Provider(cfg.Authority, client, cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// newS3Client loads the default AWS configuration chain, overridden by the
// region, static credentials and endpoint set in cfg.
func newS3Client(ctx context.Context, cfg config.ProviderConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
