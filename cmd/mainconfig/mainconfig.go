package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/devdanielvaldez/autoclinic-bot/internal/app/bootstrap"
	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				switch service {
				case dynamodb.ServiceID, sesv2.ServiceID:
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				default:
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				}
			},
		)
	}

	return awsCfg, nil
}

// NeedsAWS reports whether any configured backend talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	return cfg.SessionBackend == "dynamodb" ||
		cfg.EmailProvider == "ses" ||
		cfg.LLMProvider == "bedrock" ||
		cfg.LLMFallbackProvider == "bedrock"
}

// OpenClients opens every external connection the configured backends need.
// The returned cleanup closes whatever was opened, also on error.
func OpenClients(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (bootstrap.Clients, func(), error) {
	var (
		clients bootstrap.Clients
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.SessionBackend != "memory" {
		if rdb := bootstrap.BuildRedisClient(ctx, cfg, logger, true); rdb != nil {
			clients.Redis = rdb
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	if NeedsAWS(cfg) {
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return clients, cleanup, err
		}
		clients.Dynamo = dynamodb.NewFromConfig(awsCfg)
		clients.SES = sesv2.NewFromConfig(awsCfg)
		clients.Bedrock = bedrockruntime.NewFromConfig(awsCfg)
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return clients, cleanup, err
	}
	if pool != nil {
		clients.Postgres = pool
		closers = append(closers, pool.Close)
	}

	if bootstrap.NeedsFirestore(cfg) {
		fs, err := bootstrap.BuildFirestoreClient(ctx, cfg)
		if err != nil {
			return clients, cleanup, err
		}
		clients.Firestore = fs
		closers = append(closers, func() { _ = fs.Close() })
	}

	return clients, cleanup, nil
}
