package aws

import (
	"context"

	"attendance.service/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
)

// NewAWSConfig loads the SDK configuration. In local development it uses
// static LocalStack credentials; elsewhere the standard credential chain
// (e.g. an IAM role for the service account).
func NewAWSConfig(ctx context.Context, appConfig config.Config) (aws.Config, error) {
	if appConfig.IsLocalDev {
		log.Info().Str("endpoint", appConfig.AWSEndpoint).Msg("Local development mode, routing AWS calls to LocalStack")
		return awsConfig.LoadDefaultConfig(ctx,
			awsConfig.WithRegion(appConfig.AWSRegion),
			awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		)
	}

	log.Info().Msg("Using standard AWS credential chain")
	return awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(appConfig.AWSRegion))
}

// NewSQSClient builds an SQS client, pointed at the configured endpoint in
// local development.
func NewSQSClient(awsCfg aws.Config, appConfig config.Config) *sqs.Client {
	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if appConfig.IsLocalDev && appConfig.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(appConfig.AWSEndpoint)
		}
	})
}
