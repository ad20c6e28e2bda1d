package storage

import (
	"alcyxob/dojo-app/internal/config"
	"alcyxob/dojo-app/internal/domain"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Archiver implements the SessionArchiver interface using an S3-compatible
// backend.
type s3Archiver struct {
	client     *s3.Client
	bucketName string
}

// NewS3Archiver creates a new S3 archive service instance.
func NewS3Archiver(cfg config.ArchiveConfig) (SessionArchiver, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fall back to default AWS endpoint resolution when no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}

	// Path-style addressing is required by most S3-compatible services.
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &s3Archiver{
		client:     s3Client,
		bucketName: cfg.BucketName,
	}, nil
}

// ArchiveSession stores the session and its participant set as one JSON
// object, keyed by the session's (branch, groupKey, sessionId) path.
func (s *s3Archiver) ArchiveSession(ctx context.Context, session *domain.Session, participants []domain.Participant) error {
	record := ArchivedSession{
		Session:      session,
		Participants: participants,
		ArchivedAt:   time.Now().UnixMilli(),
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode archive record: %w", err)
	}

	objectKey := path.Join("free_sessions", session.Branch, session.GroupKey, session.ID+".json")

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put archive object %q: %w", objectKey, err)
	}
	return nil
}
