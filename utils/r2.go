// utils/r2.go
package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"story-competition/assessment"
)

// MaxDocumentBytes bounds a single story document to what the engine scores.
const MaxDocumentBytes = assessment.MaxTextBytes

var ErrDocumentNotFound = errors.New("document not found")

// ObjectGetter is the part of the S3 client the document store needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// R2Store reads story documents from a Cloudflare R2 bucket.
type R2Store struct {
	Client ObjectGetter
	Bucket string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

func NewR2Store(ctx context.Context, rc R2Config) (*R2Store, error) {
	if rc.AccountID == "" || rc.Bucket == "" {
		return nil, fmt.Errorf("R2 account id and bucket are required")
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			rc.AccessKeyID, rc.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", rc.AccountID))
	})
	return &R2Store{Client: client, Bucket: rc.Bucket}, nil
}

// ReadDocument returns the UTF-8 text stored under key.
func (s *R2Store) ReadDocument(ctx context.Context, key string) (string, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, key)
		}
		return "", fmt.Errorf("failed to read %s from R2: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, MaxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s body: %w", key, err)
	}
	if len(body) > MaxDocumentBytes {
		return "", fmt.Errorf("document %s exceeds %d bytes", key, MaxDocumentBytes)
	}
	if !utf8.Valid(body) {
		return "", fmt.Errorf("document %s is not valid UTF-8", key)
	}
	return string(body), nil
}
