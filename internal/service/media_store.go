package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// MediaStore rehosts provider output on our own object storage. Provider
// URLs expire within hours; a rehosted copy plus a presigned link is what
// actually reaches the user.
type MediaStore interface {
	// Rehost downloads sourceURL, stores it under a key derived from the
	// category and remote task id, and returns a presigned GET URL.
	Rehost(ctx context.Context, category, remoteTaskID, sourceURL string) (string, error)
}

type mediaStore struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	httpClient    *http.Client
	logger        zerolog.Logger
}

// NewMediaStore creates a MediaStore backed by the given S3 bucket.
func NewMediaStore(s3Client *s3.Client, bucketName string, logger zerolog.Logger) MediaStore {
	return &mediaStore{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		logger:        logger.With().Str("service", "MediaStore").Logger(),
	}
}

func (s *mediaStore) Rehost(ctx context.Context, category, remoteTaskID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading provider output: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider output download returned status %d", resp.StatusCode)
	}

	// The body is buffered in full: S3 PutObject needs a seekable or
	// length-known reader and generated media fits in memory.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading provider output: %w", err)
	}

	storagePath := fmt.Sprintf("generations/%s/%s", category, remoteTaskID)
	contentType := resp.Header.Get("Content-Type")
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(storagePath),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", storagePath).Msg("Failed to store media object")
		return "", fmt.Errorf("storing media object: %w", err)
	}

	presigned, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(24*time.Hour))
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", storagePath).Msg("Failed to generate presigned GET URL")
		return "", fmt.Errorf("generating presigned URL: %w", err)
	}
	return presigned.URL, nil
}
