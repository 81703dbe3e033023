package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicBaseURL prefixes returned object URLs; defaults to the
	// virtual-hosted s3 URL for the bucket.
	PublicBaseURL string
}

// S3Store uploads processed artifacts to an S3-compatible bucket.
type S3Store struct {
	bucket  string
	baseURL string
	client  *s3.Client
}

func NewS3Store(ctx context.Context, conf S3Config) (*S3Store, error) {
	if strings.TrimSpace(conf.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is empty")
	}

	awsConf, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	if conf.AccessKey != "" && conf.SecretKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, "")
	}
	if conf.Region != "" {
		awsConf.Region = conf.Region
	}

	client := s3.NewFromConfig(awsConf, func(options *s3.Options) {
		if conf.Endpoint != "" {
			options.BaseEndpoint = aws.String(conf.Endpoint)
			options.UsePathStyle = true
		}
	})

	baseURL := strings.TrimRight(conf.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", conf.Bucket, awsConf.Region)
	}
	return &S3Store{bucket: conf.Bucket, baseURL: baseURL, client: client}, nil
}

func (s *S3Store) Upload(ctx context.Context, localPath string, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}
