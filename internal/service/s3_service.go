package service

import (
	"context"
	"log"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Service : хранилище аватаров. Сервер файлы через себя не гоняет:
// клиенты загружают и читают объекты напрямую по presigned URL,
// сервис только выписывает ссылки и подчищает устаревшие объекты
type S3Service struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewS3Service(ctx context.Context, cfg *config.S3Config) (*S3Service, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Local {
		// в локальном окружении bucket аватаров создаем сами
		if err := ensureBucket(ctx, client, cfg.Bucket); err != nil {
			return nil, err
		}
	}

	return &S3Service{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// newS3Client собирает клиент под окружение: локальный MinIO со
// статическими ключами или AWS со стандартной цепочкой конфигурации
func newS3Client(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	if cfg.Local {
		return s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				"minioadmin",
				"minioadmin",
				"",
			),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		}), nil
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, util.LogError("ошибка загрузки AWS конфигурации", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func ensureBucket(ctx context.Context, client *s3.Client, bucket string) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	}); err == nil {
		return nil
	}

	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return util.LogError("ошибка создания bucket аватаров", err)
	}

	log.Printf("bucket аватаров %s создан", bucket)
	return nil
}

// GeneratePresignedGetURL : временная ссылка на чтение объекта
func (s *S3Service) GeneratePresignedGetURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expire
	})
	if err != nil {
		return "", util.LogError("не удалось выписать ссылку на чтение", err)
	}

	return req.URL, nil
}

// GeneratePresignedPutURL : временная ссылка на загрузку объекта
func (s *S3Service) GeneratePresignedPutURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expire
	})
	if err != nil {
		return "", util.LogError("не удалось выписать ссылку на загрузку", err)
	}

	return req.URL, nil
}

// DeleteObject удаляет объект; используется для зачистки старого
// аватара после загрузки нового под другим ключом
func (s *S3Service) DeleteObject(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return util.LogError("не удалось удалить объект", err)
	}

	return nil
}
