package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"order_srv/internal/config"
)

const (
	// Типы хранилищ
	StorageTypeLocal = "local"
	StorageTypeS3    = "s3"

	// Настройки retry
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Storage — интерфейс хранилища артефактов отчётов. Артефакт адресуется
// строковым ключом вида reports/<имя файла>.
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorageFromConfig создаёт хранилище по конфигурации и оборачивает его
// в middleware логирования и повторов.
func NewStorageFromConfig(cfg config.Config, logger *logrus.Logger) (Storage, error) {
	var (
		s   Storage
		err error
	)

	switch cfg.Storage.Type {
	case StorageTypeS3:
		s, err = NewS3Storage(S3Config{
			Region:    cfg.Storage.S3.Region,
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания S3 хранилища: %w", err)
		}

	case StorageTypeLocal:
		s, err = NewLocalStorage(cfg.Storage.BasePath, logger)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания локального хранилища: %w", err)
		}

	default:
		return nil, fmt.Errorf("неподдерживаемый тип хранилища: %s", cfg.Storage.Type)
	}

	s = NewLoggingMiddleware(s, logger)
	s = NewRetryMiddleware(s, DefaultMaxRetries, DefaultRetryDelay, logger)
	return s, nil
}
