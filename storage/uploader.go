package storage

import (
	"context"
	"io"
)

// UploadResult возвращается после успешной загрузки объекта.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader абстрагирует объектное хранилище для аватаров и логотипов.
// Ключи объектов хранятся в БД, публичные URL собираются на лету.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
