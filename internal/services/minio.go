package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"friperie_back_end/internal/database"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// UploadItemImage pousse une image d'article vers MinIO et renvoie son URL
// publique. Le nom d'objet est régénéré pour éviter toute collision.
func UploadItemImage(file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := uuid.NewString() + filepath.Ext(file.Filename)

	_, err = database.MinIO.PutObject(context.Background(), bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	return PublicURL(bucket, objectName), nil
}

// PublicURL construit l'URL publique d'un objet du bucket
func PublicURL(bucket, objectName string) string {
	base := os.Getenv("MINIO_PUBLIC_URL")
	if base == "" {
		scheme := "http"
		if os.Getenv("MINIO_USE_SSL") == "true" {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, os.Getenv("MINIO_ENDPOINT"))
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, objectName)
}

// DeleteItemImage supprime un objet du bucket (nettoyage après suppression
// d'un article)
func DeleteItemImage(objectName string) error {
	if database.MinIO == nil {
		return fmt.Errorf("MinIO non initialisé")
	}
	bucket := os.Getenv("MINIO_BUCKET")
	return database.MinIO.RemoveObject(context.Background(), bucket, objectName,
		minio.RemoveObjectOptions{})
}
