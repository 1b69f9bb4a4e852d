package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

// MemoryUploader keeps objects in process. It backs local runs without R2 credentials.
type MemoryUploader struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{baseURL: baseURL, objects: make(map[string]memoryObject)}
}

func (u *MemoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body (key: %s): %w", key, err)
	}
	sum := md5.Sum(data)

	u.mu.Lock()
	u.objects[key] = memoryObject{contentType: contentType, data: data}
	u.mu.Unlock()

	return &UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: hex.EncodeToString(sum[:])}, nil
}

func (u *MemoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	delete(u.objects, key)
	u.mu.Unlock()
	return nil
}

func (u *MemoryUploader) GetPublicURL(key string) string {
	if key == "" {
		return ""
	}
	return u.baseURL + "/" + key
}

// Object returns a stored object's body.
func (u *MemoryUploader) Object(key string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	obj, ok := u.objects[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}

func (u *MemoryUploader) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.objects)
}
