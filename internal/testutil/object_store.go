package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"

	"github.com/Anchal0410/peer-connect/internal/storage"
)

// ObjectStore keeps objects in memory and satisfies storage.ObjectStore.
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string]stored
}

type stored struct {
	data []byte
	info storage.ObjectInfo
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string]stored)}
}

func (s *ObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	sum := md5.Sum(data)
	info := storage.ObjectInfo{Key: key, ETag: hex.EncodeToString(sum[:]), Size: int64(len(data)), ContentType: contentType}
	s.mu.Lock()
	s.objects[key] = stored{data: data, info: info}
	s.mu.Unlock()
	return info, nil
}

func (s *ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	s.mu.Lock()
	obj, ok := s.objects[key]
	s.mu.Unlock()
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrObjectMissing
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Keys lists the stored keys.
func (s *ObjectStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
