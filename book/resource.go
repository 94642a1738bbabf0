package book

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"

	"github.com/google/uuid"
)

// ErrResourceNotReadable is returned when a resource's bytes cannot be
// produced synchronously from memory.
var ErrResourceNotReadable = errors.New("resource data is not inline")

// ResourceData is the storage backing of a resource. Exactly one of the
// concrete variants applies.
type ResourceData interface {
	isResourceData()
}

// InlineData holds resource bytes directly in memory.
type InlineData struct {
	Data []byte
}

// TempFileData points at a temporary file on disk.
type TempFileData struct {
	Path string
}

// ExternalData points at a resource held by an external storage backend.
type ExternalData struct {
	Backend string
	Path    string
}

func (*InlineData) isResourceData()   {}
func (*TempFileData) isResourceData() {}
func (*ExternalData) isResourceData() {}

// Resource is a binary asset (image, font) attached to a book.
type Resource struct {
	Key              string
	Data             ResourceData
	MIMEType         string
	OriginalFilename string
}

// Bytes returns the resource content. Only inline resources are readable
// without touching external storage; temp-file resources are read from disk,
// external resources return ErrResourceNotReadable.
func (r *Resource) Bytes() ([]byte, error) {
	switch d := r.Data.(type) {
	case *InlineData:
		return d.Data, nil
	case *TempFileData:
		return os.ReadFile(d.Path)
	default:
		return nil, ErrResourceNotReadable
	}
}

// ResourceStore is a content-addressed collection of resources. Inline
// resources are keyed by the SHA-256 hex digest of their bytes, so adding
// identical content twice stores it once.
type ResourceStore struct {
	resources map[string]*Resource
	order     []string
}

// NewResourceStore creates an empty store.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{resources: make(map[string]*Resource)}
}

// Add stores inline bytes and returns their content-addressed key. Adding
// the same bytes again returns the existing key without duplicating storage,
// regardless of MIME type or filename.
func (s *ResourceStore) Add(data []byte, mimeType, originalFilename string) string {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if _, ok := s.resources[key]; ok {
		return key
	}
	s.resources[key] = &Resource{
		Key:              key,
		Data:             &InlineData{Data: data},
		MIMEType:         mimeType,
		OriginalFilename: originalFilename,
	}
	s.order = append(s.order, key)
	return key
}

// AddResource stores a resource with non-inline backing under a fresh UUID
// key and returns that key.
func (s *ResourceStore) AddResource(data ResourceData, mimeType, originalFilename string) string {
	key := uuid.NewString()
	s.resources[key] = &Resource{
		Key:              key,
		Data:             data,
		MIMEType:         mimeType,
		OriginalFilename: originalFilename,
	}
	s.order = append(s.order, key)
	return key
}

// Get returns the resource for key, or nil when absent.
func (s *ResourceStore) Get(key string) *Resource {
	return s.resources[key]
}

// Has reports whether key is present.
func (s *ResourceStore) Has(key string) bool {
	_, ok := s.resources[key]
	return ok
}

// Len returns the number of stored resources.
func (s *ResourceStore) Len() int {
	return len(s.resources)
}

// Keys returns all keys in insertion order.
func (s *ResourceStore) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
