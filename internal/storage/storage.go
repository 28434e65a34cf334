package storage

import "context"

// StoredFile is the blob-store reference returned to the uploader and
// embedded, opaquely, in messages that carry an attachment.
type StoredFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// BlobStore accepts a payload under a storage key and returns the public URL
// it will be served from. The core never inspects payload bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
