package storage

import "io"

// BlobStore holds topic theory assets (images referenced from topic HTML).
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
