package r2s3

import (
	"context"
	"time"
)

// SaveBlobs stores cloud save blobs as objects named <prefix><key>.save.zst.
// The world loop calls it synchronously, so every request is bounded by
// Timeout.
type SaveBlobs struct {
	Client  *Client
	Prefix  string
	Timeout time.Duration
}

func (s SaveBlobs) objectKey(key string) string {
	return s.Prefix + key + ".save.zst"
}

func (s SaveBlobs) ctx() (context.Context, context.CancelFunc) {
	d := s.Timeout
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(context.Background(), d)
}

func (s SaveBlobs) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.Client.GetObject(ctx, s.objectKey(key))
}

func (s SaveBlobs) Put(key string, blob []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.Client.PutObject(ctx, s.objectKey(key), blob)
}
