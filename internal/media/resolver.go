// Package media turns stored meal image references into URLs a browser can load.
package media

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"
)

const DefaultExpiry = 15 * time.Minute

// Presigner signs a time-limited GET for an object.
type Presigner interface {
	PresignObject(ctx context.Context, bucket, objectKey string, expiration time.Duration) (string, error)
}

// Resolver presigns s3:// references and bare object keys. http(s) and data
// URLs pass through unchanged.
type Resolver struct {
	presigner Presigner
	bucket    string
	expiry    time.Duration
}

func NewResolver(p Presigner, defaultBucket string, expiry time.Duration) *Resolver {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Resolver{presigner: p, bucket: defaultBucket, expiry: expiry}
}

// ResolveImageURL returns "" when a reference cannot be signed.
func (r *Resolver) ResolveImageURL(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	bucket, key, ok := r.objectFor(ref)
	if !ok {
		return ref
	}
	if bucket == "" || key == "" {
		log.Printf("[MediaResolver] Cannot sign image reference %q: missing bucket or key", ref)
		return ""
	}

	signed, err := r.presigner.PresignObject(ctx, bucket, key, r.expiry)
	if err != nil {
		log.Printf("[MediaResolver] Failed to presign %s/%s: %v", bucket, key, err)
		return ""
	}
	return signed
}

// objectFor reports the bucket and key behind ref, or ok=false for URLs
// that need no signing.
func (r *Resolver) objectFor(ref string) (bucket, key string, ok bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", false
	}
	switch u.Scheme {
	case "s3":
		return u.Host, strings.TrimPrefix(u.Path, "/"), true
	case "":
		return r.bucket, strings.TrimPrefix(u.Path, "/"), true
	default:
		return "", "", false
	}
}
