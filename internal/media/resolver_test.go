package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/caltrack/web/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	calls []string
	err   error
}

func (f *fakePresigner) PresignObject(ctx context.Context, bucket, key string, exp time.Duration) (string, error) {
	f.calls = append(f.calls, bucket+"/"+key)
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example/" + bucket + "/" + key, nil
}

func TestResolveImageURL(t *testing.T) {
	p := &fakePresigner{}
	r := NewResolver(p, "meal-images", 0)
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"empty", "", ""},
		{"https passes through", "https://img.example/a.png", "https://img.example/a.png"},
		{"data url passes through", "data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"s3 url", "s3://other-bucket/meals/1.jpg", "https://signed.example/other-bucket/meals/1.jpg"},
		{"bare key uses default bucket", "/meals/2.jpg", "https://signed.example/meal-images/meals/2.jpg"},
		{"s3 url without key", "s3://other-bucket", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveImageURL(ctx, tt.ref))
		})
	}
	assert.Equal(t, []string{"other-bucket/meals/1.jpg", "meal-images/meals/2.jpg"}, p.calls)
}

func TestResolveImageURL_SignFailure(t *testing.T) {
	r := NewResolver(&fakePresigner{err: errors.New("no credentials")}, "meal-images", time.Minute)
	assert.Empty(t, r.ResolveImageURL(context.Background(), "s3://b/k.jpg"))
}

func TestResolveImageURL_BareKeyWithoutBucket(t *testing.T) {
	p := &fakePresigner{}
	r := NewResolver(p, "", time.Minute)
	assert.Empty(t, r.ResolveImageURL(context.Background(), "meals/3.jpg"))
	assert.Empty(t, p.calls)
}

func TestResolveImageURL_WithS3Client(t *testing.T) {
	client := s3.New(s3.Options{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	})
	s3cfg := &config.S3Config{Client: client, BucketName: "meal-images"}
	r := NewResolver(s3cfg, s3cfg.BucketName, 5*time.Minute)

	signed := r.ResolveImageURL(context.Background(), "meals/7.jpg")
	require.NotEmpty(t, signed)
	assert.Contains(t, signed, "meal-images")
	assert.Contains(t, signed, "meals/7.jpg")
	assert.True(t, strings.Contains(signed, "X-Amz-Signature="))
	assert.Contains(t, signed, "X-Amz-Expires=300")
}
