package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorePutReturnsPublicURL(t *testing.T) {
	fake := &fakePutter{}
	store := newS3Store(fake, "media", "https://cdn.example.com/")

	url, err := store.Put(context.Background(), "submissions/g1/a.png", "image/png", bytes.NewReader([]byte("png")), 3)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "https://cdn.example.com/submissions/g1/a.png" {
		t.Fatalf("unexpected url %q", url)
	}
	if aws.ToString(fake.input.Bucket) != "media" || aws.ToString(fake.input.ContentType) != "image/png" {
		t.Fatalf("unexpected input: %+v", fake.input)
	}
	if string(fake.body) != "png" {
		t.Fatalf("unexpected body %q", fake.body)
	}
}

func TestS3StorePutWrapsErrors(t *testing.T) {
	store := newS3Store(&fakePutter{err: errors.New("boom")}, "media", "https://cdn.example.com")
	if _, err := store.Put(context.Background(), "k", "image/png", bytes.NewReader(nil), 0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), Options{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
