package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"clonetrack/internal/blob/core"
)

func TestMockStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 {
		t.Fatalf("expected s3 driver")
	}
	info, err := store.Put(ctx, "P1/P1_pcr.xlsx", bytes.NewReader([]byte("payload")), core.PutOptions{ContentType: "application/octet-stream", Metadata: map[string]string{"stage": "pcr"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("payload")) || info.Metadata["stage"] != "pcr" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "P1/P1_pcr.xlsx", bytes.NewReader([]byte("again")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := store.Get(ctx, "P1/P1_pcr.xlsx")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "payload" {
		t.Fatalf("unexpected body %q", body)
	}
	if _, err := store.Put(ctx, "P2/P2_seq.xlsx", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "P1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "P1/P1_pcr.xlsx" {
		t.Fatalf("unexpected list %+v", list)
	}
	url, err := store.PresignURL(ctx, "P1/P1_pcr.xlsx", core.SignedURLOptions{Expiry: time.Minute})
	if err != nil || !strings.Contains(url, "P1_pcr.xlsx") {
		t.Fatalf("presign: %v %s", err, url)
	}
	if _, err := store.PresignURL(ctx, "P1/P1_pcr.xlsx", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported")
	}
	if ok, err := store.Delete(ctx, "P1/P1_pcr.xlsx"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "P1/P1_pcr.xlsx"); err != nil || ok {
		t.Fatalf("expected second delete false, got %v %v", ok, err)
	}
	if _, _, err := store.Get(ctx, "P1/P1_pcr.xlsx"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	t.Setenv("CLONETRACK_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected env bucket error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{Bucket: "lab", Endpoint: "http://localhost:9000", PathStyle: true, AccessKeyID: "id", SecretAccessKey: "secret", Prefix: "bench/"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.bucket != "lab" || store.objectKey("a.csv") != "bench/a.csv" {
		t.Fatalf("unexpected store %+v", store)
	}
}

func TestDecodeChunked(t *testing.T) {
	body, ok := decodeChunked([]byte("5;chunk-signature=abc\r\nhello\r\n0\r\n\r\n"))
	if !ok || string(body) != "hello" {
		t.Fatalf("unexpected decode %q %v", body, ok)
	}
	if _, ok := decodeChunked([]byte("identifier,construct\n")); ok {
		t.Fatalf("plain payload must not decode")
	}
}
