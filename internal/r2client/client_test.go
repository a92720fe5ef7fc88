package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

func TestNew_RequiresConfig(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), Config{Endpoint: "https://x.r2.cloudflarestorage.com"})
	if err == nil {
		t.Fatal("New() with missing fields should fail")
	}
}

func TestTrimETag(t *testing.T) {
	t.Parallel()
	if got := trimETag(aws.String(`"abc123"`)); got != "abc123" {
		t.Errorf("trimETag() = %q", got)
	}
	if got := trimETag(nil); got != "" {
		t.Errorf("trimETag(nil) = %q", got)
	}
}

func responseError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New("boom"),
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"not found", fmt.Errorf("wrapped: %w", &types.NotFound{}), true},
		{"api code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"http 404", responseError(404), true},
		{"http 500", responseError(500), false},
		{"other", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPreconditionFailed(t *testing.T) {
	t.Parallel()
	if !isPreconditionFailed(&smithy.GenericAPIError{Code: "PreconditionFailed"}) {
		t.Error("api code not detected")
	}
	if !isPreconditionFailed(responseError(412)) {
		t.Error("http 412 not detected")
	}
	if isPreconditionFailed(responseError(409)) {
		t.Error("http 409 treated as precondition failure")
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	live := []byte(`{"owner":"a","expires_at":"2026-03-01T12:05:00Z"}`)
	if h, stale := expired(live, now); stale || h.Owner != "a" {
		t.Errorf("expired(live) = %+v, %v", h, stale)
	}

	old := []byte(`{"owner":"b","expires_at":"2026-03-01T11:00:00Z"}`)
	if _, stale := expired(old, now); !stale {
		t.Error("expired(old) = false")
	}

	if _, stale := expired([]byte("garbage"), now); !stale {
		t.Error("corrupt lock should count as expired")
	}
}

func TestNewLock_UniqueOwners(t *testing.T) {
	t.Parallel()
	a := NewLock(nil, "locks/publish", time.Minute)
	b := NewLock(nil, "locks/publish", time.Minute)
	if a.Owner() == "" || a.Owner() == b.Owner() {
		t.Errorf("owners %q and %q should be distinct and non-empty", a.Owner(), b.Owner())
	}
	// Releasing a lock that was never acquired is a no-op.
	if err := a.Release(context.Background()); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}

func TestCompressDecompress(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "campus.db")
	packed := filepath.Join(dir, "campus.db.zst")
	restored := filepath.Join(dir, "restored.db")

	data := []byte(strings.Repeat("Library near the academic block. ", 500))
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CompressFile(src, packed); err != nil {
		t.Fatalf("CompressFile() error = %v", err)
	}

	info, err := os.Stat(packed)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(data)) {
		t.Errorf("compressed size %d >= original %d", info.Size(), len(data))
	}

	f, err := os.Open(packed)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := DecompressTo(f, restored); err != nil {
		t.Fatalf("DecompressTo() error = %v", err)
	}

	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("restored content differs from original")
	}
}

func TestDecompressTo_InvalidInputLeavesNoFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.db")

	if err := DecompressTo(strings.NewReader("definitely not zstd"), dst); err == nil {
		t.Fatal("DecompressTo() should fail on garbage")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("destination exists after failure: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("leftover files: %v", entries)
	}
}

func TestCompressFile_MissingSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := CompressFile(filepath.Join(dir, "missing.db"), filepath.Join(dir, "x.zst")); err == nil {
		t.Error("CompressFile() with missing source should fail")
	}
}
