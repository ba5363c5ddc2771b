package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestLocalStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := store.EnsureBucket(ctx, "exports"); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	exists, err := store.BucketExists(ctx, "exports")
	if err != nil || !exists {
		t.Fatalf("bucket exists: %v/%v", exists, err)
	}

	body := []byte("username,allow_marketing_emails\nalice,true\n")
	if err := store.PutObject(ctx, "exports", "optin/list.csv", bytes.NewReader(body), int64(len(body))); err != nil {
		t.Fatalf("put object: %v", err)
	}

	data, err := store.GetObject(ctx, "exports", "optin/list.csv")
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Fatalf("object mismatch: %q", data)
	}

	keys, err := store.ListPrefix(ctx, "exports", "optin/")
	if err != nil {
		t.Fatalf("list prefix: %v", err)
	}
	if len(keys) != 1 || keys[0] != "optin/list.csv" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestLocalStore_MissingBucketFails(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	err := store.PutObject(ctx, "nope", "k", bytes.NewReader(nil), 0)
	if err == nil {
		t.Fatal("expected missing bucket error")
	}
	var oe *Error
	if !errors.As(err, &oe) || oe.Code != CodeBucketNotFound {
		t.Fatalf("expected %s, got %v", CodeBucketNotFound, err)
	}
}

func TestLocalStore_MissingObjectFails(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	if err := store.EnsureBucket(ctx, "exports"); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}

	_, err := store.GetObject(ctx, "exports", "missing.csv")
	var oe *Error
	if !errors.As(err, &oe) || oe.Code != CodeObjectNotFound {
		t.Fatalf("expected %s, got %v", CodeObjectNotFound, err)
	}
}

func TestIsAuthError(t *testing.T) {
	auth := wrapError(CodeAuthInvalid, false, fmt.Errorf("bad key"))
	if !IsAuthError(auth) {
		t.Fatal("expected auth classification")
	}
	if !IsAuthError(fmt.Errorf("upload: %w", auth)) {
		t.Fatal("expected auth classification through wrapping")
	}
	if IsAuthError(wrapError(CodeBucketNotFound, false, nil)) {
		t.Fatal("bucket errors are not auth errors")
	}
	if IsAuthError(fmt.Errorf("plain")) {
		t.Fatal("plain errors are not auth errors")
	}
}

func TestClassifyError_StringFallbacks(t *testing.T) {
	cases := []struct {
		msg  string
		code string
	}{
		{"invalid access key id provided", CodeAuthInvalid},
		{"the specified bucket does not exist: no such bucket", CodeBucketNotFound},
		{"access denied", CodePermissionDenied},
		{"request timeout exceeded", CodeTimeout},
		{"dial tcp: connection refused", CodeEndpointUnreachable},
		{"something else entirely", CodeUploadFailed},
	}
	for _, tc := range cases {
		got := classifyError(fmt.Errorf("%s", tc.msg))
		if got.Code != tc.code {
			t.Fatalf("classify(%q) = %s, want %s", tc.msg, got.Code, tc.code)
		}
	}
}

func TestNewS3Client_DefaultsToSSL(t *testing.T) {
	client, err := NewS3Client(&Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client == nil {
		t.Fatal("expected client")
	}
}
