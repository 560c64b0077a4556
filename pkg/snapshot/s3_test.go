package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "graph/snap.json")
	ctx := context.Background()

	if err := store.Save(ctx, Snapshot{"count": json.RawMessage(`5`)}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(client.puts) != 1 || aws.ToString(client.puts[0].ContentType) != "application/json" {
		t.Errorf("unexpected puts %+v", client.puts)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(snap["count"]) != "5" {
		t.Errorf("count = %s, want 5", snap["count"])
	}
}

func TestS3StoreMissingKey(t *testing.T) {
	store := NewS3Store(newFakeS3(), "bucket", "snap.json")

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %v", snap)
	}
}

func TestS3StoreLoadError(t *testing.T) {
	client := newFakeS3()
	boom := errors.New("boom")
	client.getErr = boom

	_, err := NewS3Store(client, "bucket", "snap.json").Load(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Load error = %v, want wrapped boom", err)
	}
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client("eu-west-1", "http://localhost:9000")
	opts := client.Options()

	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if !opts.UsePathStyle || aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("expected path-style custom endpoint, got %+v", opts.BaseEndpoint)
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := envCredentials(context.Background()); err == nil {
		t.Error("expected error without credentials")
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	creds, err := envCredentials(context.Background())
	if err != nil {
		t.Fatalf("envCredentials failed: %v", err)
	}
	if creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" {
		t.Errorf("unexpected credentials %+v", creds)
	}
}
