package vault

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"
)

var errMultipart = errors.New("multipart upload not supported by fake")

// fakeS3 keeps objects in memory and serves single-part uploads only.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	bucketErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errMultipart
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.bucketErr
}

func TestS3Vault_PutGetObject(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantKey string
	}{
		{name: "no prefix", prefix: "", wantKey: "backup-1.csv"},
		{name: "with prefix", prefix: "/paroquia/", wantKey: "paroquia/backup-1.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeS3()
			v := NewS3Vault("s3", "bucket", tt.prefix, fake)

			content := "id,tipo_registro\n1,Notas\n"
			if err := v.PutObject("backup-1.csv", strings.NewReader(content), int64(len(content))); err != nil {
				t.Fatalf("PutObject() error = %v", err)
			}
			if _, ok := fake.objects[tt.wantKey]; !ok {
				t.Fatalf("object stored under %v, want %q", slices.Collect(maps.Keys(fake.objects)), tt.wantKey)
			}

			var buf bytes.Buffer
			if err := v.GetObject("backup-1.csv", &buf); err != nil {
				t.Fatalf("GetObject() error = %v", err)
			}
			if buf.String() != content {
				t.Errorf("GetObject() = %q, want %q", buf.String(), content)
			}
		})
	}
}

func TestS3Vault_GetObjectNotFound(t *testing.T) {
	v := NewS3Vault("s3", "bucket", "", newFakeS3())

	var buf bytes.Buffer
	err := v.GetObject("missing", &buf)
	if err == nil || !strings.Contains(err.Error(), "object not found") {
		t.Errorf("GetObject() error = %v, want not found", err)
	}
}

func TestS3Vault_ListObjects(t *testing.T) {
	fake := newFakeS3()
	fake.objects["p/backup-2.csv"] = nil
	fake.objects["p/backup-1.csv.age"] = nil
	fake.objects["p/other"] = nil
	fake.objects["elsewhere/backup-3.csv"] = nil
	v := NewS3Vault("s3", "bucket", "p", fake)

	got, err := v.ListObjects("backup-")
	if err != nil {
		t.Fatalf("ListObjects() error = %v", err)
	}
	if diff := cmp.Diff([]string{"backup-1.csv.age", "backup-2.csv"}, got); diff != "" {
		t.Errorf("ListObjects() mismatch (-want +got):\n%s", diff)
	}

	all, err := v.ListObjects("")
	if err != nil {
		t.Fatalf("ListObjects(\"\") error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListObjects(\"\") = %v, want 3 keys", all)
	}
}

func TestS3Vault_ValidateSetup(t *testing.T) {
	fake := newFakeS3()
	v := NewS3Vault("s3", "bucket", "", fake)
	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	fake.bucketErr = errors.New("forbidden")
	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error")
	}
}
