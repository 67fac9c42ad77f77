// internal/adapters/storage/s3_test.go
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/preloved-be/test/helpers"
)

type fakeBucket struct {
	headBucketErr error
	createErr     error
	headObjectErr error
	created       *s3.CreateBucketInput
}

func (f *fakeBucket) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headBucketErr
}

func (f *fakeBucket) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = in
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeBucket) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, f.headObjectErr
}

type fakeUploader struct {
	got  *s3.PutObjectInput
	body string
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.got = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &manager.UploadOutput{Location: "https://bucket.s3/" + aws.ToString(in.Key)}, nil
}

type fakePresigner struct{ expires time.Duration }

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*aws.PresignedHTTPRequest, error) {
	var o s3.PresignOptions
	for _, fn := range opts {
		fn(&o)
	}
	f.expires = o.Expires
	return &aws.PresignedHTTPRequest{URL: "https://signed/" + aws.ToString(in.Key)}, nil
}

func TestS3Storage_EnsureBucket(t *testing.T) {
	ctx := context.Background()
	missing := errors.New("not found")

	tests := []struct {
		name           string
		region         string
		bucket         *fakeBucket
		wantErr        bool
		wantCreate     bool
		wantConstraint types.BucketLocationConstraint
	}{
		{name: "exists", region: "eu-west-1", bucket: &fakeBucket{}},
		{name: "created_with_region", region: "eu-west-1", bucket: &fakeBucket{headBucketErr: missing}, wantCreate: true, wantConstraint: "eu-west-1"},
		{name: "us_east_has_no_constraint", region: "us-east-1", bucket: &fakeBucket{headBucketErr: missing}, wantCreate: true},
		{name: "already_owned", region: "eu-west-1", bucket: &fakeBucket{headBucketErr: missing, createErr: &types.BucketAlreadyOwnedByYou{}}, wantCreate: true, wantConstraint: "eu-west-1"},
		{name: "create_fails", region: "eu-west-1", bucket: &fakeBucket{headBucketErr: missing, createErr: errors.New("denied")}, wantErr: true, wantCreate: true, wantConstraint: "eu-west-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newS3Storage(tt.bucket, &fakeUploader{}, &fakePresigner{},
				&S3Config{Bucket: "scans", Region: tt.region}, helpers.TestLogger())

			err := store.ensureBucket(ctx)
			if tt.wantErr {
				assert.ErrorContains(t, err, "create bucket scans")
			} else {
				assert.NoError(t, err)
			}

			if !tt.wantCreate {
				assert.Nil(t, tt.bucket.created)
				return
			}
			require.NotNil(t, tt.bucket.created)
			if tt.wantConstraint == "" {
				assert.Nil(t, tt.bucket.created.CreateBucketConfiguration)
			} else {
				assert.Equal(t, tt.wantConstraint, tt.bucket.created.CreateBucketConfiguration.LocationConstraint)
			}
		})
	}
}

func TestS3Storage_Upload(t *testing.T) {
	up := &fakeUploader{}
	store := newS3Storage(&fakeBucket{}, up, &fakePresigner{}, &S3Config{Bucket: "scans"}, helpers.TestLogger())

	loc, err := store.Upload(context.Background(), "scans/ab12.png", strings.NewReader("png-bytes"), "")
	require.NoError(t, err)

	assert.Equal(t, "https://bucket.s3/scans/ab12.png", loc)
	assert.Equal(t, "scans", aws.ToString(up.got.Bucket))
	assert.Equal(t, "image/png", aws.ToString(up.got.ContentType))
	assert.Equal(t, "png-bytes", up.body)

	_, err = store.Upload(context.Background(), "scans/blob", strings.NewReader("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", aws.ToString(up.got.ContentType))
}

func TestS3Storage_PresignedURL(t *testing.T) {
	ps := &fakePresigner{}
	store := newS3Storage(&fakeBucket{}, &fakeUploader{}, ps, &S3Config{Bucket: "scans"}, helpers.TestLogger())

	url, err := store.PresignedURL(context.Background(), "scans/ab12.jpg", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/scans/ab12.jpg", url)
	assert.Equal(t, 15*time.Minute, ps.expires)
}

func TestS3Storage_Exists(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    bool
		wantErr bool
	}{
		{name: "present", want: true},
		{name: "absent", err: &types.NotFound{}},
		{name: "forbidden", err: errors.New("access denied"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newS3Storage(&fakeBucket{headObjectErr: tt.err}, &fakeUploader{}, &fakePresigner{},
				&S3Config{Bucket: "scans"}, helpers.TestLogger())

			got, err := store.Exists(context.Background(), "scans/x.jpg")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
