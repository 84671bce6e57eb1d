package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1718000000000)

func TestStoredName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"listings.csv", "1718000000000_listings.csv"},
		{"Q1 Listings (final).xlsx", "1718000000000_Q1_Listings__final_.xlsx"},
		{"../../etc/passwd", "1718000000000_passwd"},
		{`C:\Users\mona\leads.xls`, "1718000000000_leads.xls"},
		{"..", "1718000000000_upload"},
		{"", "1718000000000_upload"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StoredName(fixedNow, tt.in))
		})
	}
}

func TestLocal_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir)
	require.NoError(t, err)
	l.now = func() time.Time { return fixedNow }

	path, err := l.Save(context.Background(), "leads.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "1718000000000_leads.csv"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(got))
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3_Save(t *testing.T) {
	fp := &fakePutter{}
	s := newS3(fp, "crm-uploads", "/imports/")
	s.now = func() time.Time { return fixedNow }

	loc, err := s.Save(context.Background(), "leads.csv", []byte("name,email\nMona,m@example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3://crm-uploads/imports/1718000000000_leads.csv", loc)

	require.NotNil(t, fp.in)
	assert.Equal(t, "crm-uploads", aws.ToString(fp.in.Bucket))
	assert.Equal(t, "imports/1718000000000_leads.csv", aws.ToString(fp.in.Key))
	assert.Contains(t, aws.ToString(fp.in.ContentType), "text/")
}

func TestS3_SaveError(t *testing.T) {
	s := newS3(&fakePutter{err: errors.New("AccessDenied")}, "b", "")
	_, err := s.Save(context.Background(), "a.csv", []byte("x"))
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	a, err := New(ctx, Config{Backend: ""})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, a)

	a, err = New(ctx, Config{Backend: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, a)

	a, err = New(ctx, Config{Backend: "s3", S3Bucket: "b", S3AccessKey: "k", S3SecretKey: "s", S3Endpoint: "minio:9000"})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, a)

	_, err = New(ctx, Config{Backend: "s3"})
	assert.Error(t, err)

	_, err = New(ctx, Config{Backend: "ftp"})
	assert.Error(t, err)
}
