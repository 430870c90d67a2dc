package out_test

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backupadapter "sacredsound/internal/modules/backup/adapter/out"
	apperrors "sacredsound/internal/platform/errors"
)

// fakeBucket speaks just enough path-style S3 for the archive adapter.
type fakeBucket struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

type listContents struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	Size         int    `xml:"Size"`
}

type listResult struct {
	XMLName     xml.Name       `xml:"ListBucketResult"`
	Name        string         `xml:"Name"`
	Prefix      string         `xml:"Prefix"`
	KeyCount    int            `xml:"KeyCount"`
	MaxKeys     int            `xml:"MaxKeys"`
	IsTruncated bool           `xml:"IsTruncated"`
	Contents    []listContents `xml:"Contents"`
}

func newFakeBucket(t *testing.T, bucket string) (*fakeBucket, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakeBucket{bucket: bucket, objects: map[string][]byte{}, types: map[string]string{}}
	r := gin.New()
	r.PUT("/:bucket/*key", f.put)
	r.GET("/:bucket", f.list)
	r.GET("/:bucket/*key", f.get)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeBucket) put(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	f.mu.Lock()
	f.objects[key] = body
	f.types[key] = c.GetHeader("Content-Type")
	f.mu.Unlock()
	c.Header("ETag", `"etag"`)
	c.Status(http.StatusOK)
}

func (f *fakeBucket) get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		f.list(c)
		return
	}
	f.mu.Lock()
	body, ok := f.objects[key]
	f.mu.Unlock()
	if !ok {
		c.Data(http.StatusNotFound, "application/xml", []byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", body)
}

func (f *fakeBucket) list(c *gin.Context) {
	prefix := c.Query("prefix")
	f.mu.Lock()
	out := listResult{Name: f.bucket, Prefix: prefix, MaxKeys: 1000}
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out.Contents = append(out.Contents, listContents{Key: key, LastModified: "2024-03-04T10:00:00.000Z", Size: len(body)})
		}
	}
	f.mu.Unlock()
	sort.Slice(out.Contents, func(i, j int) bool { return out.Contents[i].Key < out.Contents[j].Key })
	out.KeyCount = len(out.Contents)
	raw, _ := xml.Marshal(out)
	c.Data(http.StatusOK, "application/xml", append([]byte(xml.Header), raw...))
}

func newArchive(t *testing.T, endpoint, prefix string) *backupadapter.S3Archive {
	t.Helper()
	archive, err := backupadapter.NewS3Archive(context.Background(), backupadapter.S3Config{
		Bucket:    "backups",
		Prefix:    prefix,
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
		PathStyle: true,
	})
	require.NoError(t, err)
	return archive
}

func TestS3ArchivePutGetList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bucket, endpoint := newFakeBucket(t, "backups")
	archive := newArchive(t, endpoint, "/device-1/")

	require.NoError(t, archive.Put(ctx, "sacredsound-20240304T100000Z.json", []byte(`{"version":1}`)))
	require.NoError(t, archive.Put(ctx, "sacredsound-20240305T100000Z.yaml", []byte("version: 1\n")))

	bucket.mu.Lock()
	assert.Equal(t, "application/yaml", bucket.types["device-1/sacredsound-20240305T100000Z.yaml"])
	bucket.objects["elsewhere/other.json"] = []byte("{}")
	bucket.mu.Unlock()

	data, err := archive.Get(ctx, "sacredsound-20240304T100000Z.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(data))

	objects, err := archive.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	names := []string{objects[0].Name, objects[1].Name}
	assert.ElementsMatch(t, []string{"sacredsound-20240304T100000Z.json", "sacredsound-20240305T100000Z.yaml"}, names)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), objects[0].Modified.UTC())
}

func TestS3ArchiveMissingObject(t *testing.T) {
	t.Parallel()
	_, endpoint := newFakeBucket(t, "backups")
	archive := newArchive(t, endpoint, "")

	_, err := archive.Get(context.Background(), "sacredsound-19990101T000000Z.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "got %v", err)
}

func TestS3ArchiveRequiresBucket(t *testing.T) {
	t.Parallel()
	_, err := backupadapter.NewS3Archive(context.Background(), backupadapter.S3Config{})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
