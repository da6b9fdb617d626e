package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := objectKey("Beach Photo.JPG")
	assert.True(t, strings.HasPrefix(key, "blog_images/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, objectKey("Beach Photo.JPG"))

	assert.NotContains(t, objectKey("../../etc/passwd"), "..")
}

func TestLocalStorageSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Save(ctx, "a.png", "image/png", strings.NewReader("pixels"), 6)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	assert.Equal(t, "/media/"+key, s.URL(key))

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Delete(ctx, key), "deleting twice is fine")
}

func TestS3StorageURL(t *testing.T) {
	s, err := NewS3Storage(S3Config{
		Endpoint: "http://localhost:9000", AccessKey: "minio", SecretKey: "minio123", Bucket: "media",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/media/blog_images/x.png", s.URL("blog_images/x.png"))
}
