// Package media stores uploaded post images on local disk or in an S3-compatible bucket.
package media

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const uploadDir = "blog_images"

// objectKey builds a collision-free key that keeps the upload's extension
func objectKey(name string) string {
	ext := strings.ToLower(filepath.Ext(path.Base(filepath.ToSlash(name))))
	if len(ext) > 10 {
		ext = ""
	}
	return uploadDir + "/" + uuid.NewString() + ext
}
