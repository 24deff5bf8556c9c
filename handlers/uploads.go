package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxImageSize = 5 << 20 // 5MB

// saveImageUpload stores an optional multipart image and returns its
// public path. A missing file is not an error; an oversized or non-image
// file is.
func saveImageUpload(c *gin.Context, field, uploadDir, subdir, prefix string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}

	if file.Size > maxImageSize {
		return "", errors.New("image must be smaller than 5MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return "", errors.New("only image files are allowed")
	}

	dir := filepath.Join(uploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(dir, filename)); err != nil {
		return "", err
	}

	return "/" + filepath.ToSlash(filepath.Join(uploadDir, subdir, filename)), nil
}
