// Package uploads stores notice images on local disk or in an S3 compatible
// bucket such as Cloudflare R2.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/bilgisen/signage/internal/utils"
)

// ErrUnsupportedType is returned for uploads that are not a known image type
var ErrUnsupportedType = errors.New("uploads: unsupported image type")

// sniffLen is how much of an upload is read to detect its type
const sniffLen = 3072

// ImageStore saves notice images and returns the URL displays load them from.
// The stored type is detected from the content, never taken from the client.
type ImageStore interface {
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
	// Delete removes the image behind url. URLs the store does not own are
	// ignored.
	Delete(ctx context.Context, url string) error
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Extension returns the file extension for an image content type
func Extension(contentType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := extensions[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return ext, nil
}

// Image is an upload whose content was identified as a supported image
type Image struct {
	ContentType string
	Ext         string
	// Body replays the sniffed bytes followed by the rest of the upload
	Body io.Reader
}

// DetectImage sniffs the start of body and accepts only raster image types.
// Markup such as SVG or HTML is rejected whatever the upload claims to be.
func DetectImage(body io.Reader) (*Image, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(body, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	header = header[:n]

	mime := mimetype.Detect(header)
	ext, err := Extension(mime.String())
	if err != nil {
		return nil, err
	}

	return &Image{
		ContentType: strings.SplitN(mime.String(), ";", 2)[0],
		Ext:         ext,
		Body:        io.MultiReader(bytes.NewReader(header), body),
	}, nil
}

// ObjectName builds a unique name from the upload time and original file name
func ObjectName(filename, ext string, now time.Time) string {
	base := filepath.Base(filename)
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), utils.ShortHash(fmt.Sprintf("%s:%d", base, now.UnixNano()), 12), ext)
}
