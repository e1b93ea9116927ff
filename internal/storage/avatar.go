package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const avatarSize = 512

var ErrUnsupportedImage = errors.New("unsupported avatar image")

// PrepareAvatar decodes an upload, fits it within 512x512 and re-encodes it in the
// format named by the file extension. It returns the bytes, the normalized extension and the content type.
func PrepareAvatar(data []byte, filename string) ([]byte, string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, "", "", ErrUnsupportedImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", "", ErrUnsupportedImage
	}
	fitted := imaging.Fit(img, avatarSize, avatarSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, format); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), ext, contentType(format), nil
}

// AvatarObjectName keys an avatar by pharmacy so a re-upload replaces the previous one.
func AvatarObjectName(pharmacyID, ext string) string {
	return "avatars/" + pharmacyID + ext
}

func contentType(f imaging.Format) string {
	switch f {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	}
	return "image/jpeg"
}
