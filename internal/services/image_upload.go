package services

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register the WebP decoder
)

const (
	MaxAvatarBytes = 2 << 20 // 2 MiB
	AvatarSize     = 256
	// MaxAvatarSide bounds the declared dimensions, which decide how much
	// memory decoding takes regardless of the compressed size.
	MaxAvatarSide = 4096
)

// ImageUploader stores avatars as square PNGs in Dir.
type ImageUploader struct {
	Dir string
}

func NewImageUploader(dir string) (*ImageUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageUploader{Dir: dir}, nil
}

// UploadAvatar validates a multipart upload and stores it. Returns the new file name.
func (u *ImageUploader) UploadAvatar(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxAvatarBytes {
		return "", NewValidationError("image", "Image cannot be larger than 2MB")
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", NewValidationError("image", "Only image files can be uploaded")
	}
	return u.Save(file)
}

// Save decodes r, centre-crops it to AvatarSize x AvatarSize and writes <uuid>.png.
func (u *ImageUploader) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > MaxAvatarBytes {
		return "", NewValidationError("image", "Image cannot be larger than 2MB")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", NewValidationError("image", "Unsupported or corrupt image")
	}
	if cfg.Width > MaxAvatarSide || cfg.Height > MaxAvatarSide {
		return "", NewValidationError("image", fmt.Sprintf("Image cannot be larger than %dx%d pixels", MaxAvatarSide, MaxAvatarSide))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", NewValidationError("image", "Unsupported or corrupt image")
	}

	thumb := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)
	name := uuid.NewString() + ".png"
	if err := imaging.Save(thumb, filepath.Join(u.Dir, name)); err != nil {
		return "", fmt.Errorf("save avatar: %w", err)
	}
	return name, nil
}

// Remove deletes a stored avatar. A missing file is not an error.
func (u *ImageUploader) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(u.Dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
