package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPrepareAvatarFitsLargeImages(t *testing.T) {
	out, ext, ctype, err := PrepareAvatar(pngBytes(t, 2000, 1000), "me.PNG")
	if err != nil {
		t.Fatalf("PrepareAvatar() error = %v", err)
	}
	if ext != ".png" || ctype != "image/png" {
		t.Errorf("ext = %q ctype = %q", ext, ctype)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 512 || cfg.Height != 256 {
		t.Errorf("size = %dx%d, want 512x256", cfg.Width, cfg.Height)
	}
}

func TestPrepareAvatarRejectsGarbage(t *testing.T) {
	if _, _, _, err := PrepareAvatar([]byte("not an image"), "x.jpg"); err != ErrUnsupportedImage {
		t.Errorf("error = %v, want ErrUnsupportedImage", err)
	}
	if _, _, _, err := PrepareAvatar(pngBytes(t, 4, 4), "x.exe"); err != ErrUnsupportedImage {
		t.Errorf("error = %v, want ErrUnsupportedImage", err)
	}
}

func TestLocalStoreOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir, "http://localhost:3000/uploads/")

	name := AvatarObjectName("1700000000", ".png")
	url, err := s.Put(context.Background(), name, []byte("one"), "image/png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if url != "http://localhost:3000/uploads/avatars/1700000000.png" {
		t.Errorf("url = %q", url)
	}
	if _, err := s.Put(context.Background(), name, []byte("two"), "image/png"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "avatars", "1700000000.png"))
	if string(data) != "two" {
		t.Errorf("content = %q, want overwrite", data)
	}
}
