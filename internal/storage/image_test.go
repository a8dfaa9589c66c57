package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcessAvatar(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxDim int
		wantW, wantH int
	}{
		{"keeps small image", 120, 60, 2048, 120, 60},
		{"fits wide image", 200, 50, 100, 100, 25},
		{"fits tall image", 40, 400, 100, 10, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultAvatarOptions()
			opts.MaxDim = tt.maxDim

			av, err := ProcessAvatar(bytes.NewReader(encodePNG(t, tt.w, tt.h)), opts)
			if err != nil {
				t.Fatalf("ProcessAvatar: %v", err)
			}
			if av.ContentType != "image/jpeg" {
				t.Fatalf("content type = %q, want image/jpeg", av.ContentType)
			}
			decoded, err := jpeg.Decode(bytes.NewReader(av.Data))
			if err != nil {
				t.Fatalf("jpeg decode: %v", err)
			}
			if decoded.Bounds().Dx() != tt.wantW || decoded.Bounds().Dy() != tt.wantH {
				t.Fatalf("dims = %dx%d, want %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy(), tt.wantW, tt.wantH)
			}
			if av.Size() != int64(len(av.Data)) {
				t.Fatalf("size = %d, want %d", av.Size(), len(av.Data))
			}
		})
	}
}

func TestProcessAvatarRejects(t *testing.T) {
	small := DefaultAvatarOptions()
	small.MaxBytes = 10

	pixels := DefaultAvatarOptions()
	pixels.MaxPixels = 100

	validPNG := encodePNG(t, 20, 20)

	tests := []struct {
		name    string
		payload []byte
		opts    AvatarOptions
		want    error
	}{
		{"too many bytes", bytes.Repeat([]byte{0}, 11), small, ErrTooLarge},
		{"unknown magic", bytes.Repeat([]byte{1}, 128), DefaultAvatarOptions(), ErrUnsupported},
		{"truncated png", validPNG[:20], DefaultAvatarOptions(), ErrInvalidImage},
		{"too many pixels", validPNG, pixels, ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProcessAvatar(bytes.NewReader(tt.payload), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCleanAvatarKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"u1/a.jpg", "avatars/u1/a.jpg", false},
		{"/avatars/u1/a.jpg", "avatars/u1/a.jpg", false},
		{"u1//a.jpg", "avatars/u1/a.jpg", false},
		{"../secret", "", true},
		{"", "", true},
		{`u1\a.jpg`, "", true},
	}

	for _, tt := range tests {
		got, err := CleanAvatarKey(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("CleanAvatarKey(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanAvatarKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewAvatarKey(t *testing.T) {
	k1, k2 := NewAvatarKey("u1"), NewAvatarKey("u1")
	if k1 == k2 {
		t.Fatal("keys should be unique")
	}
	if _, err := CleanAvatarKey(k1); err != nil {
		t.Fatalf("generated key rejected: %v", err)
	}
}
