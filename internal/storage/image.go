package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrTooLarge     = errors.New("file too large")
	ErrInvalidImage = errors.New("invalid image")
	ErrUnsupported  = errors.New("unsupported image type")
)

// AvatarOptions bounds what an uploaded avatar may be and how it is re-encoded.
type AvatarOptions struct {
	MaxBytes    int64
	MaxDim      int
	MaxPixels   int
	JPEGQuality int
	Background  color.RGBA
}

func DefaultAvatarOptions() AvatarOptions {
	return AvatarOptions{
		MaxBytes:    5 << 20,
		MaxDim:      2048,
		MaxPixels:   40_000_000,
		JPEGQuality: 85,
		Background:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Avatar is a normalised JPEG ready for upload.
type Avatar struct {
	Data          []byte
	ContentType   string
	Width, Height int
}

func (a Avatar) Size() int64 { return int64(len(a.Data)) }

// formats maps the names registered with the image package to accepted uploads.
var formats = map[string]bool{"jpeg": true, "png": true, "webp": true}

// ProcessAvatar validates an upload by content, shrinks it to fit MaxDim
// without upscaling, flattens transparency onto Background and encodes JPEG.
func ProcessAvatar(r io.Reader, opts AvatarOptions) (Avatar, error) {
	def := DefaultAvatarOptions()
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = def.MaxBytes
	}
	if opts.MaxDim <= 0 {
		opts.MaxDim = def.MaxDim
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = def.MaxPixels
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = def.JPEGQuality
	}
	if opts.Background.A == 0 {
		opts.Background = def.Background
	}

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return Avatar{}, errors.Wrap(err, "read avatar")
	}
	if int64(len(data)) > opts.MaxBytes {
		return Avatar{}, ErrTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Avatar{}, ErrUnsupported
		}
		return Avatar{}, ErrInvalidImage
	}
	if !formats[format] {
		return Avatar{}, ErrUnsupported
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > opts.MaxPixels {
		return Avatar{}, ErrInvalidImage
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Avatar{}, ErrInvalidImage
	}

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), opts.MaxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: opts.JPEGQuality}); err != nil {
		return Avatar{}, errors.Wrap(err, "encode avatar")
	}
	return Avatar{Data: out.Bytes(), ContentType: "image/jpeg", Width: w, Height: h}, nil
}

// fitWithin scales w x h down so neither side exceeds max, keeping the aspect ratio.
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
