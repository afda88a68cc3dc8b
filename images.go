package newsdesk

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	maxPixels     = 50_000_000
	uploadsSubdir = "uploads"
)

// Image describes an uploaded cover or inline image.
type Image struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	URL          string    `json:"url"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// processImage decodes an image from src, resizes it to maxImageWidth when
// wider, and encodes it as JPEG. Returns metadata and the encoded bytes.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	raw, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return Image{}, nil, fmt.Errorf("read image: %w", err)
	}
	if len(raw) > maxUploadSize {
		return Image{}, nil, errors.New("image exceeds 10MB")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return Image{}, nil, fmt.Errorf("image dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	name := slugifyFilename(originalName)
	if name == "" {
		name = "image"
	}

	return Image{
		Filename:     name + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         int64(buf.Len()),
		UploadedAt:   time.Now().UTC(),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return Slugify(base)
}

func (a *App) uploadsDir() string {
	return filepath.Join(a.Config.StaticDir, uploadsSubdir)
}

// uniqueFilename appends a counter until filename is free in dir.
func uniqueFilename(dir, filename string) string {
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	for counter := 2; ; counter++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
}

// validUploadName reports whether name is a plain file name inside the
// uploads directory.
func validUploadName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiError{"No image file provided"})
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusBadRequest, apiError{"File too large (max 10MB)"})
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiError{"Invalid image: " + err.Error()})
	}

	dir := a.uploadsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	img.Filename = uniqueFilename(dir, img.Filename)
	img.URL = "/public/" + uploadsSubdir + "/" + img.Filename

	if err := os.WriteFile(filepath.Join(dir, img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	a.Log.Info("image uploaded",
		zap.String("file", img.Filename),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
	)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "image": img})
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := c.Param("filename")
	if !validUploadName(filename) {
		return c.JSON(http.StatusBadRequest, apiError{"Filename required"})
	}
	err := os.Remove(filepath.Join(a.uploadsDir(), filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	a.Log.Info("image deleted", zap.String("file", filename))
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (a *App) handleImageList(c echo.Context) error {
	images, err := a.listImages()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"images": images})
}

// listImages reads image metadata straight from the uploads directory,
// newest first.
func (a *App) listImages() ([]Image, error) {
	dir := a.uploadsDir()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Image{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	images := make([]Image, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jpg") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		img := Image{
			Filename:   e.Name(),
			URL:        "/public/" + uploadsSubdir + "/" + e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime().UTC(),
		}
		if f, err := os.Open(filepath.Join(dir, e.Name())); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				img.Width, img.Height = cfg.Width, cfg.Height
			}
			f.Close()
		}
		images = append(images, img)
	}
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].UploadedAt.After(images[j].UploadedAt)
	})
	return images, nil
}
