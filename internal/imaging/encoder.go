// Package imaging resolves screenshot image references and re-encodes them as
// JPEG payloads suitable for the vision service.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/STRATINT/activityscan/internal/models"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// MIMEType is the media type of every encoded payload.
const MIMEType = "image/jpeg"

// Config controls how references are fetched and re-encoded.
type Config struct {
	// MaxDimension bounds the longest side of the output. Zero disables scaling.
	MaxDimension int
	Quality      int
	FetchTimeout time.Duration
	MaxBytes     int64
	// BaseDir resolves relative file references.
	BaseDir string
}

// DefaultConfig returns the encoder defaults. Quality 92 matches a browser
// canvas JPEG export.
func DefaultConfig() Config {
	return Config{
		MaxDimension: 1600,
		Quality:      92,
		FetchTimeout: 10 * time.Second,
		MaxBytes:     20 << 20,
	}
}

// EncodedImage is a JPEG payload produced from one image reference.
type EncodedImage struct {
	Data   []byte
	Width  int
	Height int
	Source string
}

// Base64 returns the payload as standard base64.
func (e *EncodedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(e.Data)
}

// DataURI returns the payload as a data: URI.
func (e *EncodedImage) DataURI() string {
	return "data:" + MIMEType + ";base64," + e.Base64()
}

// Encoder turns image references into JPEG payloads.
type Encoder struct {
	cfg    Config
	client *http.Client
}

// NewEncoder creates an encoder. A nil client gets one bounded by cfg.FetchTimeout.
func NewEncoder(cfg Config, client *http.Client) *Encoder {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultConfig().Quality
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultConfig().MaxBytes
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	return &Encoder{cfg: cfg, client: client}
}

// Encode resolves ref, decodes it and returns a JPEG payload. Every failure
// wraps models.ErrImageUnavailable.
func (e *Encoder) Encode(ctx context.Context, ref string) (*EncodedImage, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: empty reference", models.ErrImageUnavailable)
	}

	raw, err := e.load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrImageUnavailable, describeRef(ref), err)
	}
	if int64(len(raw)) > e.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %s: image exceeds %d bytes", models.ErrImageUnavailable, describeRef(ref), e.cfg.MaxBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", models.ErrImageUnavailable, describeRef(ref), err)
	}

	img = e.scale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.cfg.Quality}); err != nil {
		return nil, fmt.Errorf("%w: encoding jpeg: %v", models.ErrImageUnavailable, err)
	}

	bounds := img.Bounds()
	return &EncodedImage{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Source: ref,
	}, nil
}

func (e *Encoder) load(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// No scheme (or a Windows drive letter): a local path.
		return e.readFile(ref)
	}

	switch u.Scheme {
	case "http", "https":
		return e.fetch(ctx, u.String())
	case "file":
		return e.readFile(u.Path)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (e *Encoder) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return readLimited(resp.Body, e.cfg.MaxBytes)
}

func (e *Encoder) readFile(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && e.cfg.BaseDir != "" {
		path = filepath.Join(e.cfg.BaseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readLimited(f, e.cfg.MaxBytes)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

func decodeDataURI(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}

	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 payload: %w", err)
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("unescaping payload: %w", err)
	}
	return []byte(data), nil
}

func (e *Encoder) scale(img image.Image) image.Image {
	if e.cfg.MaxDimension <= 0 {
		return img
	}

	bounds := img.Bounds()
	newW, newH := fitDimensions(bounds.Dx(), bounds.Dy(), e.cfg.MaxDimension, e.cfg.MaxDimension)
	if newW == bounds.Dx() && newH == bounds.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// fitDimensions calculates the scaled dimensions that fit within maxW x maxH
// while preserving the aspect ratio. If the image already fits, returns original dimensions.
func fitDimensions(origW, origH, maxW, maxH int) (int, int) {
	if origW <= maxW && origH <= maxH {
		return origW, origH
	}

	ratio := math.Min(float64(maxW)/float64(origW), float64(maxH)/float64(origH))

	newW := max(int(math.Round(float64(origW)*ratio)), 1)
	newH := max(int(math.Round(float64(origH)*ratio)), 1)

	return newW, newH
}

// describeRef keeps inline payloads out of error messages and logs.
func describeRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		header, _, _ := strings.Cut(ref, ",")
		return header + ",…"
	}
	return ref
}
