// Package thumbnail normalizes third-party thumbnail images into durably
// hosted assets. Platform CDN URLs are short-lived, so a thumbnail is only
// considered durable once it points at our own object storage.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jdeng/goheif"
	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// PlaceholderURL is the known placeholder some records carry before a
	// real thumbnail has been resolved.
	PlaceholderURL = "https://storage.googleapis.com/creator-tracker-assets/placeholder.png"

	jpegQuality = 85
)

// Referer-checked CDNs reject requests without a same-site referer.
var platformReferers = map[models.Platform]string{
	models.PlatformInstagram: "https://www.instagram.com/",
	models.PlatformTikTok:    "https://www.tiktok.com/",
}

// thirdPartyCDNHosts identifies thumbnails still pointing at a platform CDN.
var thirdPartyCDNHosts = []string{
	"cdninstagram.com",
	"fbcdn.net",
	"tiktokcdn",
	"ytimg.com",
	"ggpht.com",
	"twimg.com",
}

// DownloadError is raised when the remote image cannot be fetched. The caller
// saves the video without a thumbnail; it never persists the third-party URL
// as a substitute.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download thumbnail %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Pipeline downloads, transcodes and re-hosts thumbnail images.
type Pipeline struct {
	httpClient *http.Client
	store      ObjectStore
	minBytes   int
}

// NewPipeline creates a thumbnail pipeline writing to the given store.
func NewPipeline(store ObjectStore, minBytes int) *Pipeline {
	if minBytes <= 0 {
		minBytes = 100
	}
	return &Pipeline{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
		minBytes:   minBytes,
	}
}

// Process fetches the remote image, transcodes legacy HEIC payloads to JPEG,
// uploads the result to durable storage and returns the stable URL.
func (p *Pipeline) Process(ctx context.Context, remoteURL string, platform models.Platform, orgID, projectID, videoID string) (string, error) {
	data, contentType, err := p.download(ctx, remoteURL, platform)
	if err != nil {
		return "", err
	}

	// The declared content type is not trusted on its own: providers
	// mislabel HEIC payloads, so the magic-byte signature wins.
	if isHEIC(data) || declaresHEIC(contentType) {
		if converted, err := transcodeToJPEG(data); err != nil {
			logger.Log.Warn("HEIC transcode failed, uploading original bytes",
				zap.String("url", remoteURL),
				zap.Error(err),
			)
		} else {
			data = converted
			contentType = "image/jpeg"
		}
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	path := fmt.Sprintf("orgs/%s/projects/%s/thumbnails/%s_%s.jpg", orgID, projectID, platform, videoID)
	publicURL, err := p.store.Upload(ctx, path, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}

	return publicURL, nil
}

func (p *Pipeline) download(ctx context.Context, remoteURL string, platform models.Platform) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, "", &DownloadError{URL: remoteURL, Err: err}
	}

	req.Header.Set("User-Agent", browserUserAgent)
	if referer, ok := platformReferers[platform]; ok {
		req.Header.Set("Referer", referer)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", &DownloadError{URL: remoteURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &DownloadError{URL: remoteURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &DownloadError{URL: remoteURL, Err: err}
	}
	if len(data) < p.minBytes {
		return nil, "", &DownloadError{URL: remoteURL, Err: fmt.Errorf("payload too small (%d bytes)", len(data))}
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// isHEIC checks the ISO-BMFF ftyp box: "ftyp" at offset 4 followed by a HEIF
// brand tag.
func isHEIC(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func declaresHEIC(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "heic") || strings.Contains(ct, "heif")
}

func transcodeToJPEG(data []byte) ([]byte, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// ShouldReplace reports whether a persisted thumbnail may be overwritten by a
// durable replacement: only when it is empty, the known placeholder, or still
// a third-party CDN URL. A thumbnail already on durable storage is never
// overwritten.
func ShouldReplace(current string) bool {
	if current == "" || current == PlaceholderURL {
		return true
	}
	return IsThirdPartyCDN(current)
}

// IsThirdPartyCDN recognizes platform CDN URLs by hostname substring.
func IsThirdPartyCDN(url string) bool {
	for _, host := range thirdPartyCDNHosts {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}
