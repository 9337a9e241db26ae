// Package fetch implements the C1 source fetcher: downloading a paper's
// source archive from arXiv and unpacking it into a local directory.
package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"arxitex/internal/arxivid"
	"arxitex/internal/classify"
	"arxitex/internal/types"
)

// Config tunes retry and timeout behavior.
type Config struct {
	MaxRetries     int
	BaseWait       time.Duration
	RequestTimeout time.Duration
	CacheDir       string
}

// DefaultConfig matches the original downloader's defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		BaseWait:       2 * time.Second,
		RequestTimeout: 60 * time.Second,
		CacheDir:       ".arxitex-cache",
	}
}

// Fetcher downloads and unpacks arXiv source archives.
type Fetcher struct {
	cfg        Config
	httpClient *http.Client
	userAgent  string
}

// New creates a Fetcher with the given config.
func New(cfg Config) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:  "arxitex/1.0 (academic research)",
	}
}

// Fetch downloads the source archive for arxivID and extracts it into a
// per-call cache subdirectory, returning the extraction directory path.
func (f *Fetcher) Fetch(ctx context.Context, arxivID string) (string, error) {
	if err := arxivid.Parse(arxivID); err != nil {
		return "", err
	}

	sanitized := strings.ReplaceAll(arxivID, "/", "_")
	destDir := filepath.Join(f.cfg.CacheDir, sanitized)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", classify.Wrap(classify.SourceDownloadFailed, types.StageDownload, "create cache dir", err)
	}

	body, err := f.downloadWithRetry(ctx, arxivID)
	if err != nil {
		return "", err
	}

	if err := extract(body, destDir, sanitized); err != nil {
		return "", err
	}

	return destDir, nil
}

func (f *Fetcher) downloadWithRetry(ctx context.Context, arxivID string) ([]byte, error) {
	url := fmt.Sprintf("https://arxiv.org/e-print/%s", arxivID)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.cfg.BaseWait
	bo.MaxElapsedTime = time.Duration(f.cfg.MaxRetries) * f.cfg.RequestTimeout

	var body []byte
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			if attempts >= f.cfg.MaxRetries {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			if attempts >= f.cfg.MaxRetries {
				return backoff.Permanent(err)
			}
			return err
		}

		if resp.StatusCode != http.StatusOK {
			if attempts < f.cfg.MaxRetries && resp.StatusCode >= 500 {
				return fmt.Errorf("arxiv returned %d", resp.StatusCode)
			}
			return backoff.Permanent(fmt.Errorf("arxiv returned %d", resp.StatusCode))
		}

		if looksBlockedByRecaptcha(b) {
			return backoff.Permanent(classify.New(classify.SourceBlockedByRecaptcha, types.StageDownload, "arxiv returned an anti-bot challenge page"))
		}

		body = b
		return nil
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		var tagged classify.Error
		if errors.As(err, &tagged) {
			return nil, tagged
		}
		return nil, classify.Wrap(classify.SourceDownloadFailed, types.StageDownload, fmt.Sprintf("failed to download %s", url), err)
	}

	return body, nil
}

func looksBlockedByRecaptcha(body []byte) bool {
	if len(body) > 4096 {
		body = body[:4096]
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "captcha") || strings.Contains(lower, "are you a robot") || strings.Contains(lower, "unusual traffic")
}

// fileType is the archive format detected by sniffing.
type fileType int

const (
	typeUnknown fileType = iota
	typeZip
	typeGzip
	typePDF
	typeTar
	typeTex
)

func detectFileType(body []byte) fileType {
	header := body
	if len(header) > 512 {
		header = header[:512]
	}

	switch {
	case bytes.HasPrefix(header, []byte("PK\x03\x04")), bytes.HasPrefix(header, []byte("PK\x05\x06")):
		return typeZip
	case bytes.HasPrefix(header, []byte{0x1f, 0x8b}):
		return typeGzip
	case bytes.HasPrefix(header, []byte("%PDF")):
		return typePDF
	}

	if len(header) >= 262 && bytes.Contains(header[257:262], []byte("ustar")) {
		return typeTar
	}

	if looksLikeTex(header) {
		return typeTex
	}

	return typeUnknown
}

func looksLikeTex(b []byte) bool {
	s := string(b)
	return strings.Contains(s, `\documentclass`) || strings.Contains(s, `\begin{document}`)
}

func extract(body []byte, destDir, sanitizedID string) error {
	switch detectFileType(body) {
	case typePDF:
		return classify.New(classify.NoLatexSource, types.StageDownload, "paper is PDF-only, no LaTeX source available")
	case typeZip:
		return extractZip(body, destDir)
	case typeGzip:
		return extractGzip(body, destDir, sanitizedID)
	case typeTar:
		return extractTar(bytes.NewReader(body), destDir)
	case typeTex:
		return writeTexFile(body, destDir, sanitizedID)
	default:
		return tryAllExtractors(body, destDir, sanitizedID)
	}
}

// tryAllExtractors is the fallback when sniffing is inconclusive: try each
// format in turn, matching the original downloader's degrade-gracefully
// behavior.
func tryAllExtractors(body []byte, destDir, sanitizedID string) error {
	if bytes.HasPrefix(body, []byte("PK\x03\x04")) || bytes.HasPrefix(body, []byte("PK\x05\x06")) {
		if err := extractZip(body, destDir); err == nil {
			return nil
		}
	}
	if bytes.HasPrefix(body, []byte{0x1f, 0x8b}) {
		if err := extractGzip(body, destDir, sanitizedID); err == nil {
			return nil
		}
	}
	if err := extractTar(bytes.NewReader(body), destDir); err == nil {
		return nil
	}
	if looksLikeTex(body) {
		return writeTexFile(body, destDir, sanitizedID)
	}
	return classify.New(classify.SourceExtractFailed, types.StageDownload, "unable to identify or extract downloaded archive format")
}

func extractZip(body []byte, destDir string) error {
	r, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return classify.Wrap(classify.SourceZipCorrupt, types.StageDownload, "zip archive corrupt", err)
	}

	for _, f := range r.File {
		if !safeArchivePath(f.Name) {
			continue
		}
		target := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return classify.Wrap(classify.SourceZipCorrupt, types.StageDownload, "create zip member dir", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return classify.Wrap(classify.SourceZipCorrupt, types.StageDownload, "create zip member parent dir", err)
		}
		rc, err := f.Open()
		if err != nil {
			return classify.Wrap(classify.SourceZipCorrupt, types.StageDownload, "open zip member", err)
		}
		if err := writeFile(target, rc); err != nil {
			rc.Close()
			return classify.Wrap(classify.SourceZipCorrupt, types.StageDownload, "write zip member", err)
		}
		rc.Close()
	}
	return nil
}

func extractGzip(body []byte, destDir, sanitizedID string) error {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return classify.Wrap(classify.SourceGzipCorrupt, types.StageDownload, "gzip decompression failed", err)
	}
	defer zr.Close()

	decompressed, err := io.ReadAll(zr)
	if err != nil {
		return classify.Wrap(classify.SourceGzipCorrupt, types.StageDownload, "gzip decompression failed", err)
	}

	// A gzip of a tar is the common case; fall back to a bare TeX file.
	if err := extractTar(bytes.NewReader(decompressed), destDir); err == nil {
		return nil
	}

	if !looksLikeTex(decompressed) {
		return classify.New(classify.SourceExtractFailed, types.StageDownload, "gzip payload is neither a tar archive nor TeX source")
	}
	return writeTexFile(decompressed, destDir, sanitizedID)
}

func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	found := false
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return classify.Wrap(classify.SourceTarCorrupt, types.StageDownload, "tar archive corrupt", err)
		}
		found = true

		if !safeArchivePath(hdr.Name) {
			continue
		}
		target := filepath.Join(destDir, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return classify.Wrap(classify.SourceTarCorrupt, types.StageDownload, "create tar member dir", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return classify.Wrap(classify.SourceTarCorrupt, types.StageDownload, "create tar member parent dir", err)
			}
			if err := writeFile(target, tr); err != nil {
				return classify.Wrap(classify.SourceTarCorrupt, types.StageDownload, "write tar member", err)
			}
		}
	}
	if !found {
		return classify.New(classify.SourceTarCorrupt, types.StageDownload, "tar archive contained no entries")
	}
	return nil
}

func writeTexFile(content []byte, destDir, sanitizedID string) error {
	target := filepath.Join(destDir, sanitizedID+".tex")
	return os.WriteFile(target, content, 0o644)
}

func writeFile(target string, r io.Reader) error {
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

// safeArchivePath rejects absolute paths and ".." components, guarding
// against path traversal ("zip slip") from a malicious or corrupt archive.
func safeArchivePath(name string) bool {
	if filepath.IsAbs(name) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
