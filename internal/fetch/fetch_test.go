package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxitex/internal/classify"
)

func TestDetectFileType(t *testing.T) {
	assert.Equal(t, typeZip, detectFileType([]byte("PK\x03\x04rest")))
	assert.Equal(t, typeGzip, detectFileType([]byte{0x1f, 0x8b, 0x08}))
	assert.Equal(t, typePDF, detectFileType([]byte("%PDF-1.4")))
	assert.Equal(t, typeTex, detectFileType([]byte(`\documentclass{article}`)))
	assert.Equal(t, typeUnknown, detectFileType([]byte("random garbage bytes")))
}

func TestDetectFileTypeTar(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "paper.tex", Mode: 0o644, Size: 5}))
	_, err := tw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	assert.Equal(t, typeTar, detectFileType(buf.Bytes()))
}

func TestSafeArchivePath(t *testing.T) {
	assert.True(t, safeArchivePath("main.tex"))
	assert.True(t, safeArchivePath("sub/dir/main.tex"))
	assert.False(t, safeArchivePath("/etc/passwd"))
	assert.False(t, safeArchivePath("../../etc/passwd"))
	assert.False(t, safeArchivePath("sub/../../escape.tex"))
}

func TestExtractPDFOnlyFails(t *testing.T) {
	dir := t.TempDir()
	err := extract([]byte("%PDF-1.4 binary junk"), dir, "1234.5678")
	require.Error(t, err)
	var tagged classify.Error
	require.True(t, errors.As(err, &tagged))
	assert.Equal(t, classify.NoLatexSource, tagged.Code())
}

func TestExtractPlainTex(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`\documentclass{article}\begin{document}hi\end{document}`)
	require.NoError(t, extract(content, dir, "1234.5678"))
	got, err := os.ReadFile(filepath.Join(dir, "1234.5678.tex"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("main.tex")
	require.NoError(t, err)
	_, err = w.Write([]byte(`\documentclass{article}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	require.NoError(t, extract(buf.Bytes(), dir, "2000.00001"))
	got, err := os.ReadFile(filepath.Join(dir, "main.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `\documentclass`)
}

func TestExtractZipCorrupt(t *testing.T) {
	dir := t.TempDir()
	body := append([]byte("PK\x03\x04"), []byte("not actually a valid zip body")...)
	err := extract(body, dir, "2000.00001")
	require.Error(t, err)
	var tagged classify.Error
	require.True(t, errors.As(err, &tagged))
	assert.Equal(t, classify.SourceZipCorrupt, tagged.Code())
}

func TestExtractTarGzip(t *testing.T) {
	dir := t.TempDir()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	content := []byte(`\documentclass{article}`)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "main.tex", Mode: 0o644, Size: int64(len(content))}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	_, err = gw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	require.NoError(t, extract(gzBuf.Bytes(), dir, "2000.00001"))
	got, err := os.ReadFile(filepath.Join(dir, "main.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `\documentclass`)
}

func TestExtractGzipPlainTex(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`\begin{document}only tex, no tar\end{document}`)
	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	_, err := gw.Write(content)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	require.NoError(t, extract(gzBuf.Bytes(), dir, "2000.00001"))
	got, err := os.ReadFile(filepath.Join(dir, "2000.00001.tex"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestExtractUnknownFails(t *testing.T) {
	dir := t.TempDir()
	err := extract([]byte("totally unrecognizable content"), dir, "2000.00001")
	require.Error(t, err)
	var tagged classify.Error
	require.True(t, errors.As(err, &tagged))
	assert.Equal(t, classify.SourceExtractFailed, tagged.Code())
}

func TestLooksBlockedByRecaptcha(t *testing.T) {
	assert.True(t, looksBlockedByRecaptcha([]byte("<html>Please verify you are not a robot, complete this captcha</html>")))
	assert.False(t, looksBlockedByRecaptcha([]byte(`\documentclass{article}`)))
}

func TestFetchRejectsInvalidArxivID(t *testing.T) {
	f := New(DefaultConfig())
	_, err := f.Fetch(context.Background(), "not-a-valid-id")
	require.Error(t, err)
	var tagged classify.Error
	require.True(t, errors.As(err, &tagged))
	assert.Equal(t, classify.InvalidArxivID, tagged.Code())
}
