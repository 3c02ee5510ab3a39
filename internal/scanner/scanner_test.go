package scanner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typespeed/typespeed/internal/scanner"
)

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "go", scanner.DetectLanguage("cmd/server/main.go"))
	assert.Equal(t, "python", scanner.DetectLanguage("app.py"))
	assert.Equal(t, "typescript", scanner.DetectLanguage("src/App.TSX"))
	assert.Equal(t, "", scanner.DetectLanguage("README.md"))
	assert.Equal(t, "", scanner.DetectLanguage("Makefile"))
}

func TestScan_FindsSupportedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", []byte("package main\n\nfunc main() {}\n"))
	writeFile(t, root, "lib/util.py", []byte("def f():\n    return 1\n"))
	writeFile(t, root, "notes.txt", []byte("not source\n"))

	s := scanner.New(root, 0)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)

	byPath := map[string]string{}
	for _, f := range files {
		byPath[f.Path] = f.Language
	}
	assert.Equal(t, "go", byPath["main.go"])
	assert.Equal(t, "python", byPath["lib/util.py"])
}

func TestScan_SkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", []byte("package ok\n"))
	writeFile(t, root, "node_modules/dep/index.js", []byte("module.exports = 1\n"))
	writeFile(t, root, ".git/hooks/pre-commit.sh", []byte("#!/bin/sh\n"))
	writeFile(t, root, "vendor/lib.go", []byte("package lib\n"))

	s := scanner.New(root, 0)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "ok.go", files[0].Path)
}

func TestScan_SkipsBinaryAndOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", []byte("package ok\n"))
	writeFile(t, root, "blob.go", []byte{'p', 'k', 0x00, 0x01, 0xff})

	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'a'
	}
	writeFile(t, root, "big.go", big)

	s := scanner.New(root, 1024)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "ok.go", files[0].Path)
}

func TestScan_PopulatesMetadata(t *testing.T) {
	root := t.TempDir()
	content := "package x\n\nvar a = 1\n"
	writeFile(t, root, "x.go", []byte(content))

	s := scanner.New(root, 0)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, content, f.Content)
	assert.Equal(t, 4, f.LineCount)
	assert.Equal(t, int64(len(content)), f.SizeBytes)
	assert.False(t, f.ScannedAt.IsZero())
}

func TestScan_MissingRoot(t *testing.T) {
	s := scanner.New(filepath.Join(t.TempDir(), "nope"), 0)
	_, err := s.Scan(context.Background())
	assert.Error(t, err)
}
