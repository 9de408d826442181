// Package ocr reads the token dumps an OCR engine produced for holding screenshots.
package ocr

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
)

// Supported dump extensions.
const (
	ExtJSON = ".json"
	ExtText = ".txt"
)

// Load reads a single dump file or every dump in a directory, in lexical file order.
func Load(path string) ([]model.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if !info.IsDir() {
		page, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return []model.Page{page}, nil
	}
	return LoadDir(path)
}

// LoadDir reads every .json and .txt dump directly inside dir. Other files are ignored.
func LoadDir(dir string) ([]model.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var pages []model.Page
	for _, e := range entries {
		if e.IsDir() || !IsDump(e.Name()) {
			continue
		}
		page, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no OCR dumps (%s, %s) in %s", common.ErrUnsupportedInput, ExtJSON, ExtText, dir)
	}
	return pages, nil
}

// IsDump reports whether name has a supported dump extension.
func IsDump(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtJSON, ExtText:
		return true
	}
	return false
}

// LoadFile reads one dump. The page is named after the file.
func LoadFile(path string) (model.Page, error) {
	if !IsDump(path) {
		return model.Page{}, fmt.Errorf("%w: %s", common.ErrUnsupportedInput, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // user supplied input path
	if err != nil {
		return model.Page{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	var tokens []model.Token
	if strings.EqualFold(filepath.Ext(path), ExtJSON) {
		tokens, err = DecodeJSON(data)
	} else {
		tokens, err = DecodeText(data)
	}
	if err != nil {
		return model.Page{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return model.Page{Name: name, Tokens: tokens}, nil
}

// DecodeJSON parses a JSON array of tokens. A null document decodes to no tokens, which is
// what RapidOCR writes for an image without text.
func DecodeJSON(data []byte) ([]model.Token, error) {
	var tokens []model.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// DecodeText treats every line as one geometry-less token.
func DecodeText(data []byte) ([]model.Token, error) {
	var tokens []model.Token
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens = append(tokens, model.TextToken(strings.TrimRight(scanner.Text(), "\r")))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
