// Package docs pulls plain text out of PDF and DOCX uploads.
package docs

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat reports a file extension other than pdf or docx.
var ErrUnsupportedFormat = errors.New("unsupported file format: only PDF and DOCX are supported")

// Extractor extracts document text. Extraction is deterministic per file
// content, so results are cached by content hash with a bounded FIFO
// eviction.
type Extractor struct {
	mu    sync.Mutex
	cache map[[sha256.Size]byte]string
	order [][sha256.Size]byte
	limit int
}

// NewExtractor returns an extractor caching up to limit documents. A
// limit <= 0 disables caching.
func NewExtractor(limit int) *Extractor {
	return &Extractor{
		cache: make(map[[sha256.Size]byte]string),
		limit: limit,
	}
}

// Extract reads the whole document and returns its concatenated text.
// ext is the declared file extension, with or without a leading dot,
// case-insensitive.
func (e *Extractor) Extract(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext != "pdf" && ext != "docx" {
		return "", fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, ext)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	key := sha256.Sum256(data)
	if e.limit > 0 {
		e.mu.Lock()
		if text, ok := e.cache[key]; ok {
			e.mu.Unlock()
			return text, nil
		}
		e.mu.Unlock()
	}

	var text string
	switch ext {
	case "pdf":
		text, err = extractPDF(data)
	case "docx":
		text, err = extractDOCX(data)
	}
	if err != nil {
		return "", err
	}

	if e.limit > 0 {
		e.mu.Lock()
		if _, ok := e.cache[key]; !ok {
			if len(e.order) >= e.limit {
				oldest := e.order[0]
				e.order = e.order[1:]
				delete(e.cache, oldest)
			}
			e.cache[key] = text
			e.order = append(e.order, key)
		}
		e.mu.Unlock()
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return buf.String(), nil
}

// extractDOCX walks word/document.xml, concatenating the text runs of
// each paragraph.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("parse docx: word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer rc.Close()

	var out strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return out.String(), nil
}
