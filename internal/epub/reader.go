// Package epub reads EPUB containers: OCF ZIP layout, OPF package
// documents, and NCX / EPUB3 nav tables of contents.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader provides access to the files of an in-memory EPUB container.
type Reader struct {
	files   map[string]*zip.File
	opfPath string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

var (
	ErrNotZip            = errors.New("not a ZIP archive")
	ErrInvalidMimetype   = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeNotFound  = errors.New("mimetype file not found")
	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound   = errors.New("OPF path not found in container.xml")
)

// NewReader opens an EPUB container from bytes and validates its structure.
func NewReader(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotZip, err)
	}

	r := &Reader{files: make(map[string]*zip.File)}
	for _, f := range zr.File {
		r.files[normalizePath(f.Name)] = f
	}

	if err := r.validateMimetype(); err != nil {
		return nil, err
	}
	if err := r.parseContainer(); err != nil {
		return nil, err
	}
	return r, nil
}

// OPFPath returns the container-relative path of the package document.
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Has reports whether the container holds a file at path.
func (r *Reader) Has(path string) bool {
	_, ok := r.files[normalizePath(path)]
	return ok
}

// ReadFile reads the contents of a file from the container.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// validateMimetype checks that the mimetype file exists and is valid.
// Compression of the mimetype entry is tolerated; plenty of EPUBs in the
// wild deflate it.
func (r *Reader) validateMimetype() error {
	if _, ok := r.files["mimetype"]; !ok {
		return ErrMimetypeNotFound
	}

	content, err := r.ReadFile("mimetype")
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}

	if strings.TrimSpace(string(content)) != "application/epub+zip" {
		return ErrInvalidMimetype
	}
	return nil
}

// parseContainer parses container.xml to extract the OPF path.
func (r *Reader) parseContainer() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			r.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = normalizePath(c.Rootfiles.Rootfile[0].FullPath)
		return nil
	}
	return ErrOPFPathNotFound
}

// normalizePath normalizes file paths (removes ./ prefix).
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
