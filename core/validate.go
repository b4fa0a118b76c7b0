package core

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/archflow/schema"
)

// sniffLen is how many leading bytes are used to detect the media type.
const sniffLen = 512

// ValidateArchive accepts an archive whose declared media type is application/zip
// or whose name ends with .zip in any case. It never touches the network.
func ValidateArchive(archive schema.Archive) error {
	if archive.MediaType == schema.ZipMediaType {
		return nil
	}
	if strings.HasSuffix(strings.ToLower(archive.Name), schema.ZipExtension) {
		return nil
	}
	return &schema.ValidationError{Name: archive.Name, Reason: schema.ArchiveRejectedReason}
}

// ArchiveFromFile describes a local file as an upload candidate.
// The media type is sniffed from the file content.
func ArchiveFromFile(path string) (schema.Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return schema.Archive{}, fmt.Errorf("cannot access archive: %w", err)
	}
	if !info.Mode().IsRegular() {
		return schema.Archive{}, fmt.Errorf("archive %s is not a regular file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return schema.Archive{}, fmt.Errorf("cannot open archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return schema.Archive{}, fmt.Errorf("cannot read archive: %w", err)
	}

	return schema.Archive{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: http.DetectContentType(head[:n]),
		Path:      path,
	}, nil
}
