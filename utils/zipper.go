package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ZipEntry is a single file destined for an archive.
type ZipEntry struct {
	Name   string // desired name inside the archive
	Reader io.Reader
}

// CreateArchive writes the given entries into a new ZIP file under saveDir
// and returns its path. Entries are stored uncompressed: photo and video
// payloads do not compress and Store keeps range-served downloads cheap.
// Duplicate names are disambiguated as name_1.ext, name_2.ext and so on.
func CreateArchive(saveDir string, entries []ZipEntry) (string, int64, error) {
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("no files to archive")
	}

	if err := os.MkdirAll(saveDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create archive directory %s: %w", saveDir, err)
	}

	archiveUUID, _ := uuid.NewRandom()
	zipFilename := fmt.Sprintf("archive_%d_%s.zip", time.Now().Unix(), archiveUUID.String()[:8])
	zipFilePath := filepath.Join(saveDir, zipFilename)

	zipFile, err := os.Create(zipFilePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create zip file %s: %w", zipFilePath, err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	usedNames := make(map[string]int)
	for _, entry := range entries {
		name := dedupeArchiveName(entry.Name, usedNames)

		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: time.Now(),
		}
		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			zipWriter.Close()
			os.Remove(zipFilePath)
			return "", 0, fmt.Errorf("failed to create zip entry %s: %w", name, err)
		}
		if _, err := io.Copy(writer, entry.Reader); err != nil {
			zipWriter.Close()
			os.Remove(zipFilePath)
			return "", 0, fmt.Errorf("failed to write zip entry %s: %w", name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		os.Remove(zipFilePath)
		return "", 0, fmt.Errorf("failed to finalize zip %s: %w", zipFilePath, err)
	}

	zipInfo, err := os.Stat(zipFilePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat created zip %s: %w", zipFilePath, err)
	}

	return zipFilePath, zipInfo.Size(), nil
}

// dedupeArchiveName returns a unique archive member name, suffixing
// duplicates before the extension. Generated names are checked against the
// used set too, so a suffixed name can never collide with a literal entry.
func dedupeArchiveName(base string, used map[string]int) string {
	n, seen := used[base]
	if !seen {
		used[base] = 0
		return base
	}

	stem, ext := base, ""
	if dot := strings.LastIndex(base, "."); dot > 0 {
		stem, ext = base[:dot], base[dot:]
	}
	for {
		n++
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, taken := used[candidate]; !taken {
			used[base] = n
			used[candidate] = 0
			return candidate
		}
	}
}

// SanitizeArchiveTitle converts an album title into a safe download filename.
func SanitizeArchiveTitle(title string) string {
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "album"
	}
	return sb.String()
}
