package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ZipEntry pairs a file on disk with the name it gets inside the archive
type ZipEntry struct {
	SourcePath  string
	ArchiveName string
}

// CreateProjectZip creates a ZIP archive of a project's uploaded images.
// entries: the files to include, with their archive names.
// archiveSaveDir: the full, absolute path where the ZIP file should be saved.
// Returns: full path of the archive, size in bytes, error.
func CreateProjectZip(projectID int64, entries []ZipEntry, archiveSaveDir string) (string, int64, error) {
	if err := os.MkdirAll(archiveSaveDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create zip save directory %s: %w", archiveSaveDir, err)
	}

	timestamp := time.Now().Unix()
	archiveUUID, _ := uuid.NewRandom()
	zipFilename := fmt.Sprintf("project_%d_%d_%s.zip", projectID, timestamp, archiveUUID.String()[:8])
	zipFilePath := filepath.Join(archiveSaveDir, zipFilename)

	zipFile, err := os.Create(zipFilePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create zip file %s: %w", zipFilePath, err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	foundFiles := false
	for _, entry := range entries {
		fileToZip, err := os.Open(entry.SourcePath)
		if err != nil {
			log.Printf("zipper: Failed to open file %s for zipping: %v. Skipping.", entry.SourcePath, err)
			continue
		}

		writer, err := zipWriter.Create(entry.ArchiveName)
		if err != nil {
			fileToZip.Close()
			log.Printf("zipper: Failed to create entry in zip for %s: %v. Skipping.", entry.ArchiveName, err)
			continue
		}

		_, err = io.Copy(writer, fileToZip)
		fileToZip.Close()
		if err != nil {
			log.Printf("zipper: Failed to write file %s to zip: %v. Skipping.", entry.ArchiveName, err)
			continue
		}
		foundFiles = true
	}

	if !foundFiles {
		zipWriter.Close()
		zipFile.Close()
		os.Remove(zipFilePath)
		return "", 0, fmt.Errorf("no files available to zip for project %d", projectID)
	}

	if err := zipWriter.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to finalize zip writer for %s: %w", zipFilePath, err)
	}

	zipInfo, err := os.Stat(zipFilePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat created zip file %s: %w", zipFilePath, err)
	}

	log.Printf("Successfully created project zip: %s (Size: %d bytes)", zipFilePath, zipInfo.Size())
	return zipFilePath, zipInfo.Size(), nil
}
