package models

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
)

// Fingerprint is the md5 hex digest of a text buffer.
func Fingerprint(content string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

// FileFingerprint hashes a file on disk without loading it whole.
func FileFingerprint(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
