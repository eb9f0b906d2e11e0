package util

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ParseInt parses s, falling back to defaultValue on failure
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// IsImageFile reports whether filename has a recognized image extension
func IsImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// IsVideoFile reports whether filename has a recognized video extension
func IsVideoFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".mov", ".webm", ".mkv":
		return true
	}
	return false
}
