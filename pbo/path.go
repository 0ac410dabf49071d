// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package pbo

import (
	"fmt"
	"path"
	"strings"
)

// NormalizePath converts an archive/internal path to normalized
// slash-separated lowercase form. It trims spaces, accepts both "/" and
// "\", removes leading "./" and "/", and cleans "." segments. Archive
// lookups are case-insensitive, so normalization lowercases.
func NormalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, `\`, `/`)
	raw = strings.TrimPrefix(raw, "./")
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.ToLower(strings.TrimSuffix(raw, "/"))
}

// NormalizePrefixHeader normalizes PBO "prefix" header value to "\" separators.
func NormalizePrefixHeader(raw string) string {
	normalized := NormalizePath(raw)
	if normalized == "" {
		return ""
	}

	return strings.ReplaceAll(normalized, "/", `\`)
}

// stripPrefix removes the archive prefix and one separator from the head of
// a normalized lookup path. Both arguments must be NormalizePath output.
func stripPrefix(lookup, prefix string) (string, bool) {
	if prefix == "" || lookup == prefix {
		return lookup, false
	}

	if strings.HasPrefix(lookup, prefix+"/") {
		return lookup[len(prefix)+1:], true
	}

	return lookup, false
}

// normalizeArchiveEntryPath converts input path to canonical archive form with "\" separators.
func normalizeArchiveEntryPath(raw string) (string, error) {
	normalizedPath := NormalizePath(raw)
	if normalizedPath == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
	}

	return strings.ReplaceAll(normalizedPath, "/", `\`), nil
}

// normalizeExtractEntryPath normalizes entry path and rejects absolute/traversal inputs.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" {
		return "", ErrInvalidExtractPath
	}
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrInvalidExtractPath
	}

	parts := strings.Split(raw, `/`)
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(cleanParts, `/`), nil
}

// hasWindowsAbsDrivePrefix reports whether path starts with drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	return isASCIIAlpha(path[0]) && path[1] == ':' && path[2] == '/'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
