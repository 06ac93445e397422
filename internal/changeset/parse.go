package changeset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"tir/internal/errors"
)

// maxLineBytes bounds one path in a newline-delimited list.
const maxLineBytes = 64 * 1024

// ParseList reads a newline-delimited path list, the format of
// `git diff --name-only`. With nullSep the list is NUL-delimited instead
// (`git diff --name-only -z`). A NUL byte in a newline list is malformed.
func ParseList(r io.Reader, nullSep bool) ([]string, error) {
	if nullSep {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.NewTirError(errors.InvalidChangeSet, "failed to read change list", err)
		}
		var out []string
		for _, p := range bytes.Split(data, []byte{0}) {
			if s := strings.TrimRight(string(p), "\r\n"); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}

	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.IndexByte(text, 0) >= 0 {
			return nil, errors.Errorf(errors.InvalidChangeSet, "line %d contains a NUL byte; use --null for NUL-delimited input", line)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewTirError(errors.InvalidChangeSet, fmt.Sprintf("failed to read change list at line %d", line+1), err)
	}
	return out, nil
}

// ParseDiff extracts changed paths from a unified diff. Deleted files
// contribute their old path; renames contribute both paths.
func ParseDiff(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewTirError(errors.InvalidChangeSet, "failed to read diff", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff(data)
	if err != nil {
		return nil, errors.NewTirError(errors.InvalidChangeSet, "failed to parse diff", err)
	}

	var out []string
	for _, fd := range fileDiffs {
		oldPath, newPath := cleanPath(fd.OrigName), cleanPath(fd.NewName)
		if oldPath != "" && oldPath != newPath {
			out = append(out, oldPath)
		}
		if newPath != "" {
			out = append(out, newPath)
		}
	}
	return out, nil
}

// cleanPath removes the a/ or b/ prefix from git diff paths and maps
// /dev/null to "".
func cleanPath(path string) string {
	if path == "" || path == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
