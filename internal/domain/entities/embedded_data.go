package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

const (
	// PendingChangesMarker tags the pending change set stored on tracking issues.
	PendingChangesMarker = "updatebot-pending-changes"
	// CommandMarker tags the replayable command stored in pull request comments.
	CommandMarker = "updatebot-command"
)

var errEmbeddedDataNotFound = errors.New("embedded data not found")

// EmbedData appends data as indented JSON inside HTML comments delimited by the marker,
// so the payload survives on the forge without being rendered.
func EmbedData(marker, body string, data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal embedded data: %w", err)
	}
	embedded := fmt.Sprintf("\n\n<!--%s-->\n<!--\n%s\n-->\n<!--/%s-->", marker, string(jsonData), marker)
	return body + embedded, nil
}

// ExtractData decodes the block written by EmbedData for the given marker.
func ExtractData(marker, body string, out any) error {
	pattern := fmt.Sprintf(
		`(?s)<!--%s-->\s*<!--\s*(.+?)\s*-->\s*<!--/%s-->`,
		regexp.QuoteMeta(marker), regexp.QuoteMeta(marker),
	)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("failed to compile marker pattern: %w", err)
	}

	matches := re.FindStringSubmatch(body)
	if len(matches) < 2 {
		return errEmbeddedDataNotFound
	}
	if err = json.Unmarshal([]byte(matches[1]), out); err != nil {
		return fmt.Errorf("failed to unmarshal embedded data: %w", err)
	}
	return nil
}

// IsEmbeddedDataNotFound reports whether ExtractData failed because no block was present.
func IsEmbeddedDataNotFound(err error) bool {
	return errors.Is(err, errEmbeddedDataNotFound)
}
