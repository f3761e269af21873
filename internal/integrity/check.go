package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// leakThreshold is applied to the first digest byte (0-255)
const leakThreshold = 200

// LeakSource is a location where a leaked copy was reportedly found
type LeakSource struct {
	Platform   string `json:"platform"`
	URL        string `json:"url"`
	Confidence int    `json:"confidence"`
}

// LeakCheck is the outcome of a leak lookup
type LeakCheck struct {
	Leaked  bool         `json:"leaked"`
	Sources []LeakSource `json:"sources"`
}

// Hash holds the digests of an uploaded file
type Hash struct {
	SHA256 string `json:"sha256"`
}

// Result is the integrity report for one file
type Result struct {
	Hash      Hash      `json:"hash"`
	LeakCheck LeakCheck `json:"leak_check"`
	Size      int64     `json:"size"`
}

// Check streams r through SHA-256 and runs the simulated leak lookup.
// The lookup is a placeholder: a file is "leaked" when the first digest byte
// exceeds leakThreshold.
func Check(r io.Reader) (*Result, error) {
	hasher := sha256.New()
	size, err := io.Copy(hasher, r)
	if err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	digest := hasher.Sum(nil)
	result := &Result{
		Hash:      Hash{SHA256: hex.EncodeToString(digest)},
		LeakCheck: LeakCheck{Sources: []LeakSource{}},
		Size:      size,
	}

	if int(digest[0]) > leakThreshold {
		result.LeakCheck.Leaked = true
		result.LeakCheck.Sources = []LeakSource{
			{Platform: "Telegram", URL: "https://t.me/suspected_channel/12345", Confidence: 92},
			{Platform: "YouTube", URL: "https://youtube.com/watch?v=example", Confidence: 81},
		}
	}

	return result, nil
}
