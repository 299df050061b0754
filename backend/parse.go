package backend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Tolerant response parsing
//
// Chat models are asked for "index|translation" items joined by a per-call
// delimiter, but in practice wrap the answer in code fences, return a JSON
// array instead, drop the delimiter, or renumber items. parseBatchReply
// works through the formats in order of reliability and only fails when no
// reading yields the expected count.
// ---------------------------------------------------------------------------

var markdownFence = regexp.MustCompile("(?s)```(?:[a-zA-Z]*\\n)?(.*?)```")

var indexedLine = regexp.MustCompile(`(?s)^\s*(\d+)\s*\|(.*)$`)

// stripFences removes a surrounding markdown code fence when present.
func stripFences(content string) string {
	if m := markdownFence.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

// parseBatchReply extracts want translations from a model reply produced
// under the delimiter protocol.
func parseBatchReply(content, delim string, want int) ([]string, error) {
	content = stripFences(content)

	if strings.Contains(content, delim) {
		parts := normalizeParts(strings.Split(content, delim), want)
		if len(parts) == want {
			return parseIndexedParts(parts, want), nil
		}
	}

	// JSON array fallback.
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		var arr []string
		if err := json.Unmarshal([]byte(content[start:end+1]), &arr); err == nil && len(arr) == want {
			return arr, nil
		}
	}

	// Line-count fallback.
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == want {
		return parseIndexedParts(lines, want), nil
	}

	return nil, fmt.Errorf("unparsable reply: want %d items, got %q", want, truncate(content, 300))
}

// normalizeParts trims the empty fragments a leading or trailing delimiter
// produces.
func normalizeParts(parts []string, want int) []string {
	if len(parts) == want {
		return parts
	}
	if len(parts) == want+1 && strings.TrimSpace(parts[0]) == "" {
		return parts[1:]
	}
	if len(parts) == want+1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		return parts[:len(parts)-1]
	}
	if len(parts) == want+2 && strings.TrimSpace(parts[0]) == "" && strings.TrimSpace(parts[len(parts)-1]) == "" {
		return parts[1 : len(parts)-1]
	}
	return parts
}

// parseIndexedParts strips "index|" prefixes. When every part carries a
// distinct in-range index the items are reordered by it; otherwise the
// prefixes are dropped and input order kept.
func parseIndexedParts(parts []string, want int) []string {
	indexed := make([]string, want)
	seen := make(map[int]bool, want)
	allIndexed := true
	for _, part := range parts {
		m := indexedLine.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			allIndexed = false
			break
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > want || seen[idx] {
			allIndexed = false
			break
		}
		indexed[idx-1] = m[2]
		seen[idx] = true
	}
	if allIndexed && len(seen) == want {
		return indexed
	}

	out := make([]string, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if m := indexedLine.FindStringSubmatch(part); m != nil {
			out[i] = m[2]
		} else {
			out[i] = part
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Retry delay extraction
// ---------------------------------------------------------------------------

// defaultRetryDelay pads the usual 60 second rate-limit window.
const defaultRetryDelay = 65 * time.Second

// parseRetryDelay extracts the wait a 429 body asks for. Understands
// Google-style RetryInfo details ("retryDelay": "30s"); anything else
// yields the default.
func parseRetryDelay(body []byte) time.Duration {
	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultRetryDelay
	}
	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}
	return defaultRetryDelay
}

// truncate shortens s to at most n bytes for log output, backing up to a
// rune boundary so the cut never produces invalid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
