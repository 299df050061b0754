package backend

import (
	"testing"
	"time"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// parseBatchReply
// ---------------------------------------------------------------------------

const testDelim = "<<<RENPYSEP:12345>>>"

func TestParseBatchReply_DelimiterIndexed(t *testing.T) {
	content := "1|Hola" + testDelim + "2|Adiós"
	got, err := parseBatchReply(content, testDelim, 2)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got[0] != "Hola" || got[1] != "Adiós" {
		t.Errorf("got %v", got)
	}
}

func TestParseBatchReply_ReordersByIndex(t *testing.T) {
	content := "2|second" + testDelim + "1|first"
	got, err := parseBatchReply(content, testDelim, 2)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("got %v", got)
	}
}

func TestParseBatchReply_LeadingTrailingDelimiter(t *testing.T) {
	content := testDelim + "1|a" + testDelim + "2|b" + testDelim
	got, err := parseBatchReply(content, testDelim, 2)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
}

func TestParseBatchReply_CodeFence(t *testing.T) {
	content := "```\n1|a" + testDelim + "2|b\n```"
	got, err := parseBatchReply(content, testDelim, 2)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
}

func TestParseBatchReply_JSONArrayFallback(t *testing.T) {
	content := `Here you go: ["uno", "dos", "tres"]`
	got, err := parseBatchReply(content, testDelim, 3)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got[0] != "uno" || got[2] != "tres" {
		t.Errorf("got %v", got)
	}
}

func TestParseBatchReply_LineCountFallback(t *testing.T) {
	content := "1|alpha\n2|beta"
	got, err := parseBatchReply(content, testDelim, 2)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("got %v", got)
	}
}

func TestParseBatchReply_Unparsable(t *testing.T) {
	if _, err := parseBatchReply("sorry, I cannot help with that", testDelim, 3); err == nil {
		t.Fatal("expected error for unparsable reply")
	}
}

func TestParseIndexedParts_DuplicateIndexKeepsOrder(t *testing.T) {
	got := parseIndexedParts([]string{"1|a", "1|b"}, 2)
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
}

// ---------------------------------------------------------------------------
// parseRetryDelay
// ---------------------------------------------------------------------------

func TestParseRetryDelay_RetryInfo(t *testing.T) {
	body := []byte(`{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"30s"}]}}`)
	got := parseRetryDelay(body)
	want := 35 * time.Second
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseRetryDelay_Default(t *testing.T) {
	for _, body := range []string{"", "not json", `{"error":{}}`} {
		if got := parseRetryDelay([]byte(body)); got != defaultRetryDelay {
			t.Errorf("body %q: got %v, want %v", body, got, defaultRetryDelay)
		}
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// "译" is 3 bytes; a byte-offset cut at 4 would split the second rune.
	got := truncate("译译译", 4)
	if !utf8.ValidString(got) {
		t.Fatalf("got %q, invalid UTF-8", got)
	}
	if got != "译..." {
		t.Errorf("got %q, want %q", got, "译...")
	}
	if got := truncate("short", 300); got != "short" {
		t.Errorf("got %q, want input unchanged", got)
	}
}
