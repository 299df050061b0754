package mask

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Apply
// ---------------------------------------------------------------------------

func TestApplyNumbersTokensInOrder(t *testing.T) {
	masked, tokens := Apply("Hello [name], {i}welcome{/i}!")

	if masked != "Hello <P0>, <P1>welcome<P2>!" {
		t.Errorf("masked = %q", masked)
	}
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3", len(tokens))
	}
	want := []Token{
		{Name: "<P0>", Value: "[name]"},
		{Name: "<P1>", Value: "{i}"},
		{Name: "<P2>", Value: "{/i}"},
	}
	for i, tok := range tokens {
		if tok != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, tok, want[i])
		}
	}
}

func TestApplyConvertsNewlines(t *testing.T) {
	masked, tokens := Apply("line one\nline two")

	if masked != "line one<NL>line two" {
		t.Errorf("masked = %q", masked)
	}
	if len(tokens) != 0 {
		t.Errorf("got %d tokens, want 0", len(tokens))
	}
}

func TestApplyLeavesMalformedSyntaxAlone(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unclosed bracket", "score: [points"},
		{"stray close brace", "oops} here"},
		{"lone open brace at end", "wait {"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked, tokens := Apply(tt.in)
			if masked != tt.in {
				t.Errorf("masked = %q, want %q", masked, tt.in)
			}
			if len(tokens) != 0 {
				t.Errorf("got %d tokens, want 0", len(tokens))
			}
		})
	}
}

func TestApplyNestedBracesMatchesInnermostOnly(t *testing.T) {
	masked, tokens := Apply("{outer {inner} tail}")

	if masked != "{outer <P0> tail}" {
		t.Errorf("masked = %q", masked)
	}
	if len(tokens) != 1 || tokens[0].Value != "{inner}" {
		t.Errorf("tokens = %+v", tokens)
	}
}

// ---------------------------------------------------------------------------
// Restore
// ---------------------------------------------------------------------------

func TestRestoreRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"plain", "Just some dialogue."},
		{"variable", "Hello [name]!"},
		{"tags", "{b}bold{/b} and {i}italic{/i}"},
		{"mixed", "[hero] says: {color=#fff}hi{/color}"},
		{"newline", "first\nsecond\nthird"},
		{"tag with newline", "{i}one{/i}\n[two]"},
		{"repeated placeholder", "[gold] and more [gold]"},
		{"brace with brackets inside", "{image=[icon]}"},
		{"unicode", "「[名前]」は{i}強い{/i}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked, tokens := Apply(tt.in)
			got := Restore(masked, tokens)
			if got != tt.in {
				t.Errorf("round trip = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestRestoreKeepsUnknownText(t *testing.T) {
	// A backend may translate around the tokens; only the tokens and the
	// newline marker are rewritten.
	_, tokens := Apply("Hello [name]!")
	got := Restore("Bonjour <P0> !", tokens)
	if got != "Bonjour [name] !" {
		t.Errorf("got %q", got)
	}
}
