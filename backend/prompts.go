package backend

import "strings"

// defaultSystemPrompt instructs chat-style backends on the batching
// protocol: numbered index|text items joined by a per-call delimiter,
// placeholder tokens left untouched. {{targetLang}} is substituted with
// the target language's English name before use.
const defaultSystemPrompt = `You are a translation engine for video game text. Translate each input to {{targetLang}}.
Keep placeholder tokens like <P0>, <P1> exactly as they appear.
If you see <NL>, keep it as <NL>.
There are N inputs; output exactly N items in the same order.
Each item must keep its original index prefix in the format: index|translation.
Return ONLY the items joined by the exact delimiter below, with no extra text.`

// strictSuffix tightens the protocol on a reparse retry.
const strictSuffix = ` If you are unsure, output the source text unchanged for that item.`

// ResolvePrompt returns the system prompt for a target language, using the
// override when non-empty. Both paths substitute {{targetLang}}.
func ResolvePrompt(override, targetLangName string) string {
	prompt := override
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return strings.ReplaceAll(prompt, "{{targetLang}}", targetLangName)
}
