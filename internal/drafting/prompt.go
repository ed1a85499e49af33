// Package drafting holds the provider-independent parts of reply drafting:
// the prompt, and decorators that wrap any core.Drafter.
package drafting

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mikey/email-concierge/internal/core"
)

// DraftPrefix starts every generated draft
const DraftPrefix = "Draft reply (AI):"

// SystemInstructions is sent to every provider as the system prompt
const SystemInstructions = `You are my AI email concierge.

Draft reply requirements:
- Tone: warm, calm, professional
- Concise: 2-5 sentences unless necessary
- Avoid over-explaining
- If scheduling is implied, propose 1-2 concrete options
- Do not invent facts
- Do not send the email; output draft text only
- Prefix with: "` + DraftPrefix + `"
`

const userInputFormat = `Email to respond to:
Sender: %s
Subject: %s
Body:
%s

User notes (optional):
%s
`

// FormatUserInput renders the user message for a draft request. body is
// passed separately so providers can truncate it first.
func FormatUserInput(req core.DraftRequest, body string) string {
	return fmt.Sprintf(userInputFormat, req.Sender, req.Subject, body, req.UserNotes)
}

// CacheKey identifies a draft request; identical requests share a key
func CacheKey(req core.DraftRequest) string {
	h := sha256.New()
	for _, field := range []string{req.Sender, req.Subject, req.Body, req.UserNotes} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
