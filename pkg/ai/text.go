package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxBodyChars = 8000

	NoContentSummary   = "No content to summarize."
	UnavailableSummary = "Summary unavailable."
)

var (
	styleBlock  = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	scriptBlock = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	anyTag      = regexp.MustCompile(`</?[^>]+(>|$)`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// StripHTML drops style and script blocks and all tags, then collapses
// whitespace.
func StripHTML(html string) string {
	s := styleBlock.ReplaceAllString(html, " ")
	s = scriptBlock.ReplaceAllString(s, " ")
	s = anyTag.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// PrepareBody picks the plain text body, or the stripped HTML one, and cuts
// it to MaxBodyChars runes.
func PrepareBody(in EmailContent) string {
	raw := strings.TrimSpace(in.BodyText)
	if raw == "" && in.BodyHTML != "" {
		raw = StripHTML(in.BodyHTML)
	}
	r := []rune(raw)
	if len(r) > MaxBodyChars {
		raw = string(r[:MaxBodyChars])
	}
	return raw
}

// BuildEmailText is the user message every provider receives.
func BuildEmailText(in EmailContent, body string) string {
	return strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", in.FromName, in.FromEmail),
		fmt.Sprintf("Subject: %s", in.Subject),
		fmt.Sprintf("Body: %s", body),
	}, "\n")
}

// Summarize runs svc over the prepared email. An empty body short-circuits
// to NoContentSummary and an empty answer becomes UnavailableSummary; a
// provider error is returned as is.
func Summarize(ctx context.Context, svc SummarizerService, in EmailContent) (Summary, error) {
	body := PrepareBody(in)
	hash := sha256.Sum256([]byte(body))
	out := Summary{BodyHash: hex.EncodeToString(hash[:])}

	if body == "" {
		out.Text = NoContentSummary
		out.Degraded = true
		return out, nil
	}
	if svc == nil {
		return out, fmt.Errorf("no AI provider configured")
	}

	text, err := svc.SummarizeEmail(ctx, BuildEmailText(in, body))
	if err != nil {
		return out, err
	}

	out.Text = strings.TrimSpace(text)
	if out.Text == "" {
		out.Text = UnavailableSummary
		out.Degraded = true
	}
	return out, nil
}
