package practice

import (
	"regexp"
	"strings"
)

var (
	stageDirectionRe = regexp.MustCompile(`[\[(][^\])]*[\])]`)
	speakerLabelRe   = regexp.MustCompile(`^[\p{L} .]{1,24}:\s+`)
	markdownRe       = regexp.MustCompile("[*_`#~]")
	multiSpaceRe     = regexp.MustCompile(`\s{2,}`)
)

// CleanForSpeech strips text artifacts that read badly aloud: markdown
// punctuation, bracketed or parenthesized stage directions, and a leading
// speaker label ("Herr Müller: ..."). Applying it to already-clean text
// returns the text unchanged.
func CleanForSpeech(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	s = stageDirectionRe.ReplaceAllString(s, " ")
	s = markdownRe.ReplaceAllString(s, "")

	// A speaker label is only stripped at the start of the line, and only
	// when something follows it.
	if loc := speakerLabelRe.FindStringIndex(s); loc != nil && loc[1] < len(s) {
		s = s[loc[1]:]
	}

	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
