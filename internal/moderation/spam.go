package moderation

import "strings"

// spamLexicon is the maintained block-list. Matching is plain substring
// search on the cleaned, lower-cased body. Terms and thresholds are a
// product decision; keep them in this one place.
var spamLexicon = []string{
	"free money",
	"click here",
	"buy now",
	"limited time offer",
	"make money fast",
	"earn cash",
	"work from home",
	"casino",
	"online poker",
	"payday loan",
	"cheap loan",
	"debt relief",
	"viagra",
	"cialis",
	"weight loss pill",
	"lottery winner",
	"you have won",
	"crypto giveaway",
}

// repetitionThreshold rejects bodies where a repeated token makes up
// this share of all tokens.
const repetitionThreshold = 0.30

// FindSpamTerm returns the first blocked term contained in the cleaned
// body, or "" when none matches.
func FindSpamTerm(cleaned string) string {
	lowered := strings.ToLower(cleaned)
	for _, term := range spamLexicon {
		if strings.Contains(lowered, term) {
			return term
		}
	}
	return ""
}

// IsRepetitive tokenizes on whitespace and reports whether any single
// token's frequency reaches the repetition threshold. The top token has
// to actually repeat: a lone word in a two-word comment is not spam
// even though its share clears the ratio.
func IsRepetitive(cleaned string) bool {
	tokens := strings.Fields(strings.ToLower(cleaned))
	if len(tokens) == 0 {
		return false
	}

	counts := make(map[string]int, len(tokens))
	top := 0
	for _, tok := range tokens {
		counts[tok]++
		if counts[tok] > top {
			top = counts[tok]
		}
	}
	if top < 2 {
		return false
	}

	return float64(top) >= repetitionThreshold*float64(len(tokens))
}
