// Package parser extracts structured payment transactions from raw
// mobile-money notification messages.
package parser

import (
	"regexp"
	"strings"
)

// TransactionType identifies the class of message a pattern recognizes.
const TypeTransferReceived = "transfer_received"

// ParsedTransaction is the structured form of a recognized notification
// message.
type ParsedTransaction struct {
	Amount          int64
	Currency        string
	SenderNumber    string
	Reference       string
	TransactionType string
	Confidence      float64
}

// patternSpec pairs a compiled pattern with a builder turning its submatches
// into a ParsedTransaction. New message formats are added by appending an
// entry; the Parse contract never changes.
type patternSpec struct {
	re    *regexp.Regexp
	build func(m []string) *ParsedTransaction
}

const (
	amountExpr   = `(\d[\d\s.,]*\d|\d)`
	currencyExpr = `(FCFA|F\s*CFA|XOF|USD|\$)`
	senderExpr   = `(\+?\d[\d\s-]*\d)`
	refExpr      = `([A-Za-z0-9][A-Za-z0-9._\-]*)`
)

var patterns = []patternSpec{
	// "Vous avez recu un transfert de 5000 FCFA du +22370010203. ID: ABC.123-XYZ"
	{
		re: regexp.MustCompile(`(?i)transfert\s+de\s+` + amountExpr + `\s*` + currencyExpr + `\s+(?:du|de)\s+` + senderExpr + `[\s\S]*?ID\s*:\s*` + refExpr),
		build: func(m []string) *ParsedTransaction {
			return buildTransfer(m[1], m[2], m[3], m[4])
		},
	},
	// "You have received a transfer of 5000 FCFA from +22370010203. ID: ABC.123-XYZ"
	{
		re: regexp.MustCompile(`(?i)transfer\s+of\s+` + amountExpr + `\s*` + currencyExpr + `\s+from\s+` + senderExpr + `[\s\S]*?ID\s*:\s*` + refExpr),
		build: func(m []string) *ParsedTransaction {
			return buildTransfer(m[1], m[2], m[3], m[4])
		},
	},
}

// Parse attempts each known pattern against the message. The second return
// is false when no pattern matches; callers treat that as "not actionable",
// not as an error.
func Parse(message string) (*ParsedTransaction, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, false
	}
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(message); m != nil {
			if tx := p.build(m); tx != nil {
				return tx, true
			}
		}
	}
	return nil, false
}

func buildTransfer(amount, currency, sender, reference string) *ParsedTransaction {
	value, ok := parseAmount(amount)
	if !ok {
		return nil
	}
	return &ParsedTransaction{
		Amount:          value,
		Currency:        normalizeCurrency(currency),
		SenderNumber:    strings.ReplaceAll(strings.TrimSpace(sender), " ", ""),
		Reference:       strings.TrimRight(strings.TrimSpace(reference), "."),
		TransactionType: TypeTransferReceived,
		Confidence:      0.9,
	}
}

// parseAmount strips grouping separators (spaces, dots, commas) and keeps
// only digits. Mobile-money notifications carry whole minor-unit amounts.
func parseAmount(raw string) (int64, bool) {
	var value int64
	seen := false
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		seen = true
		value = value*10 + int64(r-'0')
		if value < 0 {
			return 0, false
		}
	}
	return value, seen
}

func normalizeCurrency(raw string) string {
	c := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	switch c {
	case "$":
		return "USD"
	case "FCFA", "XOF", "USD":
		return c
	default:
		return c
	}
}
