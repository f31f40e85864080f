// Package validation checks topology graphs and their field values before
// any external signer call is made. Subject pattern rules follow the NATS
// subject grammar: dot-separated tokens, "*" matches one token, ">" matches
// the rest of the subject and may only appear last.
package validation

import (
	"fmt"
	"strings"
)

// isAlpha returns true if the byte is an ASCII letter.
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// ValidateEntityName validates an operator, account, user or node name.
// Names must start with a letter and contain only letters, numbers, hyphens
// or underscores.
func ValidateEntityName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !isAlpha(name[0]) {
		return fmt.Errorf("name must start with a letter")
	}
	for _, b := range []byte(name) {
		if !isAlpha(b) && !isNum(b) && b != '-' && b != '_' {
			return fmt.Errorf("names can only contain letters, numbers, hyphens, or underscores")
		}
	}
	return nil
}

// ValidateSubjectPattern validates a NATS subject or subject wildcard.
func ValidateSubjectPattern(subject string) error {
	if subject == "" {
		return fmt.Errorf("subject must not be empty")
	}
	tokens := strings.Split(subject, ".")
	for i, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("subject must not contain empty tokens")
		}
		if tok == ">" {
			if i != len(tokens)-1 {
				return fmt.Errorf("'>' may only appear as the last token")
			}
			continue
		}
		if tok == "*" {
			continue
		}
		for _, b := range []byte(tok) {
			if b == ' ' || b == '*' || b == '>' {
				return fmt.Errorf("token %q contains invalid character", tok)
			}
		}
	}
	return nil
}

// ValidateJetStreamDomain validates a JetStream domain name. Domains are
// single tokens: no dots, spaces or wildcard characters.
func ValidateJetStreamDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain must not be empty")
	}
	for _, b := range []byte(domain) {
		if b == '.' || b == ' ' || b == '*' || b == '>' {
			return fmt.Errorf("domain contains invalid character")
		}
	}
	return nil
}

// ValidatePort validates a TCP listen port.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
