package core

import (
	"regexp"
	"strings"
)

// DefaultSenderName is used when a sender string carries no display name
const DefaultSenderName = "Principal"

var senderAddressPattern = regexp.MustCompile(`<(.+?)>|([^\s<>]+@[^\s<>]+\.[^\s<>]+)`)

// ParseSender derives the sender identity from a From header value such as
// `"Jane Doe" <jane@school.org>` or a bare address. It never fails: when no
// address can be found the trimmed raw string is used.
func ParseSender(from string) SenderIdentity {
	return SenderIdentity{
		Address: extractAddress(from),
		Name:    extractName(from),
	}
}

func extractAddress(from string) string {
	match := senderAddressPattern.FindStringSubmatch(from)
	if match == nil {
		return strings.ToLower(strings.TrimSpace(from))
	}
	address := match[1]
	if address == "" {
		address = match[2]
	}
	return strings.ToLower(strings.TrimSpace(address))
}

func extractName(from string) string {
	idx := strings.Index(from, "<")
	if idx < 0 {
		return DefaultSenderName
	}
	name := strings.Trim(strings.TrimSpace(from[:idx]), `"'`)
	if name == "" {
		return DefaultSenderName
	}
	return name
}

// Domain returns the lower-cased domain part of the address, or "" if it has none
func (s SenderIdentity) Domain() string {
	at := strings.LastIndex(s.Address, "@")
	if at < 0 || at == len(s.Address)-1 {
		return ""
	}
	return s.Address[at+1:]
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
