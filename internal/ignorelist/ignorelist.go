package ignorelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker recognizes senders whose mail must never be dispatched, such as
// our own notification addresses. Entries are either whole domains
// ("spsmiles.co.za" or "@spsmiles.co.za") or single addresses
// ("ops@spsmiles.co.za").
type Checker struct {
	domains   map[string]struct{}
	addresses map[string]struct{}
	logger    *zap.Logger
}

// NewChecker creates a new ignore list checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	c := &Checker{
		domains:   make(map[string]struct{}),
		addresses: make(map[string]struct{}),
		logger:    logger,
	}

	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		domain := strings.TrimPrefix(entry, "@")
		switch {
		case domain == "":
		case strings.Contains(domain, "@"):
			c.addresses[entry] = struct{}{}
		default:
			c.domains[domain] = struct{}{}
		}
	}

	if c.Len() > 0 && logger != nil {
		logger.Info("Initialized sender ignore list",
			zap.Int("domains", len(c.domains)),
			zap.Int("addresses", len(c.addresses)))
	}

	return c
}

// Len returns the number of entries
func (c *Checker) Len() int {
	return len(c.domains) + len(c.addresses)
}

// IsIgnored checks the address and its domain against the list
func (c *Checker) IsIgnored(address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" || c.Len() == 0 {
		return false
	}

	if _, ok := c.addresses[address]; ok {
		c.debug("Address is ignored", address)
		return true
	}

	at := strings.LastIndex(address, "@")
	if at < 0 {
		return false
	}
	if _, ok := c.domains[address[at+1:]]; ok {
		c.debug("Domain is ignored", address)
		return true
	}
	return false
}

func (c *Checker) debug(msg, address string) {
	if c.logger != nil {
		c.logger.Debug(msg, zap.String("email", address))
	}
}
