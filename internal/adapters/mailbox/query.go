package mailbox

import (
	"fmt"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
)

// Query is a parsed Gmail-style mailbox query, e.g.
// `is:unread newer_than:2d from:school.example subject:"Re: Partnership"`
type Query struct {
	Unread    bool
	Read      bool
	NewerThan time.Duration
	From      []string
	Subject   []string
	Text      []string
}

// ParseQuery parses the supported subset of Gmail search operators.
// Terms without an operator are matched against the whole message.
func ParseQuery(raw string) (Query, error) {
	var q Query
	for _, t := range splitTerms(raw) {
		term := t.text
		key, value, hasOp := strings.Cut(term, ":")
		if !hasOp || t.phrase {
			q.Text = append(q.Text, term)
			continue
		}

		switch strings.ToLower(key) {
		case "is":
			switch strings.ToLower(value) {
			case "unread":
				q.Unread = true
			case "read":
				q.Read = true
			default:
				return Query{}, fmt.Errorf("unsupported query term %q", term)
			}
		case "newer_than":
			d, err := parseAge(value)
			if err != nil {
				return Query{}, fmt.Errorf("invalid query term %q: %w", term, err)
			}
			q.NewerThan = d
		case "from":
			q.From = append(q.From, value)
		case "subject":
			q.Subject = append(q.Subject, value)
		default:
			return Query{}, fmt.Errorf("unsupported query term %q", term)
		}
	}
	return q, nil
}

// Criteria converts the query into IMAP SEARCH criteria. IMAP dates have day
// granularity so NewerThan is rounded down to the start of the day; callers
// filter on the exact receive time afterwards.
func (q Query) Criteria(now time.Time) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	if q.Unread {
		criteria.WithoutFlags = append(criteria.WithoutFlags, imap.SeenFlag)
	}
	if q.Read {
		criteria.WithFlags = append(criteria.WithFlags, imap.SeenFlag)
	}
	if q.NewerThan > 0 {
		since := now.Add(-q.NewerThan)
		criteria.Since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, since.Location())
	}
	if len(q.From) > 0 || len(q.Subject) > 0 {
		criteria.Header = make(textproto.MIMEHeader)
		for _, v := range q.From {
			criteria.Header.Add("From", v)
		}
		for _, v := range q.Subject {
			criteria.Header.Add("Subject", v)
		}
	}
	criteria.Text = append(criteria.Text, q.Text...)
	return criteria
}

// Cutoff returns the exact earliest receive time the query accepts, or the
// zero time when the query has no age limit.
func (q Query) Cutoff(now time.Time) time.Time {
	if q.NewerThan <= 0 {
		return time.Time{}
	}
	return now.Add(-q.NewerThan)
}

// parseAge accepts Gmail relative ages: 2d, 12h, 1w, 3m (months), 1y
func parseAge(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("age %q needs a number and a unit", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("age %q must start with a positive number", s)
	}

	day := 24 * time.Hour
	switch strings.ToLower(s[len(s)-1:]) {
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * day, nil
	case "w":
		return time.Duration(n) * 7 * day, nil
	case "m":
		return time.Duration(n) * 30 * day, nil
	case "y":
		return time.Duration(n) * 365 * day, nil
	default:
		return 0, fmt.Errorf("age %q has an unknown unit", s)
	}
}

type queryTerm struct {
	text string
	// phrase is set when the term opened with a quote and is never an operator
	phrase bool
}

// splitTerms splits on whitespace, keeping double-quoted phrases together
// and dropping the quotes.
func splitTerms(raw string) []queryTerm {
	var terms []queryTerm
	var current strings.Builder
	quoted, phrase := false, false

	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, queryTerm{text: current.String(), phrase: phrase})
			current.Reset()
		}
		phrase = false
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if !quoted && current.Len() == 0 {
				phrase = true
			}
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return terms
}
