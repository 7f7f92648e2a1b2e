package mailbox

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  Query
		error bool
	}{
		{
			name: "default batch query",
			raw:  "is:unread newer_than:2d",
			want: Query{Unread: true, NewerThan: 48 * time.Hour},
		},
		{
			name: "hours",
			raw:  "newer_than:6h",
			want: Query{NewerThan: 6 * time.Hour},
		},
		{
			name: "sender, subject and free text",
			raw:  `from:greenfield.edu subject:"Re: Dental Screening" meeting`,
			want: Query{
				From:    []string{"greenfield.edu"},
				Subject: []string{"Re: Dental Screening"},
				Text:    []string{"meeting"},
			},
		},
		{
			name: "quoted phrase with a colon is free text",
			raw:  `"note: call back"`,
			want: Query{Text: []string{"note: call back"}},
		},
		{
			name: "operators are case insensitive",
			raw:  "IS:UNREAD",
			want: Query{Unread: true},
		},
		{name: "empty", raw: "   ", want: Query{}},
		{name: "unknown operator", raw: "label:work", error: true},
		{name: "unknown flag", raw: "is:starred", error: true},
		{name: "bad age unit", raw: "newer_than:2x", error: true},
		{name: "bad age number", raw: "newer_than:xd", error: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuery(tt.raw)
			if tt.error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryCriteria(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)
	q, err := ParseQuery(`is:unread newer_than:2d from:principal@school.example subject:Partnership dental`)
	require.NoError(t, err)

	criteria := q.Criteria(now)
	assert.Equal(t, []string{imap.SeenFlag}, criteria.WithoutFlags)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), criteria.Since)
	assert.Equal(t, "principal@school.example", criteria.Header.Get("From"))
	assert.Equal(t, "Partnership", criteria.Header.Get("Subject"))
	assert.Equal(t, []string{"dental"}, criteria.Text)

	assert.Equal(t, time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC), q.Cutoff(now))
	assert.True(t, Query{}.Cutoff(now).IsZero())
}
