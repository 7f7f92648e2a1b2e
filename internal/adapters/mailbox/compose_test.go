package mailbox

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replyFixture = "From: Jane Smith <jane.smith@greenfield.edu>\r\n" +
	"To: outreach@spsmiles.co.za\r\n" +
	"Subject: Re: Dental Screening Partnership\r\n" +
	"Date: Wed, 12 Mar 2025 08:15:00 +0200\r\n" +
	"Message-ID: <reply-1@greenfield.edu>\r\n" +
	"In-Reply-To: <first@spsmiles.co.za>\r\n" +
	"References: <first@spsmiles.co.za> <second@spsmiles.co.za>\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>We are <b>interested</b>, please send more details.</p>\r\n"

func TestParseMessage(t *testing.T) {
	parsed, err := ParseMessage(strings.NewReader(replyFixture))
	require.NoError(t, err)

	assert.Equal(t, "reply-1@greenfield.edu", parsed.MessageID)
	assert.Equal(t, "first@spsmiles.co.za", parsed.InReplyTo)
	assert.Equal(t, []string{"first@spsmiles.co.za", "second@spsmiles.co.za"}, parsed.References)
	assert.Equal(t, "Jane Smith <jane.smith@greenfield.edu>", parsed.From)
	assert.Equal(t, "Re: Dental Screening Partnership", parsed.Subject)
	assert.Contains(t, parsed.Text, "interested")
	assert.NotContains(t, parsed.Text, "<b>")
	assert.True(t, parsed.Date.Equal(time.Date(2025, 3, 12, 6, 15, 0, 0, time.UTC)))
	assert.Equal(t, "first@spsmiles.co.za", parsed.ThreadID())
}

func TestThreadIDFallbacks(t *testing.T) {
	assert.Equal(t, "parent", (&Parsed{MessageID: "self", InReplyTo: "parent"}).ThreadID())
	assert.Equal(t, "self", (&Parsed{MessageID: "self"}).ThreadID())
}

func TestBuildMessageRoundTrip(t *testing.T) {
	date := time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)
	raw, err := BuildMessage(
		"S&P Smiles Co. <ops@spsmiles.co.za>",
		"jane.smith@greenfield.edu",
		"Re: Dental Screening - Available Meeting Times",
		"Dear Jane,\n\n• Thursday, March 13 at 09:00 AM\n",
		"abc-123@spsmiles.co.za",
		date,
	)
	require.NoError(t, err)

	parsed, err := ParseMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "abc-123@spsmiles.co.za", parsed.MessageID)
	assert.Equal(t, "Re: Dental Screening - Available Meeting Times", parsed.Subject)
	assert.Contains(t, parsed.From, "ops@spsmiles.co.za")
	assert.Contains(t, parsed.Text, "• Thursday, March 13 at 09:00 AM")
	assert.True(t, parsed.Date.Equal(date))
}

func TestBuildMessageRejectsBadAddresses(t *testing.T) {
	_, err := BuildMessage("not an address", "jane@greenfield.edu", "s", "b", "id@x", time.Now())
	assert.Error(t, err)

	_, err = BuildMessage("ops@spsmiles.co.za", "", "s", "b", "id@x", time.Now())
	assert.Error(t, err)
}

func TestMessageIDDomain(t *testing.T) {
	assert.Equal(t, "spsmiles.co.za", messageIDDomain("Team <ops@spsmiles.co.za>"))
	assert.Equal(t, "localhost", messageIDDomain(""))
}
