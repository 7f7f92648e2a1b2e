package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	janeFrom    = "Jane Doe <jane.doe@greenwood.edu.za>"
	janeAddress = "jane.doe@greenwood.edu.za"
)

func TestNewDispatcherRegistersEveryIntent(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

	for _, intent := range core.Intents {
		outcome := h.dispatcher.Dispatch(ctx, reply("m-"+string(intent), janeFrom, "Re: Partnership", "..."),
			classified(intent), core.ParseSender(janeFrom))
		assert.NotEmpty(t, outcome.Tag, intent)
	}
}

func TestDispatchUnsubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("suppresses, confirms and updates the ledger", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Please remove me"),
			classified(core.IntentUnsubscribe), core.ParseSender(janeFrom))

		assert.Equal(t, core.OutcomeProcessedUnsubscribe, outcome.Tag)
		assert.False(t, outcome.Failed())

		suppressed, err := h.store.IsSuppressed(ctx, janeAddress)
		require.NoError(t, err)
		assert.True(t, suppressed)

		mails := h.mailer.to(janeAddress)
		require.Len(t, mails, 1)
		assert.Equal(t, "Unsubscribe Confirmation - S&P Smiles Co.", mails[0].Subject)
		assert.True(t, strings.HasPrefix(mails[0].Body, "Dear Jane Doe,"))

		assert.Equal(t, core.StatusUnsubscribed, h.contactStatus(t, janeAddress))
	})

	t.Run("suppression survives a failed confirmation", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")
		h.mailer.failAll = true

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "unsubscribe"),
			classified(core.IntentUnsubscribe), core.ParseSender(janeFrom))

		assert.Equal(t, "error_unsubscribe", outcome.Tag)
		assert.ErrorIs(t, outcome.Err, errSMTPDown)

		suppressed, err := h.store.IsSuppressed(ctx, janeAddress)
		require.NoError(t, err)
		assert.True(t, suppressed)
		assert.Equal(t, core.StatusUnsubscribed, h.contactStatus(t, janeAddress))
	})

	t.Run("already suppressed sender is confirmed again", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		_, err := h.store.AddSuppressed(ctx, core.SuppressionEntry{Email: janeAddress, Active: true})
		require.NoError(t, err)

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "stop"),
			classified(core.IntentUnsubscribe), core.ParseSender(janeFrom))

		assert.Equal(t, core.OutcomeProcessedUnsubscribe, outcome.Tag)
		assert.Len(t, h.mailer.to(janeAddress), 1)
	})
}

func TestDispatchInterested(t *testing.T) {
	ctx := context.Background()

	t.Run("AI follow-up, activity note and colleague notification", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "Greenwood Primary")
		})).Return("Dear Jane Doe,\n\nThank you for your interest.", nil)

		h := newHarness(t, harnessOptions{generator: gen})
		h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Tell me more"),
			classified(core.IntentInterested), core.ParseSender(janeFrom))

		assert.Equal(t, core.OutcomeSentInterestedFollowUp, outcome.Tag)
		gen.AssertExpectations(t)

		mails := h.mailer.to(janeAddress)
		require.Len(t, mails, 1)
		assert.Equal(t, "Re: Partnership - Additional Information", mails[0].Subject)
		assert.Equal(t, "Dear Jane Doe,\n\nThank you for your interest.", mails[0].Body)

		notes := h.mailer.to(testProfile.ColleagueEmail)
		require.Len(t, notes, 1)
		assert.Equal(t, "Interested Response: Greenwood Primary", notes[0].Subject)

		activities := h.store.Activities()
		require.Len(t, activities, 1)
		assert.Equal(t, "Auto Follow-up", activities[0].ActivityType)
		assert.Equal(t, "High", activities[0].Priority)
		assert.Equal(t, "Sent interested follow-up. AI confidence: 0.90", activities[0].Notes)

		assert.Equal(t, core.StatusInterested, h.contactStatus(t, janeAddress))
	})

	t.Run("template fallback when generation fails", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exhausted"))

		h := newHarness(t, harnessOptions{generator: gen})
		h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Tell me more"),
			classified(core.IntentInterested), core.ParseSender(janeFrom))

		assert.Equal(t, core.OutcomeSentInterestedFollowUp, outcome.Tag)
		mails := h.mailer.to(janeAddress)
		require.Len(t, mails, 1)
		assert.Equal(t, "Re: Partnership", mails[0].Subject)
		assert.Contains(t, mails[0].Body, "15-minute call")
	})

	t.Run("unknown contact still gets a reply", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Tell me more"),
			classified(core.IntentInterested), core.ParseSender(janeFrom))

		assert.Equal(t, core.OutcomeSentInterestedFollowUp, outcome.Tag)
		notes := h.mailer.to(testProfile.ColleagueEmail)
		require.Len(t, notes, 1)
		assert.Equal(t, "Interested Response: "+core.UnknownSchool, notes[0].Subject)
	})

	t.Run("failed notification is not fatal", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")
		h.mailer.failTo[testProfile.ColleagueEmail] = true

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Tell me more"),
			classified(core.IntentInterested), core.ParseSender(janeFrom))

		assert.Equal(t, core.OutcomeSentInterestedFollowUp, outcome.Tag)
	})

	t.Run("rate limited notification fails the branch", func(t *testing.T) {
		h := newHarness(t, harnessOptions{limit: 1})
		h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Tell me more"),
			classified(core.IntentInterested), core.ParseSender(janeFrom))

		assert.Equal(t, "error_interested", outcome.Tag)
		assert.ErrorIs(t, outcome.Err, core.ErrRateLimitExceeded)
		assert.Len(t, h.mailer.to(janeAddress), 1)
	})
}

func TestDispatchScheduling(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

	outcome := h.dispatcher.Dispatch(context.Background(), reply("m1", janeFrom, "Re: Partnership", "When can we meet?"),
		classified(core.IntentScheduling), core.ParseSender(janeFrom))

	assert.Equal(t, core.OutcomeSentSchedulingOptions, outcome.Tag)

	mails := h.mailer.to(janeAddress)
	require.Len(t, mails, 1)
	assert.Equal(t, "Re: Partnership - Available Meeting Times", mails[0].Subject)
	assert.Contains(t, mails[0].Body, "• Thursday, March 13 at 09:00 AM")
	assert.Contains(t, mails[0].Body, "for Greenwood Primary.")
	assert.Equal(t, 8, strings.Count(mails[0].Body, " at "))

	notes := h.mailer.to(testProfile.OperatorEmail)
	require.Len(t, notes, 1)
	assert.Equal(t, "Meeting Request: Greenwood Primary", notes[0].Subject)

	assert.Equal(t, core.StatusMeetingRequested, h.contactStatus(t, janeAddress))
}

func TestDispatchNeedInfo(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

	outcome := h.dispatcher.Dispatch(context.Background(), reply("m1", janeFrom, "Re: Partnership", "How much does it cost?"),
		classified(core.IntentNeedInfo), core.ParseSender(janeFrom))

	assert.Equal(t, core.OutcomeSentInformation, outcome.Tag)
	mails := h.mailer.to(janeAddress)
	require.Len(t, mails, 1)
	assert.Equal(t, "Re: Partnership - Detailed Information", mails[0].Subject)
	assert.Equal(t, core.StatusInformationRequested, h.contactStatus(t, janeAddress))
}

func TestDispatchNotInterested(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

	outcome := h.dispatcher.Dispatch(context.Background(), reply("m1", janeFrom, "Re: Partnership", "No thank you"),
		classified(core.IntentNotInterested), core.ParseSender(janeFrom))

	assert.Equal(t, core.OutcomeSentAcknowledgment, outcome.Tag)
	mails := h.mailer.to(janeAddress)
	require.Len(t, mails, 1)
	assert.Equal(t, "Re: Partnership - Thank You", mails[0].Subject)
	assert.Equal(t, core.StatusNotInterested, h.contactStatus(t, janeAddress))
}

func TestDispatchUnclear(t *testing.T) {
	ctx := context.Background()

	t.Run("flags for review", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Hmm."),
			classified(core.IntentUnclear), core.ParseSender(janeFrom))

		assert.Equal(t, core.OutcomeFlaggedForReview, outcome.Tag)
		assert.Empty(t, h.mailer.to(janeAddress))

		notes := h.mailer.to(testProfile.OperatorEmail)
		require.Len(t, notes, 1)
		assert.Equal(t, "Manual Review Needed: Jane Doe", notes[0].Subject)
		assert.Contains(t, notes[0].Body, "Hmm.")
		assert.Equal(t, core.StatusNeedsReview, h.contactStatus(t, janeAddress))
	})

	t.Run("notification failure fails the branch", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		h.mailer.failAll = true

		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "Hmm."),
			classified(core.IntentUnclear), core.ParseSender(janeFrom))

		assert.Equal(t, "error_unclear", outcome.Tag)
		assert.ErrorIs(t, outcome.Err, errSMTPDown)
	})
}

func TestDispatchSuppressedSender(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{})
	h.seedContact(t, janeAddress, "Jane Doe", "Greenwood Primary")
	_, err := h.store.AddSuppressed(ctx, core.SuppressionEntry{Email: janeAddress, Active: true})
	require.NoError(t, err)

	for _, intent := range []core.Intent{core.IntentInterested, core.IntentScheduling, core.IntentNeedInfo, core.IntentNotInterested} {
		outcome := h.dispatcher.Dispatch(ctx, reply("m1", janeFrom, "Re: Partnership", "..."),
			classified(intent), core.ParseSender(janeFrom))
		assert.Equal(t, core.OutcomeSkippedSuppressed, outcome.Tag, intent)
	}
	assert.Empty(t, h.mailer.sent)
}

func TestDispatchLedgerFailure(t *testing.T) {
	ledgerErr := errors.New("database is locked")
	base := newHarness(t, harnessOptions{})
	h := newHarness(t, harnessOptions{ledger: &brokenLedger{MemoryStore: base.store, findErr: ledgerErr}})

	outcome := h.dispatcher.Dispatch(context.Background(), reply("m1", janeFrom, "Re: Partnership", "No thank you"),
		classified(core.IntentNotInterested), core.ParseSender(janeFrom))

	assert.Equal(t, "error_not_interested", outcome.Tag)
	assert.ErrorIs(t, outcome.Err, ledgerErr)
	assert.Empty(t, h.mailer.sent)
}

func TestDailyLimit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOptions{limit: 2})

	senders := []string{"a@school.org", "b@school.org", "c@school.org"}
	var outcomes []core.DispatchOutcome
	for i, addr := range senders {
		outcomes = append(outcomes, h.dispatcher.Dispatch(ctx,
			reply(fmt.Sprintf("m%d", i), addr, "Re: Partnership", "No thank you"),
			classified(core.IntentNotInterested), core.ParseSender(addr)))
	}

	assert.Equal(t, core.OutcomeSentAcknowledgment, outcomes[0].Tag)
	assert.Equal(t, core.OutcomeSentAcknowledgment, outcomes[1].Tag)
	assert.Equal(t, "error_not_interested", outcomes[2].Tag)
	assert.ErrorIs(t, outcomes[2].Err, core.ErrRateLimitExceeded)
	assert.Len(t, h.mailer.sent, 2)
}
