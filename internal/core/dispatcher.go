package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Outcome tags
const (
	OutcomeSentInterestedFollowUp = "sent_interested_followup"
	OutcomeSentSchedulingOptions  = "sent_scheduling_options"
	OutcomeProcessedUnsubscribe   = "processed_unsubscribe"
	OutcomeSentInformation        = "sent_information"
	OutcomeSentAcknowledgment     = "sent_acknowledgment"
	OutcomeFlaggedForReview       = "flagged_for_review"
	OutcomeSkippedSuppressed      = "skipped_suppressed"

	errorOutcomePrefix = "error_"
)

// UnknownSchool is used when the sender cannot be tied to a school
const UnknownSchool = "Unknown School"

// DispatchOutcome is the result of running a workflow for one message
type DispatchOutcome struct {
	Tag string
	Err error
}

// Failed reports whether the workflow ended in an error
func (o DispatchOutcome) Failed() bool {
	return o.Err != nil
}

func (o DispatchOutcome) String() string {
	if o.Err != nil {
		return o.Tag + ": " + o.Err.Error()
	}
	return o.Tag
}

// workflow is the action sequence for one intent
type workflow struct {
	branch  string
	success string
	run     func(ctx context.Context, dc *dispatchContext) error
}

// dispatchContext carries per-message state through a workflow. Ledger
// lookups are cached so each workflow resolves the contact at most once.
type dispatchContext struct {
	msg            *InboundMessage
	classification *Classification
	identity       SenderIdentity

	contactLoaded bool
	contact       *Contact
	contactErr    error
	school        string
}

// DispatcherDeps are the collaborators of the dispatcher
type DispatcherDeps struct {
	Mailer       Mailer
	Suppressions SuppressionRegistry
	Ledger       ContactLedger
	Activity     ActivityLog
	Composer     *Composer
}

// Dispatcher executes the follow-up workflow for a classified message
type Dispatcher struct {
	mailer       Mailer
	suppressions SuppressionRegistry
	ledger       ContactLedger
	activity     ActivityLog
	composer     *Composer
	profile      Profile
	slotDays     int
	now          func() time.Time
	logger       *zap.Logger
	workflows    map[Intent]workflow
}

// NewDispatcher creates a dispatcher. It fails if any intent lacks a workflow.
func NewDispatcher(deps DispatcherDeps, profile Profile, slotDays int, now func() time.Time, logger *zap.Logger) (*Dispatcher, error) {
	if now == nil {
		now = time.Now
	}

	d := &Dispatcher{
		mailer:       deps.Mailer,
		suppressions: deps.Suppressions,
		ledger:       deps.Ledger,
		activity:     deps.Activity,
		composer:     deps.Composer,
		profile:      profile,
		slotDays:     slotDays,
		now:          now,
		logger:       logger,
	}

	d.workflows = map[Intent]workflow{
		IntentUnsubscribe:   {"unsubscribe", OutcomeProcessedUnsubscribe, d.handleUnsubscribe},
		IntentInterested:    {"interested", OutcomeSentInterestedFollowUp, d.handleInterested},
		IntentScheduling:    {"scheduling", OutcomeSentSchedulingOptions, d.handleScheduling},
		IntentNeedInfo:      {"info", OutcomeSentInformation, d.handleInformation},
		IntentNotInterested: {"not_interested", OutcomeSentAcknowledgment, d.handleNotInterested},
		IntentUnclear:       {"unclear", OutcomeFlaggedForReview, d.handleUnclear},
	}

	for _, intent := range Intents {
		if _, ok := d.workflows[intent]; !ok {
			return nil, fmt.Errorf("no workflow registered for intent %q", intent)
		}
	}

	return d, nil
}

// Dispatch runs the workflow for the classified intent. It never fails;
// collaborator errors are reported through the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *InboundMessage, classification *Classification, identity SenderIdentity) DispatchOutcome {
	wf, ok := d.workflows[classification.Intent]
	if !ok {
		wf = d.workflows[IntentUnclear]
	}

	dc := &dispatchContext{
		msg:            msg,
		classification: classification,
		identity:       identity,
	}

	if classification.Intent != IntentUnsubscribe {
		suppressed, err := d.suppressions.IsSuppressed(ctx, identity.Address)
		if err != nil {
			return d.fail(wf, dc, fmt.Errorf("check suppression: %w", err))
		}
		if suppressed {
			d.logger.Info("Sender is on the do-not-contact list, no action taken",
				zap.String("message_id", msg.ID),
				zap.String("sender", identity.Address),
				zap.String("intent", string(classification.Intent)))
			return DispatchOutcome{Tag: OutcomeSkippedSuppressed}
		}
	}

	if err := wf.run(ctx, dc); err != nil {
		return d.fail(wf, dc, err)
	}

	d.logger.Info("Workflow completed",
		zap.String("message_id", msg.ID),
		zap.String("sender", identity.Address),
		zap.String("intent", string(classification.Intent)),
		zap.String("outcome", wf.success))

	return DispatchOutcome{Tag: wf.success}
}

func (d *Dispatcher) fail(wf workflow, dc *dispatchContext, err error) DispatchOutcome {
	tag := errorOutcomePrefix + wf.branch
	d.logger.Error("Workflow failed",
		zap.String("message_id", dc.msg.ID),
		zap.String("sender", dc.identity.Address),
		zap.String("outcome", tag),
		zap.Error(err))
	return DispatchOutcome{Tag: tag, Err: err}
}

func (d *Dispatcher) handleUnsubscribe(ctx context.Context, dc *dispatchContext) error {
	entry := SuppressionEntry{
		Email:       dc.identity.Address,
		ContactName: dc.identity.Name,
		SchoolName:  d.schoolName(ctx, dc),
		Reason:      "Email unsubscribe request",
		AddedAt:     d.now(),
		AddedBy:     "reply-engine",
		Active:      true,
	}

	status, err := d.suppressions.AddSuppressed(ctx, entry)
	if err != nil {
		return fmt.Errorf("add suppression: %w", err)
	}
	if status == SuppressionExists {
		d.logger.Info("Sender already on the do-not-contact list",
			zap.String("sender", dc.identity.Address))
	}

	// The suppression stays in place whatever happens below
	var errs []error

	draft := d.profile.UnsubscribeConfirmation(dc.identity.Name)
	if _, err := d.mailer.SendMessage(ctx, dc.identity.Address, draft.Subject, draft.Body); err != nil {
		errs = append(errs, fmt.Errorf("send confirmation: %w", err))
	}

	if err := d.updateStatus(ctx, dc, StatusUnsubscribed, "Unsubscribe request processed"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) handleInterested(ctx context.Context, dc *dispatchContext) error {
	if err := d.updateStatus(ctx, dc, StatusInterested, "Positive response received"); err != nil {
		return err
	}

	school := d.schoolName(ctx, dc)
	draft, err := d.composer.FollowUp(ctx, dc.msg, dc.identity.Name, school)
	if err != nil {
		d.logger.Warn("Using template follow-up", zap.String("message_id", dc.msg.ID), zap.Error(err))
		draft = d.profile.InterestedFollowUp(dc.identity.Name, dc.msg.Subject)
	}

	if _, err := d.mailer.SendMessage(ctx, dc.identity.Address, draft.Subject, draft.Body); err != nil {
		return fmt.Errorf("send follow-up: %w", err)
	}

	note := ActivityNote{
		OccurredAt:   d.now(),
		ActivityType: "Auto Follow-up",
		Contact:      dc.identity.Address,
		Status:       "Completed",
		Priority:     "High",
		Notes:        fmt.Sprintf("Sent interested follow-up. AI confidence: %.2f", dc.classification.Confidence),
	}
	if err := d.activity.LogActivity(ctx, note); err != nil {
		d.logger.Error("Failed to log activity", zap.String("sender", dc.identity.Address), zap.Error(err))
	}

	return d.notify(ctx, d.profile.ColleagueEmail, d.profile.InterestNotification(dc.msg, dc.identity.Address, school), false)
}

func (d *Dispatcher) handleScheduling(ctx context.Context, dc *dispatchContext) error {
	if err := d.updateStatus(ctx, dc, StatusMeetingRequested, "Scheduling request received"); err != nil {
		return err
	}

	school := d.schoolName(ctx, dc)
	slots := MeetingSlots(d.now(), d.slotDays)
	draft := d.profile.SchedulingOffer(dc.identity.Name, school, dc.msg.Subject, slots)

	if _, err := d.mailer.SendMessage(ctx, dc.identity.Address, draft.Subject, draft.Body); err != nil {
		return fmt.Errorf("send meeting times: %w", err)
	}

	return d.notify(ctx, d.profile.OperatorEmail, d.profile.MeetingNotification(dc.msg, dc.identity.Address, school), false)
}

func (d *Dispatcher) handleInformation(ctx context.Context, dc *dispatchContext) error {
	school := d.schoolName(ctx, dc)
	draft, err := d.composer.Information(ctx, dc.msg, dc.identity.Name, school)
	if err != nil {
		d.logger.Warn("Using template information response", zap.String("message_id", dc.msg.ID), zap.Error(err))
		draft = d.profile.InformationResponse(dc.identity.Name, school, dc.msg.Subject)
	}

	if _, err := d.mailer.SendMessage(ctx, dc.identity.Address, draft.Subject, draft.Body); err != nil {
		return fmt.Errorf("send information: %w", err)
	}

	return d.updateStatus(ctx, dc, StatusInformationRequested, "Sent detailed information")
}

func (d *Dispatcher) handleNotInterested(ctx context.Context, dc *dispatchContext) error {
	if err := d.updateStatus(ctx, dc, StatusNotInterested, "Received negative response"); err != nil {
		return err
	}

	draft := d.profile.NotInterestedAcknowledgment(dc.identity.Name, dc.msg.Subject)
	if _, err := d.mailer.SendMessage(ctx, dc.identity.Address, draft.Subject, draft.Body); err != nil {
		return fmt.Errorf("send acknowledgment: %w", err)
	}
	return nil
}

func (d *Dispatcher) handleUnclear(ctx context.Context, dc *dispatchContext) error {
	if err := d.updateStatus(ctx, dc, StatusNeedsReview, "Unclear response received - requires manual review"); err != nil {
		return err
	}

	return d.notify(ctx, d.profile.OperatorEmail, d.profile.ReviewNotification(dc.msg, dc.identity.Name), true)
}

// lookupContact resolves the sender's contact once per dispatch. A missing
// contact is reported as nil without error.
func (d *Dispatcher) lookupContact(ctx context.Context, dc *dispatchContext) (*Contact, error) {
	if dc.contactLoaded {
		return dc.contact, dc.contactErr
	}
	dc.contactLoaded = true

	contact, err := d.ledger.FindContactByEmail(ctx, dc.identity.Address)
	switch {
	case errors.Is(err, ErrNotFound):
		d.logger.Warn("Contact not found in ledger", zap.String("sender", dc.identity.Address))
	case err != nil:
		dc.contactErr = fmt.Errorf("find contact: %w", err)
	default:
		dc.contact = contact
	}
	return dc.contact, dc.contactErr
}

// schoolName never fails; lookup problems degrade to UnknownSchool
func (d *Dispatcher) schoolName(ctx context.Context, dc *dispatchContext) string {
	if dc.school != "" {
		return dc.school
	}
	dc.school = UnknownSchool

	contact, err := d.lookupContact(ctx, dc)
	if err != nil || contact == nil || contact.SchoolID == "" {
		return dc.school
	}

	school, err := d.ledger.FindSchool(ctx, contact.SchoolID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			d.logger.Warn("School lookup failed", zap.String("school_id", contact.SchoolID), zap.Error(err))
		}
		return dc.school
	}
	if school.Name != "" {
		dc.school = school.Name
	}
	return dc.school
}

func (d *Dispatcher) updateStatus(ctx context.Context, dc *dispatchContext, status, notes string) error {
	contact, err := d.lookupContact(ctx, dc)
	if err != nil {
		return err
	}
	if contact == nil {
		return nil
	}

	update := StatusUpdate{
		Status:       status,
		ResponseType: string(dc.classification.Intent),
		Notes:        notes,
	}
	updated, err := d.ledger.UpdateContactStatus(ctx, contact.ID, update)
	if err != nil {
		return fmt.Errorf("update contact %s: %w", contact.ID, err)
	}
	if !updated {
		d.logger.Warn("Contact vanished before status update", zap.String("contact_id", contact.ID))
	}
	return nil
}

// notify sends an internal notification. Unless primary, only a rate limit
// failure is returned; other failures are logged.
func (d *Dispatcher) notify(ctx context.Context, to string, draft Draft, primary bool) error {
	if to == "" {
		if primary {
			return errors.New("no notification address configured")
		}
		d.logger.Warn("No notification address configured", zap.String("subject", draft.Subject))
		return nil
	}

	_, err := d.mailer.SendMessage(ctx, to, draft.Subject, draft.Body)
	if err == nil {
		return nil
	}
	if primary || errors.Is(err, ErrRateLimitExceeded) {
		return fmt.Errorf("send notification: %w", err)
	}

	d.logger.Error("Failed to send notification",
		zap.String("to", to),
		zap.String("subject", draft.Subject),
		zap.Error(err))
	return nil
}
