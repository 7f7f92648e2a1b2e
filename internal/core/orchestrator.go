package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Skip reasons
const (
	SkipInternalSender   = "internal_sender"
	SkipNotCampaignReply = "not_campaign_reply"
)

// SenderFilter decides whether a sender should never be dispatched
type SenderFilter interface {
	IsIgnored(address string) bool
}

// Orchestrator pulls a batch of messages and runs each one through the
// classifier and the dispatcher
type Orchestrator struct {
	source     MessageSource
	classifier Classifier
	dispatcher *Dispatcher
	ledger     ContactLedger
	ignore     SenderFilter
	logger     *zap.Logger
}

// NewOrchestrator creates a new orchestrator. ignore may be nil.
func NewOrchestrator(
	source MessageSource,
	classifier Classifier,
	dispatcher *Dispatcher,
	ledger ContactLedger,
	ignore SenderFilter,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:     source,
		classifier: classifier,
		dispatcher: dispatcher,
		ledger:     ledger,
		ignore:     ignore,
		logger:     logger,
	}
}

// Run processes one batch sequentially. Only a fetch failure is fatal. When
// ctx is cancelled the partial report is returned together with ctx.Err().
//
// If the source is a MessageAcknowledger, skipped messages and messages whose
// workflow succeeded are acknowledged at the end of the batch. Failed and
// panicking messages are left for the next batch.
func (o *Orchestrator) Run(ctx context.Context, spec BatchSpec) (*BatchReport, error) {
	messages, err := o.source.FetchMessages(ctx, spec.Query, spec.MaxMessages)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	o.logger.Info("Processing inbox batch",
		zap.String("query", spec.Query),
		zap.Int("fetched", len(messages)))

	report := &BatchReport{
		Fetched: len(messages),
		Results: make(map[Intent][]MessageReport),
	}

	var handled []string
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			o.acknowledge(ctx, handled)
			report.Summary = Summarize(report)
			return report, err
		}
		if o.processMessage(ctx, msg, report) {
			handled = append(handled, msg.ID)
		}
	}
	o.acknowledge(ctx, handled)

	report.Summary = Summarize(report)
	o.logger.Info("Batch complete",
		zap.Int("dispatched", report.Summary.TotalProcessed),
		zap.Int("skipped", report.Summary.SkippedCount),
		zap.Int("errors", report.Summary.ErrorCount),
		zap.Float64("engagement_rate", report.Summary.EngagementRate))

	return report, nil
}

// processMessage reports whether the message is done with and need not be
// fetched again
func (o *Orchestrator) processMessage(ctx context.Context, msg *InboundMessage, report *BatchReport) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			handled = false
			o.logger.Error("Panic while processing message",
				zap.String("message_id", msg.ID),
				zap.Any("panic", r))
			report.Errors = append(report.Errors, MessageError{
				MessageID: msg.ID,
				Error:     fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	identity := ParseSender(msg.Sender)

	if o.ignore != nil && o.ignore.IsIgnored(identity.Address) {
		o.skip(msg, report, SkipInternalSender)
		return true
	}
	if !o.isCampaignReply(ctx, msg, identity) {
		o.skip(msg, report, SkipNotCampaignReply)
		return true
	}

	classification := o.classifier.Classify(ctx, msg)
	o.logger.Info("Reply classified",
		zap.String("message_id", msg.ID),
		zap.String("sender", identity.Address),
		zap.String("intent", string(classification.Intent)),
		zap.Float64("confidence", classification.Confidence),
		zap.String("method", classification.Method))

	outcome := o.dispatcher.Dispatch(ctx, msg, classification, identity)

	report.Results[classification.Intent] = append(report.Results[classification.Intent], MessageReport{
		MessageID:      msg.ID,
		From:           msg.Sender,
		Subject:        msg.Subject,
		Classification: classification,
		Outcome:        outcome,
	})
	return !outcome.Failed()
}

// acknowledge marks handled messages on sources that support it. It runs
// even after cancellation so finished work is not repeated.
func (o *Orchestrator) acknowledge(ctx context.Context, ids []string) {
	ack, ok := o.source.(MessageAcknowledger)
	if !ok || len(ids) == 0 {
		return
	}
	if err := ack.MarkProcessed(context.WithoutCancel(ctx), ids); err != nil {
		o.logger.Warn("Failed to acknowledge processed messages",
			zap.Int("count", len(ids)),
			zap.Error(err))
	}
}

func (o *Orchestrator) skip(msg *InboundMessage, report *BatchReport, reason string) {
	o.logger.Debug("Skipping message",
		zap.String("message_id", msg.ID),
		zap.String("sender", msg.Sender),
		zap.String("reason", reason))

	report.Skipped = append(report.Skipped, SkippedMessage{
		MessageID: msg.ID,
		From:      msg.Sender,
		Subject:   msg.Subject,
		Reason:    reason,
		Classification: &Classification{
			Intent:     IntentUnclear,
			Confidence: 0.1,
			Rationale:  "Not processed: " + reason,
			KeyPhrases: []string{},
			Method:     MethodSkipped,
		},
	})
}

// isCampaignReply requires a reply subject and prior outreach to the sender.
// If the ledger cannot answer, the message is treated as a reply.
func (o *Orchestrator) isCampaignReply(ctx context.Context, msg *InboundMessage, identity SenderIdentity) bool {
	subject := strings.ToLower(strings.TrimLeft(msg.Subject, " \t\r\n"))
	if !strings.HasPrefix(subject, "re:") {
		return false
	}

	contacted, err := o.ledger.HasOutreach(ctx, identity.Address)
	if err != nil {
		o.logger.Warn("Outreach lookup failed, treating message as a campaign reply",
			zap.String("message_id", msg.ID),
			zap.String("sender", identity.Address),
			zap.Error(err))
		return true
	}
	return contacted
}
