package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/outreach-reply-engine/internal/utils"
	"go.uber.org/zap"
)

// Classifier assigns an intent to an inbound message. It never fails.
type Classifier interface {
	Classify(ctx context.Context, msg *InboundMessage) *Classification
}

// ClassificationStrategy is one way of classifying a message that may fail
type ClassificationStrategy interface {
	Classify(ctx context.Context, msg *InboundMessage) (*Classification, error)
}

const classificationInstructions = `You are an assistant that analyzes email replies to a school dental screening outreach campaign.

Your task is to classify the sender's intent and recommend an appropriate follow-up action.

Classify into exactly one of these types:
- interested: shows interest, wants to learn more, or is open to the service
- need_info: asks questions, needs clarification, wants more details
- scheduling: wants to schedule a meeting, call, or appointment
- not_interested: declines politely, not interested, or has concerns
- unsubscribe: requests removal, unsubscribe, or no further contact
- unclear: intent is ambiguous or unclear

Respond with ONLY a JSON object:
{
    "type": "one_of_the_types_above",
    "confidence": 0.9,
    "reasoning": "brief explanation",
    "key_phrases": ["relevant", "phrases", "from", "email"],
    "suggested_action": "specific recommendation"
}`

const classificationPromptFormat = `Classify this email reply:

Subject: %s
From: %s
Body:
%s

Return only the JSON classification.`

// classificationResponse is the structured answer expected from the model
type classificationResponse struct {
	Type            string   `json:"type"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	KeyPhrases      []string `json:"key_phrases"`
	SuggestedAction string   `json:"suggested_action"`
}

// AIStrategy classifies messages with a text generator
type AIStrategy struct {
	generator     TextGenerator
	textProcessor *utils.TextProcessor
	maxBodySize   int
	modelName     string
}

// NewAIStrategy creates a generator-backed classification strategy
func NewAIStrategy(generator TextGenerator, textProcessor *utils.TextProcessor, maxBodySize int, modelName string) *AIStrategy {
	return &AIStrategy{
		generator:     generator,
		textProcessor: textProcessor,
		maxBodySize:   maxBodySize,
		modelName:     modelName,
	}
}

// Classify asks the model for a verdict and validates it
func (s *AIStrategy) Classify(ctx context.Context, msg *InboundMessage) (*Classification, error) {
	body := s.textProcessor.ProcessText(msg.Body, s.maxBodySize)
	prompt := fmt.Sprintf(classificationPromptFormat, msg.Subject, msg.Sender, body)

	response, err := s.generator.Generate(ctx, classificationInstructions, prompt)
	if err != nil {
		return nil, &GenerationError{Purpose: "classification", Err: err}
	}

	var parsed classificationResponse
	if err := utils.ExtractJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedClassification, err)
	}

	intent, ok := ParseIntent(parsed.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown intent %q", ErrMalformedClassification, parsed.Type)
	}

	phrases := parsed.KeyPhrases
	if phrases == nil {
		phrases = []string{}
	}

	return &Classification{
		Intent:          intent,
		Confidence:      clamp01(parsed.Confidence),
		Rationale:       strings.TrimSpace(parsed.Reasoning),
		KeyPhrases:      phrases,
		SuggestedAction: strings.TrimSpace(parsed.SuggestedAction),
		Method:          MethodAI,
		ModelUsed:       s.modelName,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ReplyClassifier tries the primary strategy and degrades to the pattern
// classifier on any failure
type ReplyClassifier struct {
	primary  ClassificationStrategy
	fallback *PatternClassifier
	logger   *zap.Logger
}

// NewReplyClassifier creates a classifier. primary may be nil, in which case
// only the pattern classifier is used.
func NewReplyClassifier(primary ClassificationStrategy, logger *zap.Logger) *ReplyClassifier {
	return &ReplyClassifier{
		primary:  primary,
		fallback: NewPatternClassifier(),
		logger:   logger,
	}
}

// Classify returns exactly one classification for the message
func (c *ReplyClassifier) Classify(ctx context.Context, msg *InboundMessage) *Classification {
	if c.primary != nil {
		result, err := c.primary.Classify(ctx, msg)
		if err == nil {
			return result
		}
		c.logger.Warn("AI classification failed, using pattern fallback",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
	return c.fallback.ClassifyText(msg.Subject, msg.Body)
}
