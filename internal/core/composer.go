package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/outreach-reply-engine/internal/utils"
)

const composerInstructions = `You write outbound emails for a student-led dental screening initiative that partners with schools.

Write in a warm, professional tone. Do NOT use contractions, casual language, AI-sounding phrases, overly formal language, or dashes as punctuation.

Return only the email body, no subject line.`

const followUpPromptFormat = `Write a follow-up email for someone who showed interest in our dental screening services.

Original email details:
- From: %s at %s
- Their message: %s

The email should:
1. Thank them for their interest
2. Provide more detailed information about our services
3. Mention our student-led approach and mission
4. Ask if they would like to schedule a brief call to discuss details
5. Offer to answer any questions they might have

Sign it as %s from %s.`

const informationPromptFormat = `Write a reply to a school contact who asked for more information about our dental screening services.

Original email details:
- From: %s at %s
- Their message: %s

Answer their questions where possible, describe the screening process and how parents pay, and invite them to a brief phone call.

Sign it as %s from %s.`

// Composer drafts personalized replies with a text generator. Failures are
// returned as *GenerationError; callers choose the fallback.
type Composer struct {
	generator     TextGenerator
	textProcessor *utils.TextProcessor
	profile       Profile
	maxBodySize   int
}

// NewComposer creates a composer. A nil generator makes every call fail.
func NewComposer(generator TextGenerator, textProcessor *utils.TextProcessor, profile Profile, maxBodySize int) *Composer {
	return &Composer{
		generator:     generator,
		textProcessor: textProcessor,
		profile:       profile,
		maxBodySize:   maxBodySize,
	}
}

// FollowUp drafts the reply to an interested sender
func (c *Composer) FollowUp(ctx context.Context, msg *InboundMessage, name, schoolName string) (Draft, error) {
	body, err := c.generate(ctx, "follow-up", followUpPromptFormat, msg, name, schoolName)
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		Subject: replySubject(msg.Subject) + " - Additional Information",
		Body:    body,
	}, nil
}

// Information drafts the reply to an information request
func (c *Composer) Information(ctx context.Context, msg *InboundMessage, name, schoolName string) (Draft, error) {
	body, err := c.generate(ctx, "information", informationPromptFormat, msg, name, schoolName)
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		Subject: replySubject(msg.Subject) + " - Detailed Information",
		Body:    body,
	}, nil
}

func (c *Composer) generate(ctx context.Context, purpose, format string, msg *InboundMessage, name, schoolName string) (string, error) {
	if c.generator == nil {
		return "", &GenerationError{Purpose: purpose, Err: errors.New("no text generator configured")}
	}

	message := c.textProcessor.ProcessText(msg.Body, c.maxBodySize)
	prompt := fmt.Sprintf(format, name, schoolName, message, c.profile.Signatory, c.profile.Organization)

	response, err := c.generator.Generate(ctx, composerInstructions, prompt)
	if err != nil {
		return "", &GenerationError{Purpose: purpose, Err: err}
	}

	body := strings.TrimSpace(response)
	if body == "" {
		return "", &GenerationError{Purpose: purpose, Err: errors.New("empty response")}
	}
	return body, nil
}
