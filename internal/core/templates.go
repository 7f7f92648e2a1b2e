package core

import (
	"fmt"
	"strings"
)

// Profile identifies the organization that signs and receives outbound mail
type Profile struct {
	Organization   string
	Signatory      string
	OperatorEmail  string
	ColleagueEmail string
}

// replySubject prefixes "Re: " once, dropping any reply prefixes already there
func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for len(subject) >= 3 && strings.EqualFold(subject[:3], "re:") {
		subject = strings.TrimSpace(subject[3:])
	}
	return "Re: " + subject
}

func (p Profile) signature(withContact bool) string {
	var b strings.Builder
	b.WriteString("Best regards,\n\n")
	b.WriteString(p.Signatory)
	b.WriteString("\n")
	b.WriteString(p.Organization)
	if withContact && p.OperatorEmail != "" {
		b.WriteString("\nEmail: ")
		b.WriteString(p.OperatorEmail)
	}
	return b.String()
}

// UnsubscribeConfirmation is sent once a sender has been suppressed
func (p Profile) UnsubscribeConfirmation(name string) Draft {
	body := fmt.Sprintf(`Dear %s,

We have received your request and have removed your email address from our outreach list. You will not receive any further emails from %s.

If this was sent in error or if you would like to receive information in the future, please contact us directly.

Thank you for your time.

%s`, name, p.Organization, p.signature(false))

	return Draft{
		Subject: "Unsubscribe Confirmation - " + p.Organization,
		Body:    body,
	}
}

// InterestedFollowUp is the fallback follow-up for interested senders
func (p Profile) InterestedFollowUp(name, subject string) Draft {
	body := fmt.Sprintf(`Dear %s,

Thank you for your interest in %s's dental screening services. I am excited to learn more about how we can help your students maintain optimal oral health.

Our comprehensive screening program includes visual examinations, oral cancer awareness, preventive care education, and referrals when necessary. As a student-led initiative, we are passionate about making quality dental care accessible and affordable for school communities.

Would you be available for a brief 15-minute call to discuss how we can customize our services for your school's specific needs? I would be happy to answer any questions and provide additional details about our process.

Please let me know a convenient time for you, or feel free to reply with any questions you might have.

Thank you for your time and consideration.

%s
Building healthier smiles, one school at a time.`, name, p.Organization, p.signature(true))

	return Draft{
		Subject: replySubject(subject),
		Body:    body,
	}
}

// SchedulingOffer lists available meeting slots
func (p Profile) SchedulingOffer(name, schoolName, subject string, slots []string) Draft {
	if len(slots) > shownSlots {
		slots = slots[:shownSlots]
	}
	lines := make([]string, len(slots))
	for i, slot := range slots {
		lines[i] = "• " + slot
	}

	body := fmt.Sprintf(`Dear %s,

Thank you for your interest in scheduling a meeting to discuss %s's dental screening services for %s.

I have the following time slots available over the next few days:

%s

Please reply with your preferred time, and I will send you a calendar invitation. The meeting can be conducted via phone call or video conference, whichever is more convenient for you.

During our discussion, we can cover:
• Detailed overview of our screening services
• Customized pricing for your school
• Implementation timeline and logistics
• Any specific requirements or questions you may have

I look forward to speaking with you and exploring how we can support your students' oral health.

Could you also please share a phone number where I can reach you? This will help ensure smooth communication for our scheduled meeting.

%s`, name, p.Organization, schoolName, strings.Join(lines, "\n"), p.signature(true))

	return Draft{
		Subject: replySubject(subject) + " - Available Meeting Times",
		Body:    body,
	}
}

// InformationResponse is the fallback answer to an information request
func (p Profile) InformationResponse(name, schoolName, subject string) Draft {
	body := fmt.Sprintf(`Dear %s,

Thank you for your inquiry about %s's dental screening services. I am happy to provide you with additional information about our program.

Our Comprehensive Screening Services Include:
• Visual oral examinations by qualified professionals
• Early detection of dental issues and abnormalities
• Oral cancer awareness and basic screening
• Preventive care education and recommendations
• Professional referrals when treatment is needed
• Free screening services for school staff members

The Process:
1. We coordinate with your school to schedule a convenient date
2. Parents are notified about the optional screening program
3. We set up in a private room or designated area at your school
4. Individual screenings are conducted with complete privacy
5. Parents receive detailed reports with recommendations

Pricing and Payment:
• Affordable rate calculated specifically for your school's circumstances
• No cost to the school, parents pay directly for their children's screenings
• Payment options available to accommodate different family situations

We would love to discuss how we can customize our services to meet %s's specific needs and schedule. Would you be interested in a brief phone call to discuss the details further?

Thank you for your time and consideration.

%s
Building healthier smiles, one school at a time.`, name, p.Organization, schoolName, p.signature(true))

	return Draft{
		Subject: replySubject(subject) + " - Detailed Information",
		Body:    body,
	}
}

// NotInterestedAcknowledgment thanks a sender who declined
func (p Profile) NotInterestedAcknowledgment(name, subject string) Draft {
	body := fmt.Sprintf(`Dear %s,

Thank you for taking the time to respond to our dental screening proposal.

I completely understand that our services may not be the right fit for your school at this time. We appreciate your consideration and wish you and your students all the best.

If circumstances change in the future, please feel free to reach out to us.

%s`, name, p.signature(false))

	return Draft{
		Subject: replySubject(subject) + " - Thank You",
		Body:    body,
	}
}

// InterestNotification tells the colleague about an interested sender
func (p Profile) InterestNotification(msg *InboundMessage, address, schoolName string) Draft {
	body := fmt.Sprintf(`Hi there,

Great news! We received an interested response from %s.

Contact Details:
• Email: %s
• School: %s
• Original Subject: %s

Their Response:
%s

An automated follow-up with more details has already been sent.

Automated %s System`, schoolName, address, schoolName, msg.Subject, msg.Body, p.Organization)

	return Draft{
		Subject: "Interested Response: " + schoolName,
		Body:    body,
	}
}

// MeetingNotification tells the operator about a scheduling request
func (p Profile) MeetingNotification(msg *InboundMessage, address, schoolName string) Draft {
	body := fmt.Sprintf(`Hi,

We received a meeting request from %s.

Contact Details:
• Email: %s
• School: %s

Their Message:
%s

Available time slots have been sent. Please check your calendar and confirm availability.

This is an automated notification from the %s outreach system.`, schoolName, address, schoolName, msg.Body, p.Organization)

	return Draft{
		Subject: "Meeting Request: " + schoolName,
		Body:    body,
	}
}

// ReviewNotification asks the operator to handle an unclear reply by hand
func (p Profile) ReviewNotification(msg *InboundMessage, name string) Draft {
	body := fmt.Sprintf(`Hi,

Received an email reply that needs manual review:

From: %s
Subject: %s
Message:
%s

Please review and respond as appropriate.

This is an automated notification.`, msg.Sender, msg.Subject, msg.Body)

	return Draft{
		Subject: "Manual Review Needed: " + name,
		Body:    body,
	}
}
