package usecase

import (
	"fmt"
	"net/mail"

	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/email"
)

const noCompanyLabel = "Bez firmy"

// sourceLabels maps the form's "how did you find us" values to display labels
var sourceLabels = map[string]string{
	"google":         "Google",
	"linkedin":       "LinkedIn",
	"social":         "Facebook / Instagram",
	"recommendation": "Doporučení",
	"other":          "Jiné",
}

// SourceLabel returns the display label for a source value. Unknown values
// are returned unchanged.
func SourceLabel(source string) string {
	if label, ok := sourceLabels[source]; ok {
		return label
	}
	return source
}

// NotificationComposer builds the visitor confirmation and the team alert
type NotificationComposer struct {
	from        string
	brandName   string
	teamAddress string
}

func NewNotificationComposer(fromAddress, fromName, teamAddress string) *NotificationComposer {
	return &NotificationComposer{
		from:        (&mail.Address{Name: fromName, Address: fromAddress}).String(),
		brandName:   fromName,
		teamAddress: teamAddress,
	}
}

// Compose is deterministic for a given submission
func (c *NotificationComposer) Compose(sub domain.Submission) (client, team domain.OutboundMessage, err error) {
	fullName := sub.FullName()

	clientBody, err := email.RenderClientConfirmation(email.ClientConfirmationParams{
		FirstName: sub.FirstName,
		FullName:  fullName,
		Message:   sub.Message,
		BrandName: c.brandName,
	})
	if err != nil {
		return client, team, fmt.Errorf("render client confirmation: %w", err)
	}

	teamBody, err := email.RenderTeamAlert(email.TeamAlertParams{
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		FullName:  fullName,
		Email:     sub.Email,
		Company:   sub.Company,
		Position:  sub.Position,
		Source:    SourceLabel(sub.Source),
		Message:   sub.Message,
	})
	if err != nil {
		return client, team, fmt.Errorf("render team alert: %w", err)
	}

	company := sub.Company
	if company == "" {
		company = noCompanyLabel
	}

	client = domain.OutboundMessage{
		From:     c.from,
		To:       sub.Email,
		Subject:  fmt.Sprintf("Děkujeme za zprávu, %s!", sub.FirstName),
		HTMLBody: clientBody,
	}
	team = domain.OutboundMessage{
		From:     c.from,
		To:       c.teamAddress,
		Subject:  fmt.Sprintf("Nová poptávka: %s (%s)", fullName, company),
		ReplyTo:  sub.Email,
		HTMLBody: teamBody,
	}
	return client, team, nil
}
