package domain

import (
	"context"
	"errors"
	"strings"
)

// ContactRequest represents a raw contact form submission as posted by the site
type ContactRequest struct {
	FirstName string `json:"firstName" example:"Jana"`
	LastName  string `json:"lastName,omitempty" example:"Nováková"`
	Email     string `json:"email" example:"jana@example.com"`
	Company   string `json:"company,omitempty" example:"Acme s.r.o."`
	Position  string `json:"position,omitempty" example:"CMO"`
	Source    string `json:"source,omitempty" example:"linkedin"`
	Message   string `json:"message" example:"Ahoj, chceme nový web."`
}

// Submission is a trimmed ContactRequest that passed validation.
// Optional fields are empty strings when the visitor left them out.
type Submission struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"required,contact_email"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Source    string `json:"source"`
	Message   string `json:"message" validate:"required"`
}

// NewSubmission copies the request with every field trimmed
func NewSubmission(req *ContactRequest) Submission {
	return Submission{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Company:   strings.TrimSpace(req.Company),
		Position:  strings.TrimSpace(req.Position),
		Source:    strings.TrimSpace(req.Source),
		Message:   strings.TrimSpace(req.Message),
	}
}

// FullName joins first and last name with a single space
func (s Submission) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// OutboundMessage is one composed e-mail, handed to a MailDispatcher exactly once
type OutboundMessage struct {
	From     string
	To       string
	Subject  string
	ReplyTo  string
	HTMLBody string
}

// DispatchReport holds the outcome of both notification sends.
// A nil field means that message was accepted by the relay.
type DispatchReport struct {
	Client error
	Team   error
}

// Delivered reports whether both messages went out
func (r *DispatchReport) Delivered() bool {
	return r.Client == nil && r.Team == nil
}

// Err joins the failed sends, nil when delivered
func (r *DispatchReport) Err() error {
	return errors.Join(r.Client, r.Team)
}

// MailDispatcher sends a single message through the outbound relay
type MailDispatcher interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// ContactUsecase defines the interface for contact form operations
type ContactUsecase interface {
	// SendContactMessage validates the request, composes both notifications
	// and dispatches them. The report is returned whenever dispatch was attempted.
	SendContactMessage(ctx context.Context, req *ContactRequest) (*DispatchReport, error)
}
