// Package contact handles the contact form and the static list of drop
// locations.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"vastram/internal/logging"
)

const (
	MsgThanks = "Thank you for your message! We will get back to you soon."
	MsgFailed = "Failed to send your message. Please try again."

	subjectPrefix = "Vastram contact form: "
)

var ErrInvalidMessage = errors.New("contact: invalid message")

// Location is a drop-off store.
type Location struct {
	Name     string
	Address  string
	Phone    string
	Hours    string
	Features []string
}

// Locations lists the drop-off stores.
var Locations = []Location{
	{
		Name:     "Vastram Central Hub",
		Address:  "123 MG Road, Bangalore, Karnataka 560001",
		Phone:    "+91 80 2234 5678",
		Hours:    "7:00 AM - 10:00 PM",
		Features: []string{"Express Service", "Premium Care", "24/7 Support"},
	},
	{
		Name:     "Vastram Koramangala",
		Address:  "456 Koramangala 4th Block, Bangalore 560034",
		Phone:    "+91 80 2345 6789",
		Hours:    "8:00 AM - 9:00 PM",
		Features: []string{"Standard Service", "Quick Turnaround"},
	},
	{
		Name:     "Vastram Whitefield",
		Address:  "789 Whitefield Main Road, Bangalore 560066",
		Phone:    "+91 80 3456 7890",
		Hours:    "8:00 AM - 9:00 PM",
		Features: []string{"Premium Service", "Bridal Care"},
	},
	{
		Name:     "Vastram Indiranagar",
		Address:  "321 100 Feet Road, Indiranagar, Bangalore 560038",
		Phone:    "+91 80 4567 8901",
		Hours:    "7:30 AM - 9:30 PM",
		Features: []string{"Express Service", "Traditional Wear"},
	},
}

// Message is a submitted contact form.
type Message struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Validate checks required fields and the reply address.
func (m Message) Validate() error {
	var missing []string
	if strings.TrimSpace(m.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(m.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(m.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidMessage, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidMessage, m.Email)
	}
	return nil
}

func (m Message) subject() string { return subjectPrefix + m.Name }

func (m Message) body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", m.Name)
	fmt.Fprintf(&b, "Email: %s\n", m.Email)
	if m.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", m.Phone)
	}
	b.WriteString("\n")
	b.WriteString(m.Message)
	return b.String()
}

// Mailer delivers a plain text mail.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Desk routes contact messages to the support inbox.
type Desk struct {
	mailer Mailer
	from   string
	to     string
}

// NewDesk returns a desk that mails through mailer. A nil mailer only
// logs the message.
func NewDesk(mailer Mailer, from, to string) *Desk {
	return &Desk{mailer: mailer, from: from, to: to}
}

// Channel names where messages go, for display and audit.
func (d *Desk) Channel() string {
	if d.mailer == nil {
		return "log"
	}
	return "email"
}

// Submit validates and delivers m, returning the acknowledgement to show.
func (d *Desk) Submit(ctx context.Context, m Message) (string, error) {
	if err := m.Validate(); err != nil {
		return err.Error(), err
	}

	channel := d.Channel()
	if d.mailer == nil {
		logging.Contact("Contact message from %s <%s>: %q", m.Name, m.Email, m.Message)
		logging.Audit().ContactSent(channel, nil)
		return MsgThanks, nil
	}

	if err := d.mailer.Send(ctx, d.from, d.to, m.subject(), m.body()); err != nil {
		logging.ContactError("Contact mail from %s failed: %v", m.Email, err)
		logging.Audit().ContactSent(channel, err)
		return MsgFailed, fmt.Errorf("send contact mail: %w", err)
	}
	logging.Contact("Contact mail from %s delivered to %s", m.Email, d.to)
	logging.Audit().ContactSent(channel, nil)
	return MsgThanks, nil
}
