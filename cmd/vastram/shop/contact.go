package shop

import (
	"context"
	"errors"
	"strings"

	"vastram/internal/contact"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type contactPage struct {
	form    *form
	sending bool
}

func newContactPage() *contactPage {
	p := &contactPage{}
	p.form = newForm("Send Message",
		textField("Name", "Enter your full name", true),
		textField("Email", "Enter your email", true),
		textField("Phone", "+91 9876543210", false),
		textField("Message", "Tell us how we can help you...", true),
	)
	return p
}

func (p *contactPage) capturing() bool { return p.form.focused() }
func (p *contactPage) blur()           { p.form.blur() }

func (p *contactPage) keys() []key.Binding {
	if p.capturing() {
		return []key.Binding{
			binding([]string{"tab"}, "tab/↑↓", "next field"),
			binding([]string{"ctrl+s"}, "ctrl+s", "send"),
			binding([]string{"esc"}, "esc", "leave form"),
		}
	}
	return []key.Binding{
		binding([]string{"enter"}, "enter", "write to us"),
	}
}

// enter prefills name and email for signed-in users.
func (p *contactPage) enter(m *Model) tea.Cmd {
	if u, ok := m.sf.Session.User(); ok {
		if p.form.fields[0].value() == "" {
			p.form.fields[0].set(u.Name)
		}
		if p.form.fields[1].value() == "" {
			p.form.fields[1].set(u.Email)
		}
		if p.form.fields[2].value() == "" {
			p.form.fields[2].set(u.Phone)
		}
	}
	return nil
}

func (p *contactPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if !p.form.focused() {
		switch msg.String() {
		case "enter", "i":
			return p.form.focusOn(0)
		}
		return nil
	}
	submit, cmd := p.form.update(msg)
	if submit {
		return p.submit(m)
	}
	return cmd
}

func (p *contactPage) submit(m *Model) tea.Cmd {
	if p.sending {
		return nil
	}
	v := p.form.values()
	msg := contact.Message{Name: v[0], Email: v[1], Phone: v[2], Message: v[3]}
	if err := msg.Validate(); err != nil {
		m.setFlash("Please check your message: "+strings.TrimPrefix(err.Error(), contact.ErrInvalidMessage.Error()+": "), true)
		return nil
	}

	p.sending = true
	desk := m.sf.Contact
	return m.async("Sending message...", func(ctx context.Context) tea.Msg {
		ack, err := desk.Submit(ctx, msg)
		return contactSentMsg{ack: ack, err: err}
	})
}

func (p *contactPage) sent(m *Model, msg contactSentMsg) tea.Cmd {
	p.sending = false
	if msg.err != nil {
		text := msg.ack
		if errors.Is(msg.err, contact.ErrInvalidMessage) {
			text = "Please check your message: " + strings.TrimPrefix(msg.ack, contact.ErrInvalidMessage.Error()+": ")
		}
		m.setFlash(text, true)
		return nil
	}
	m.setFlash(msg.ack, false)
	p.form.blur()
	p.form.reset()
	return nil
}

func (p *contactPage) view(m *Model) string {
	s := m.styles
	var sb strings.Builder

	sb.WriteString(s.Title.Render("Contact Us & Drop Locations") + "\n")
	sb.WriteString(s.Muted.Render("Get in touch with us or visit our convenient drop-off locations") + "\n\n")

	sb.WriteString(s.Subtitle.Render("Send us a Message") + "\n")
	if p.sending {
		p.form.submit = "Sending..."
	} else {
		p.form.submit = "Send Message"
	}
	sb.WriteString(p.form.view(s) + "\n\n")

	sb.WriteString(s.Subtitle.Render("Get in Touch") + "\n")
	sb.WriteString(s.Label.Render("Phone: ") + s.Body.Render("+91 80 1234 5678") + "\n")
	sb.WriteString(s.Label.Render("Email: ") + s.Body.Render("contact@vastram.com") + "\n")
	sb.WriteString(s.Label.Render("Customer Support: ") + s.Body.Render("24/7 Available") + "\n")
	sb.WriteString(s.Warning.Render("Emergency Pickup: +91 80 9999 0000") + "\n\n")

	sb.WriteString(s.Subtitle.Render("Drop-off Locations") + "\n")
	for _, loc := range contact.Locations {
		sb.WriteString(s.Bold.Render(loc.Name) + "\n")
		sb.WriteString(s.Muted.Render("  "+loc.Address) + "\n")
		sb.WriteString(s.Muted.Render("  "+loc.Phone+" · "+loc.Hours) + "\n")
		if len(loc.Features) > 0 {
			sb.WriteString(s.Info.Render("  "+strings.Join(loc.Features, " · ")) + "\n")
		}
	}

	sb.WriteString("\n" + s.Subtitle.Render("Service Areas") + "\n")
	for _, area := range [][2]string{
		{"Central Bangalore", "MG Road, Indiranagar, Koramangala"},
		{"North Bangalore", "Hebbal, Yelahanka, Sahakarnagar"},
		{"East Bangalore", "Whitefield, Marathahalli, Electronic City"},
		{"South Bangalore", "Jayanagar, JP Nagar, Banashankari"},
	} {
		sb.WriteString(s.Bold.Render(area[0]) + s.Muted.Render(": "+area[1]) + "\n")
	}
	return sb.String()
}
