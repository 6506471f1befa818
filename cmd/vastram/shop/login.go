package shop

import (
	"context"
	"strings"

	"vastram/internal/api"
	"vastram/internal/logging"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// loginPage signs in or registers. returnTo is the page that asked for a
// session, if any.
type loginPage struct {
	register   bool
	signIn     *form
	signUp     *form
	returnTo   string
	submitting bool
}

func newLoginPage() *loginPage {
	p := &loginPage{}
	p.reset()
	return p
}

// reset clears both forms, including passwords.
func (p *loginPage) reset() {
	p.signIn = newForm("Sign In",
		textField("Email", "you@example.com", true),
		passwordField("Password"),
	)
	p.signUp = newForm("Create Account",
		textField("Name", "", true),
		textField("Email", "you@example.com", true),
		passwordField("Password"),
		textField("Phone", "", false),
		textField("Address", "Used for pickup and delivery", false),
	)
	p.submitting = false
}

func (p *loginPage) form() *form {
	if p.register {
		return p.signUp
	}
	return p.signIn
}

func (p *loginPage) capturing() bool { return p.form().focused() }
func (p *loginPage) blur()           { p.form().blur() }

func (p *loginPage) keys() []key.Binding {
	toggle := "create account"
	if p.register {
		toggle = "sign in instead"
	}
	return []key.Binding{
		binding([]string{"tab"}, "tab/↑↓", "next field"),
		binding([]string{"enter"}, "enter", "submit"),
		binding([]string{"ctrl+r"}, "ctrl+r", toggle),
	}
}

func (p *loginPage) enter(m *Model) tea.Cmd {
	return p.form().focusOn(0)
}

func (p *loginPage) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+r" {
		p.form().blur()
		p.register = !p.register
		return p.form().focusOn(0)
	}

	f := p.form()
	if !f.focused() {
		switch msg.String() {
		case "enter", "i":
			return f.focusOn(0)
		}
		return nil
	}

	submit, cmd := f.update(msg)
	if submit {
		return p.submit(m)
	}
	return cmd
}

func (p *loginPage) submit(m *Model) tea.Cmd {
	if p.submitting {
		return nil
	}
	f := p.form()
	if missing := f.missing(); len(missing) > 0 {
		m.setFlash("Please fill in "+strings.Join(missing, ", "), true)
		return nil
	}

	p.submitting = true
	sess := m.sf.Session
	v := f.values()
	if !p.register {
		return m.async("Signing in...", func(ctx context.Context) tea.Msg {
			res, err := sess.Login(ctx, v[0], v[1])
			return authDoneMsg{res: res, err: err}
		})
	}
	req := api.RegisterRequest{Name: v[0], Email: v[1], Password: v[2], Phone: v[3], Address: v[4]}
	return m.async("Creating account...", func(ctx context.Context) tea.Msg {
		res, err := sess.Register(ctx, req)
		return authDoneMsg{register: true, res: res, err: err}
	})
}

func (p *loginPage) done(m *Model, msg authDoneMsg) tea.Cmd {
	p.submitting = false
	if msg.err != nil || !msg.res.Success {
		m.setFlash(msg.res.Message, true)
		return p.form().focusOn(0)
	}

	u, _ := m.sf.Session.User()
	logging.UI("Signed in as %s", u.Email)
	if msg.register {
		m.setFlash("Welcome to Vastram, "+u.Name+"!", false)
	} else {
		m.setFlash("Welcome back, "+u.Name+"!", false)
	}

	target := p.returnTo
	if target == "" || target == pageLogin {
		target = pageHome
	}
	p.returnTo = ""
	p.reset()
	m.profile.reset()
	m.checkout.form = nil
	return m.navigate(target)
}

func (p *loginPage) view(m *Model) string {
	s := m.styles
	var sb strings.Builder
	if p.register {
		sb.WriteString(s.Title.Render("Create Account") + "\n")
		sb.WriteString(s.Muted.Render("Join Vastram for free pickup and delivery.") + "\n\n")
	} else {
		sb.WriteString(s.Title.Render("Sign In") + "\n")
		sb.WriteString(s.Muted.Render("Welcome back! Sign in to view your cart and orders.") + "\n\n")
	}
	sb.WriteString(p.form().view(s) + "\n\n")

	if p.register {
		sb.WriteString(s.Muted.Render("Already have an account? [ctrl+r] Sign in") + "\n")
	} else {
		sb.WriteString(s.Muted.Render("Don't have an account? [ctrl+r] Create one") + "\n")
	}
	if !m.sf.Cart.Snapshot().IsEmpty() {
		sb.WriteString(s.Warning.Render("Signing in replaces your guest cart with your saved cart.") + "\n")
	}
	return sb.String()
}
