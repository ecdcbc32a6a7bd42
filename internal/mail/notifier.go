package mail

import (
	"context"
	"net/url"
	"strings"

	"github.com/dtroode/alumni-server/internal/model"
)

const (
	clubName  = "FTIP Unpad Alumni Club"
	community = "Faculty of Agro-Industrial Technology, Universitas Padjadjaran"
)

// Notifier renders the lifecycle templates and hands them to a Sender.
type Notifier struct {
	sender      Sender
	frontendURL string
}

var _ model.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier that links to frontendURL.
func NewNotifier(sender Sender, frontendURL string) *Notifier {
	return &Notifier{sender: sender, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (n *Notifier) SendVerification(ctx context.Context, to, name, token string) error {
	return n.send(ctx, to, "Verify your email - "+clubName, "verification", "verification", templateData{
		Name:     name,
		Link:     n.link("/register/verify-email", token),
		ValidFor: "24 hours",
	})
}

func (n *Notifier) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return n.send(ctx, to, "Reset your password - "+clubName, "reset", "password-reset", templateData{
		Name:     name,
		Link:     n.link("/reset-password", token),
		ValidFor: "1 hour",
	})
}

func (n *Notifier) SendWelcome(ctx context.Context, to, name string) error {
	return n.send(ctx, to, "Welcome to "+clubName+"!", "welcome", "welcome", templateData{
		Name: name,
	})
}

func (n *Notifier) send(ctx context.Context, to, subject, tmpl, tag string, data templateData) error {
	data.Frontend = n.frontendURL
	data.ClubName = clubName
	data.Community = community

	body, err := render(tmpl, data)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{To: to, Subject: subject, HTMLBody: body, Tag: tag})
}

func (n *Notifier) link(path, token string) string {
	return n.frontendURL + path + "?token=" + url.QueryEscape(token)
}
