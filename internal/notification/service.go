// internal/notification/service.go
package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Annany2002/schema-designer-backend/config"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()

	ErrCredentialsMissing = errors.New("smtp credentials not configured")
)

// InvitationNotice asks someone to join a diagram.
type InvitationNotice struct {
	To          string `json:"to"`
	DiagramName string `json:"diagram_name"`
	InviterName string `json:"inviter_name"`
	Link        string `json:"link"`
}

// ChangeNotice tells a collaborator their access to a diagram changed.
// Action is a past-tense phrase such as "removed you from".
type ChangeNotice struct {
	To          string `json:"to"`
	DiagramName string `json:"diagram_name"`
	Action      string `json:"action"`
	ActorName   string `json:"actor_name"`
}

// Sender delivers notices and reports failures as errors.
type Sender interface {
	DeliverInvitation(ctx context.Context, n InvitationNotice) error
	DeliverCollaborationChange(ctx context.Context, n ChangeNotice) error
}

// Service renders notices into emails and hands them to a Mailer.
// The sender address is the SMTP username.
type Service struct {
	mailer      Mailer
	from        string
	configured  bool
	frontendURL string
}

// NewService builds a Service that delivers over SMTP using cfg.
func NewService(cfg *config.Config) *Service {
	return NewServiceWithMailer(cfg, NewSMTPMailer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword))
}

// NewServiceWithMailer builds a Service around an arbitrary Mailer.
func NewServiceWithMailer(cfg *config.Config, mailer Mailer) *Service {
	return &Service{
		mailer:      mailer,
		from:        cfg.SMTPUsername,
		configured:  cfg.SMTPConfigured(),
		frontendURL: cfg.FrontendURL,
	}
}

// InvitationLink is the frontend URL a recipient follows to answer an invitation.
func InvitationLink(frontendURL string, invitationID int64) string {
	return strings.TrimRight(frontendURL, "/") + "/invitations/" + strconv.FormatInt(invitationID, 10)
}

// InvitationLink builds a link against the configured frontend.
func (s *Service) InvitationLink(invitationID int64) string {
	return InvitationLink(s.frontendURL, invitationID)
}

// SendInvitation delivers an invitation email. It reports success and never
// returns an error; failures are logged.
func (s *Service) SendInvitation(ctx context.Context, toEmail, diagramName, inviterName, link string) bool {
	n := InvitationNotice{To: toEmail, DiagramName: diagramName, InviterName: inviterName, Link: link}
	return s.report(s.DeliverInvitation(ctx, n), "invitation", toEmail)
}

// SendCollaborationChangeNotice delivers a collaboration change email.
func (s *Service) SendCollaborationChangeNotice(ctx context.Context, toEmail, diagramName, action, actorName string) bool {
	n := ChangeNotice{To: toEmail, DiagramName: diagramName, Action: action, ActorName: actorName}
	return s.report(s.DeliverCollaborationChange(ctx, n), "collaboration change", toEmail)
}

func (s *Service) DeliverInvitation(ctx context.Context, n InvitationNotice) error {
	if !s.configured {
		return ErrCredentialsMissing
	}
	return s.mailer.Send(ctx, Message{
		From:    s.from,
		To:      n.To,
		Subject: "Diagram collaboration invitation: " + n.DiagramName,
		Body:    invitationBody(n),
	})
}

func (s *Service) DeliverCollaborationChange(ctx context.Context, n ChangeNotice) error {
	if !s.configured {
		return ErrCredentialsMissing
	}
	return s.mailer.Send(ctx, Message{
		From:    s.from,
		To:      n.To,
		Subject: "Diagram collaboration change: " + n.DiagramName,
		Body:    changeBody(n),
	})
}

func (s *Service) report(err error, kind, to string) bool {
	if err == nil {
		customLog.WithFields(logrus.Fields{"kind": kind, "to": to}).Info("Notification email sent")
		return true
	}
	if errors.Is(err, ErrCredentialsMissing) {
		customLog.WithFields(logrus.Fields{"kind": kind, "to": to}).Warn("SMTP credentials not configured; email skipped")
		return false
	}
	customLog.WithFields(logrus.Fields{"kind": kind, "to": to}).WithError(err).Warn("Notification email failed")
	return false
}

func invitationBody(n InvitationNotice) string {
	return fmt.Sprintf(`Hello,

%s has invited you to collaborate on the diagram '%s' in Schema Designer.

To accept the invitation, open the following link:
%s

Or copy the link into your browser.

Regards,
The Schema Designer Team
`, n.InviterName, n.DiagramName, n.Link)
}

func changeBody(n ChangeNotice) string {
	return fmt.Sprintf(`Hello,

%s has %s the diagram '%s'.

Please open the diagram to review the details.

Regards,
The Schema Designer Team
`, n.ActorName, n.Action, n.DiagramName)
}
