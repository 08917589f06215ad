package services

import (
	"fmt"

	"github.com/numberplay/numberplay-backend/models"
	"go.uber.org/zap"
)

// Mailer delivers account mail. There is no real transport wired up yet;
// messages are rendered and logged, which is also what the production
// deployment does for now.
type Mailer struct {
	log *zap.SugaredLogger
}

func NewMailer(log *zap.SugaredLogger) *Mailer {
	return &Mailer{log: log}
}

// SendWelcome greets a freshly registered user. Called from a goroutine;
// delivery failure must never affect registration.
func (m *Mailer) SendWelcome(user *models.User) {
	body := fmt.Sprintf(
		"Hello %s! Welcome to NumberPlay! You can now start playing our number game and win prizes.",
		user.Username,
	)
	m.log.Infow("welcome email queued",
		"to", user.Email,
		"subject", "Welcome to NumberPlay!",
		"body", body,
	)
}
