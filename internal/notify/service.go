package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/heartsync/heartsync-backend/internal/config"
	"github.com/heartsync/heartsync-backend/internal/matching"
)

// recipient is the contact slice of the users table.
type recipient struct {
	Name  string  `db:"name"`
	Email string  `db:"email"`
	Phone *string `db:"phone"`
}

// Service sends "It's a match!" alerts. All sends are fire-and-forget: a
// failed notification never fails the match.
type Service struct {
	db    *sqlx.DB
	email EmailProvider
	sms   SMSProvider
	cfg   *config.Config
}

func NewService(db *sqlx.DB, email EmailProvider, sms SMSProvider, cfg *config.Config) *Service {
	return &Service{db: db, email: email, sms: sms, cfg: cfg}
}

// NewServiceFromConfig wires the configured providers, defaulting to mocks.
func NewServiceFromConfig(db *sqlx.DB, cfg *config.Config) *Service {
	var email EmailProvider = NewMockEmailProvider()
	if cfg.EmailProvider == "sendgrid" && cfg.SendGridAPIKey != "" {
		email = NewSendGridEmailProvider(cfg.SendGridAPIKey, cfg.EmailFrom)
	}

	var sms SMSProvider = NewMockSMSProvider()
	if cfg.SMSProvider == "twilio" && cfg.TwilioAccountSID != "" {
		sms = NewTwilioSMSProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	}

	return NewService(db, email, sms, cfg)
}

// MatchCreated alerts both users about the new match. It returns immediately;
// delivery happens in the background with its own timeout.
func (s *Service) MatchCreated(ctx context.Context, match *matching.Match) {
	pairs := []struct {
		userID, otherName string
	}{
		{match.User1ID, match.User2Name},
		{match.User2ID, match.User1Name},
	}

	for _, p := range pairs {
		p := p
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.notifyUser(ctx, p.userID, p.otherName)
		}()
	}
}

func (s *Service) notifyUser(ctx context.Context, userID, otherName string) {
	var rcpt recipient
	err := s.db.GetContext(ctx, &rcpt,
		`SELECT name, email, phone FROM users WHERE id = $1`, userID)
	if err == sql.ErrNoRows {
		return
	}
	if err != nil {
		log.Printf("⚠️ match notification lookup failed for %s: %v", userID, err)
		return
	}

	if s.cfg.EnableEmailNotifications {
		subject := "It's a match! 💕"
		body := fmt.Sprintf("Hi %s,\n\nYou and %s liked each other. Say hello!", rcpt.Name, otherName)
		if err := s.email.SendEmail(ctx, rcpt.Email, subject, body); err != nil {
			log.Printf("⚠️ match email to %s failed: %v", userID, err)
		}
	}

	if s.cfg.EnableSMSNotifications && rcpt.Phone != nil {
		body := fmt.Sprintf("It's a match! You and %s liked each other on HeartSync.", otherName)
		if err := s.sms.SendSMS(ctx, *rcpt.Phone, body); err != nil {
			log.Printf("⚠️ match SMS to %s failed: %v", userID, err)
		}
	}
}
