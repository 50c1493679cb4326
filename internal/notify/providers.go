package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// EmailProvider sends transactional email.
type EmailProvider interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSProvider sends text messages.
type SMSProvider interface {
	SendSMS(ctx context.Context, to, body string) error
}

// SendGridEmailProvider implements EmailProvider using SendGrid.
type SendGridEmailProvider struct {
	apiKey string
	from   string
}

func NewSendGridEmailProvider(apiKey, from string) EmailProvider {
	return &SendGridEmailProvider{apiKey: apiKey, from: from}
}

func (p *SendGridEmailProvider) SendEmail(ctx context.Context, to, subject, body string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("HeartSync", p.from),
		subject,
		mail.NewEmail("", to),
		body,
		"",
	)

	client := sendgrid.NewSendClient(p.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned error status: %d", response.StatusCode)
	}

	return nil
}

// TwilioSMSProvider implements SMSProvider using Twilio.
type TwilioSMSProvider struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMSProvider(accountSID, authToken, from string) SMSProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMSProvider{client: client, from: from}
}

func (p *TwilioSMSProvider) SendSMS(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetBody(body)

	if _, err := p.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send SMS via Twilio: %w", err)
	}
	return nil
}

// MockEmailProvider records sent email; the default in development and tests.
type MockEmailProvider struct {
	mu         sync.Mutex
	SentEmails []MockEmail
}

type MockEmail struct {
	To      string
	Subject string
	Body    string
}

func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(ctx context.Context, to, subject, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SentEmails = append(p.SentEmails, MockEmail{To: to, Subject: subject, Body: body})
	log.Printf("📧 [mock] email to %s: %s", to, subject)
	return nil
}

// MockSMSProvider records sent SMS.
type MockSMSProvider struct {
	mu      sync.Mutex
	SentSMS []MockSMS
}

type MockSMS struct {
	To   string
	Body string
}

func NewMockSMSProvider() *MockSMSProvider {
	return &MockSMSProvider{}
}

func (p *MockSMSProvider) SendSMS(ctx context.Context, to, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SentSMS = append(p.SentSMS, MockSMS{To: to, Body: body})
	log.Printf("📱 [mock] SMS to %s", to)
	return nil
}
