package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// LockoutAlert describes a client that just entered the most severe penalty tier
type LockoutAlert struct {
	ClientID      string
	Attempts      int
	Cooldown      time.Duration
	CooldownUntil time.Time
}

// LockoutNotifier tells the site owner about sustained guessing
type LockoutNotifier interface {
	NotifyLockout(ctx context.Context, alert LockoutAlert) error
}

// SESSender is the subset of the SES client used for alerts
type SESSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESLockoutNotifier sends lockout alerts using AWS SES
type SESLockoutNotifier struct {
	sesClient   SESSender
	fromAddress string
	recipient   string
	logger      *slog.Logger
}

// NewSESLockoutNotifier loads the default AWS config for region and creates a notifier
func NewSESLockoutNotifier(ctx context.Context, region, fromAddress, recipient string, logger *slog.Logger) (*SESLockoutNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESLockoutNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, recipient, logger), nil
}

// NewSESLockoutNotifierWithClient creates a notifier around an existing SES client
func NewSESLockoutNotifierWithClient(client SESSender, fromAddress, recipient string, logger *slog.Logger) *SESLockoutNotifier {
	return &SESLockoutNotifier{
		sesClient:   client,
		fromAddress: fromAddress,
		recipient:   recipient,
		logger:      logger,
	}
}

// NotifyLockout emails the configured recipient
func (n *SESLockoutNotifier) NotifyLockout(ctx context.Context, alert LockoutAlert) error {
	subject := fmt.Sprintf("Showcase login locked out for %s", alert.ClientID)

	textBody := fmt.Sprintf(`Repeated failed logins on the showcase password gate.

Client:          %s
Failed attempts: %d
Cooldown:        %s
Locked until:    %s

No action is required. The client will be able to try again once the cooldown ends.
This is an automated message. Please do not reply to this email.
`, alert.ClientID, alert.Attempts, alert.Cooldown, alert.CooldownUntil.UTC().Format(time.RFC1123))

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{n.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := n.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("lockout alert sent",
		slog.Int("attempts", alert.Attempts),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
