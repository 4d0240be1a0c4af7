package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
	"github.com/devdanielvaldez/autoclinic-bot/internal/notify"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// BuildEmailSender selects the staff e-mail provider. It returns nil when no
// provider is configured.
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			return s
		}
		logger.Warn("sendgrid selected without SENDGRID_API_KEY; handoff e-mail disabled")
	case "ses":
		if s := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			return s
		}
		logger.Warn("ses selected without an aws client; handoff e-mail disabled")
	case "stub":
		return notify.NewStubEmailSender(logger)
	}
	return nil
}

// BuildHandoffNotifier wires the staff e-mail and chat channels used when a
// customer asks for a person. Either channel may be absent.
func BuildHandoffNotifier(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) *notify.HandoffNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	var chat notify.ChatSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" && len(cfg.OperatorNumbers) > 0 {
		chat = messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	return notify.NewHandoffNotifier(BuildEmailSender(cfg, ses, logger), chat, notify.HandoffConfig{
		Emails:       cfg.HandoffEmails,
		StaffNumbers: cfg.OperatorNumbers,
		UnpauseToken: cfg.UnpauseToken,
	}, logger)
}
