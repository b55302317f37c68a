package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/config"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/notify"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/observability/metrics"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

// BuildEmailSender picks SendGrid or SES from EMAIL_PROVIDER and falls back to
// the logging stub when the provider is not fully configured.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	from := notify.From{Email: cfg.EmailFromAddress, Name: cfg.EmailFromName}
	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey: cfg.SendGridAPIKey,
			From:   from,
		}, logger); sender != nil {
			logger.Info("email provider", "provider", "sendgrid")
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; using stub email sender")
	case "ses":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("ses selected but aws config failed; using stub email sender", "error", err)
			break
		}
		logger.Info("email provider", "provider", "ses", "region", cfg.AWSRegion)
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), from, logger)
	}
	return notify.NewStubEmailSender(logger)
}

// BuildNotifier wraps the sender in the background dispatcher.
func BuildNotifier(cfg *appconfig.Config, sender notify.EmailSender, chatMetrics *metrics.ChatMetrics, logger *logging.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(sender, logger,
		notify.WithTimeout(cfg.NotifyTimeout),
		notify.WithMetrics(chatMetrics),
		notify.WithDashboardURL(cfg.PublicBaseURL),
	)
}
