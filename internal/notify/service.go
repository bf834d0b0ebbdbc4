package notify

import (
	"context"
	"fmt"
	"time"

	"carepath-portal/internal/config"
	"carepath-portal/internal/domain"
	"carepath-portal/pkg/redisutil"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// EventStream is the Redis stream notification events are published to.
// Downstream consumers (audit, digest jobs) read it independently.
const EventStream = "carepath:notifications"

// Service sends mail through the HTTP gateway and mirrors every notification
// as an event on the Redis stream.
type Service struct {
	httpClient *resty.Client
	cfg        config.MailConfig
	redis      *redis.Client
	logger     *zap.Logger
}

// NewService creates the notifier. redisClient may be nil (events skipped).
func NewService(cfg config.MailConfig, redisClient *redis.Client, logger *zap.Logger) *Service {
	client := resty.New().
		SetBaseURL(cfg.GatewayURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("X-Api-Key", cfg.APIKey)
	}

	return &Service{
		httpClient: client,
		cfg:        cfg,
		redis:      redisClient,
		logger:     logger,
	}
}

var _ Notifier = (*Service)(nil)

// mailRequest is the gateway's JSON send payload.
type mailRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"textBody"`
}

// event mirrors every notification onto the Redis stream.
type event struct {
	Kind   string `json:"kind"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (s *Service) SendWelcome(ctx context.Context, user *domain.User) {
	s.deliver(ctx, "welcome", user,
		"Welcome to CarePath",
		fmt.Sprintf("Hi %s,\n\nYour CarePath account has been created. Your onboarding checklist will be available as soon as an administrator approves your account.\n\nThe CarePath Team", user.FullName()),
	)
}

func (s *Service) SendApproval(ctx context.Context, user *domain.User) {
	s.deliver(ctx, "approval", user,
		"Your CarePath account is approved",
		fmt.Sprintf("Hi %s,\n\nYour account has been approved and your %s onboarding checklist is ready. Log in to get started.\n\nThe CarePath Team", user.FullName(), user.Role),
	)
}

func (s *Service) SendPasswordReset(ctx context.Context, user *domain.User, resetLink string) {
	s.deliver(ctx, "password_reset", user,
		"Reset your CarePath password",
		fmt.Sprintf("Hi %s,\n\nA password reset was requested for your account. The link below expires in one hour; ignore this email if you did not request it.\n\n%s", user.FullName(), resetLink),
	)
}

func (s *Service) SendEmailVerification(ctx context.Context, user *domain.User, verifyLink string) {
	s.deliver(ctx, "email_verification", user,
		"Verify your CarePath email address",
		fmt.Sprintf("Hi %s,\n\nPlease confirm your email address:\n\n%s", user.FullName(), verifyLink),
	)
}

// deliver sends the mail and publishes the stream event. Both are
// best-effort; errors are logged and dropped.
func (s *Service) deliver(ctx context.Context, kind string, user *domain.User, subject, body string) {
	if s.redis != nil {
		if _, err := redisutil.PublishJSONToStream(ctx, s.redis, EventStream, event{
			Kind:   kind,
			UserID: user.UserID,
			Email:  user.Email,
		}); err != nil {
			s.logger.Warn("Failed to publish notification event",
				zap.String("kind", kind),
				zap.String("user_id", user.UserID),
				zap.Error(err),
			)
		}
	}

	if !s.cfg.Enabled {
		s.logger.Debug("Mail disabled, dropping message",
			zap.String("kind", kind),
			zap.String("to", user.Email),
		)
		return
	}

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(mailRequest{
			From:     s.cfg.From,
			To:       user.Email,
			Subject:  subject,
			TextBody: body,
		}).
		Post("/send")
	if err != nil {
		s.logger.Warn("Mail send failed",
			zap.String("kind", kind),
			zap.String("to", user.Email),
			zap.Error(err),
		)
		return
	}
	if resp.IsError() {
		s.logger.Warn("Mail gateway rejected message",
			zap.String("kind", kind),
			zap.String("to", user.Email),
			zap.Int("status", resp.StatusCode()),
		)
	}
}
