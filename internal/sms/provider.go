// Package sms abstracts the SMS gateway used to deliver phone verification
// codes. The real gateway is an external collaborator; the default
// implementation only logs, which is also what the test environment uses.
package sms

import (
	"context"

	"servimarket_backend/internal/logger"
)

type Provider interface {
	SendCode(ctx context.Context, phone, code string) error
}

type logProvider struct{}

// NewLogProvider returns a provider that records the code in the logs
// instead of dispatching it.
func NewLogProvider() Provider {
	return &logProvider{}
}

func (p *logProvider) SendCode(ctx context.Context, phone, code string) error {
	logger.CtxInfo(ctx, "sms code issued", "phone", phone, "code", code)
	return nil
}
