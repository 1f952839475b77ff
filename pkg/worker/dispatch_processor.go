package worker

import (
	"context"
	"time"

	"github.com/psiconnect/practice-api/internal/service/dispatch"
	"github.com/psiconnect/practice-api/pkg/logger"
)

type DispatchProcessorConfig struct {
	PollInterval time.Duration
}

// DispatchProcessor runs the dispatch passes on a fixed schedule. It is the
// loop body of the standalone worker binary; the HTTP trigger runs the same
// passes on demand.
type DispatchProcessor struct {
	service *dispatch.Service
	config  DispatchProcessorConfig
	logger  *logger.Logger
}

func NewDispatchProcessor(service *dispatch.Service, config DispatchProcessorConfig, logger *logger.Logger) *DispatchProcessor {
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}

	return &DispatchProcessor{
		service: service,
		config:  config,
		logger:  logger,
	}
}

func (p *DispatchProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting dispatch processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down dispatch processor")
			return
		case <-ticker.C:
			p.runPass(ctx)
		}
	}
}

func (p *DispatchProcessor) runPass(ctx context.Context) {
	result, err := p.service.ProcessWhatsApp(ctx)
	if err != nil {
		p.logger.Error(err, "Failed to process whatsapp queue")
	} else {
		p.logger.Info("whatsapp pass finished",
			"processed", result.Processed,
			"failed", result.Failed,
			"total", result.Total,
			"whatsapp_status", result.GatewayStatus,
			"fallback_processed", result.FallbackCount)
	}

	emailResult, err := p.service.ProcessEmail(ctx)
	if err != nil {
		p.logger.Error(err, "Failed to process email queue")
		return
	}
	p.logger.Info("email pass finished",
		"processed", emailResult.Processed,
		"failed", emailResult.Failed,
		"total", emailResult.Total)
}
