package worker

// receipt_worker.go
// Renders the PDF receipt of a sale and mails it to the customer.
// Delivery goes through the SMTP circuit breaker; a sale that no longer
// exists or an unconfigured mailer is dropped without retries.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nexogym/internal/infra"
	"nexogym/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJob is the payload pushed to QueueReceipts after a sale commits.
type ReceiptJob struct {
	SaleID  uuid.UUID `json:"sale_id"`
	GymID   uuid.UUID `json:"gym_id"`
	ToEmail string    `json:"to_email"`
}

// ReceiptSender delivers a rendered receipt. *infra.Mailer implements it.
type ReceiptSender interface {
	Configured() bool
	SendReceipt(to, subject, body, pdfPath string) error
}

type ReceiptWorker struct {
	sales       repository.SaleRepository
	gyms        repository.GymRepository
	sender      ReceiptSender
	breaker     *infra.CircuitBreaker
	storagePath string
	metrics     *infra.Metrics
}

func NewReceiptWorker(
	sales repository.SaleRepository,
	gyms repository.GymRepository,
	sender ReceiptSender,
	breaker *infra.CircuitBreaker,
	storagePath string,
	metrics *infra.Metrics,
) *ReceiptWorker {
	return &ReceiptWorker{
		sales:       sales,
		gyms:        gyms,
		sender:      sender,
		breaker:     breaker,
		storagePath: storagePath,
		metrics:     metrics,
	}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var job ReceiptJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return Permanent(fmt.Errorf("receipt_worker: invalid payload: %w", err))
	}
	if job.ToEmail == "" {
		log.Warn().Str("sale_id", job.SaleID.String()).Msg("receipt_worker: empty to_email, skipping")
		return nil
	}
	if !w.sender.Configured() {
		log.Warn().Str("sale_id", job.SaleID.String()).Msg("receipt_worker: SMTP not configured, skipping")
		w.metrics.ReceiptProcessed("skipped")
		return nil
	}

	sale, err := w.sales.FindByID(ctx, job.GymID, job.SaleID)
	if errors.Is(err, repository.ErrNotFound) {
		return Permanent(fmt.Errorf("receipt_worker: sale %s not found", job.SaleID))
	}
	if err != nil {
		return err
	}

	gymName := "NexoGym"
	if gym, err := w.gyms.FindByID(ctx, job.GymID); err == nil {
		gymName = gym.Name
	}

	pdfPath, err := infra.GenerateReceiptPDF(sale, gymName, w.storagePath)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s - Comprobante %s", gymName, sale.ReceiptFolio)
	body := fmt.Sprintf("Gracias por tu compra. Total: $%s\nAdjuntamos tu comprobante %s.",
		sale.Total.StringFixed(2), sale.ReceiptFolio)

	err = w.breaker.Execute(func() error {
		return w.sender.SendReceipt(job.ToEmail, subject, body, pdfPath)
	})
	if err != nil {
		w.metrics.ReceiptProcessed("failed")
		log.Error().Err(err).Str("to", job.ToEmail).Str("folio", sale.ReceiptFolio).Msg("receipt_worker: send failed")
		return err
	}

	w.metrics.ReceiptProcessed("sent")
	log.Info().Str("to", job.ToEmail).Str("folio", sale.ReceiptFolio).Msg("receipt_worker: receipt sent")
	return nil
}
