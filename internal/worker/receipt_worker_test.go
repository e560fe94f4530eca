package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"nexogym/internal/infra"
	"nexogym/internal/model"
	"nexogym/internal/repository"
	"nexogym/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	configured bool
	err        error
	sent       []sentReceipt
}

type sentReceipt struct {
	to, subject, body, pdfPath string
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) SendReceipt(to, subject, body, pdfPath string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentReceipt{to, subject, body, pdfPath})
	return nil
}

func seedSale(t *testing.T, db *gorm.DB, gymID uuid.UUID) *model.Sale {
	t.Helper()
	sale := &model.Sale{
		GymID:        gymID,
		ShiftID:      uuid.New(),
		SellerID:     uuid.New(),
		ReceiptFolio: "R-00000003",
		Total:        decimal.RequireFromString("45.50"),
		CreatedAt:    time.Now().UTC(),
		Items: []model.SaleItem{{
			Position: 1, ProductID: uuid.New(), ProductName: "Agua", Quantity: 2,
			UnitPrice: decimal.RequireFromString("22.75"), LineTotal: decimal.RequireFromString("45.50"),
		}},
	}
	require.NoError(t, db.Create(sale).Error)
	return sale
}

func newReceiptWorker(t *testing.T, db *gorm.DB, sender ReceiptSender) *ReceiptWorker {
	t.Helper()
	return NewReceiptWorker(
		repository.NewSaleRepository(db),
		repository.NewGymRepository(db),
		sender,
		infra.NewCircuitBreaker("smtp", infra.DefaultCBConfig()),
		t.TempDir(),
		infra.NewMetrics(),
	)
}

func payload(t *testing.T, job ReceiptJob) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestReceiptWorker_SendsPDF(t *testing.T) {
	db := testutil.NewDB(t)
	gym := testutil.SeedGym(t, db, model.TierBasic)
	sale := seedSale(t, db, gym.ID)
	sender := &fakeSender{configured: true}
	w := newReceiptWorker(t, db, sender)

	err := w.Process(context.Background(), payload(t, ReceiptJob{SaleID: sale.ID, GymID: gym.ID, ToEmail: "socio@example.com"}))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	got := sender.sent[0]
	assert.Equal(t, "socio@example.com", got.to)
	assert.Contains(t, got.subject, gym.Name)
	assert.Contains(t, got.subject, "R-00000003")
	assert.Contains(t, got.body, "45.50")
	_, statErr := os.Stat(got.pdfPath)
	assert.NoError(t, statErr)
}

func TestReceiptWorker_SkipsWithoutMailerOrAddress(t *testing.T) {
	db := testutil.NewDB(t)
	gym := testutil.SeedGym(t, db, model.TierBasic)
	sale := seedSale(t, db, gym.ID)

	unconfigured := &fakeSender{}
	require.NoError(t, newReceiptWorker(t, db, unconfigured).Process(context.Background(),
		payload(t, ReceiptJob{SaleID: sale.ID, GymID: gym.ID, ToEmail: "socio@example.com"})))
	assert.Empty(t, unconfigured.sent)

	configured := &fakeSender{configured: true}
	require.NoError(t, newReceiptWorker(t, db, configured).Process(context.Background(),
		payload(t, ReceiptJob{SaleID: sale.ID, GymID: gym.ID})))
	assert.Empty(t, configured.sent)
}

func TestReceiptWorker_PermanentFailures(t *testing.T) {
	db := testutil.NewDB(t)
	gym := testutil.SeedGym(t, db, model.TierBasic)
	w := newReceiptWorker(t, db, &fakeSender{configured: true})

	err := w.Process(context.Background(), json.RawMessage(`{"sale_id": 42`))
	assert.True(t, IsPermanent(err))

	err = w.Process(context.Background(), payload(t, ReceiptJob{SaleID: uuid.New(), GymID: gym.ID, ToEmail: "a@b.c"}))
	assert.True(t, IsPermanent(err))
}

func TestReceiptWorker_SendErrorIsRetryable(t *testing.T) {
	db := testutil.NewDB(t)
	gym := testutil.SeedGym(t, db, model.TierBasic)
	sale := seedSale(t, db, gym.ID)
	w := newReceiptWorker(t, db, &fakeSender{configured: true, err: errors.New("dial tcp: timeout")})

	err := w.Process(context.Background(), payload(t, ReceiptJob{SaleID: sale.ID, GymID: gym.ID, ToEmail: "a@b.c"}))

	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}
