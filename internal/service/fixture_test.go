package service

import (
	"context"
	"sync"
	"testing"

	"nexogym/internal/dto"
	"nexogym/internal/infra"
	"nexogym/internal/model"
	"nexogym/internal/repository"
	"nexogym/internal/testutil"
	"nexogym/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fake dispatcher ──────────────────────────────────────────────────────────

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []worker.ReceiptJob
	err  error
}

func (d *fakeDispatcher) EnqueueReceipt(_ context.Context, job worker.ReceiptJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

var _ ReceiptDispatcher = (*fakeDispatcher)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	db         *gorm.DB
	gym        *model.Gym
	reception  *model.User
	reception2 *model.User
	admin      *model.User

	shifts     ShiftService
	sales      SaleService
	reports    ReportService
	audit      repository.AuditRepository
	metrics    *infra.Metrics
	dispatcher *fakeDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	gym := testutil.SeedGym(t, db, model.TierBasic)

	shiftRepo := repository.NewShiftRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	movementRepo := repository.NewInventoryMovementRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	metrics := infra.NewMetrics()
	dispatcher := &fakeDispatcher{}

	inventory := NewInventoryService(repository.NewProductRepository(db), movementRepo)

	return &fixture{
		db:         db,
		gym:        gym,
		reception:  testutil.SeedUser(t, db, &gym.ID, model.RoleReception, "Ana"),
		reception2: testutil.SeedUser(t, db, &gym.ID, model.RoleReception, "Bruno"),
		admin:      testutil.SeedUser(t, db, &gym.ID, model.RoleAdmin, "Carla"),
		shifts:     NewShiftService(shiftRepo, expenseRepo, auditRepo, metrics),
		sales:      NewSaleService(saleRepo, shiftRepo, inventory, dispatcher, metrics),
		reports:    NewReportService(repository.NewReportRepository(db), shiftRepo, saleRepo, expenseRepo, movementRepo),
		audit:      auditRepo,
		metrics:    metrics,
		dispatcher: dispatcher,
	}
}

func actorOf(u *model.User) Actor {
	return Actor{UserID: u.ID, GymID: *u.GymID, Role: u.Role}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func (f *fixture) open(t *testing.T, u *model.User, opening string) *dto.ShiftResponse {
	t.Helper()
	resp, err := f.shifts.Open(context.Background(), actorOf(u), dto.OpenShiftRequest{OpeningBalance: dec(opening)})
	require.NoError(t, err)
	return resp
}

func saleOf(items ...dto.SaleItemRequest) dto.RecordSaleRequest {
	return dto.RecordSaleRequest{Items: items}
}

func line(p *model.Product, qty int) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: p.ID.String(), Quantity: qty}
}

// assertDec compares decimals by value so 45.5 and 45.50 match.
func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}
