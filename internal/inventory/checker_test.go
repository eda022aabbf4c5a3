// internal/inventory/checker_test.go
package inventory

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ferreteria-gateway/internal/common/config"
	"ferreteria-gateway/internal/common/logger"
)

type fakeNotifier struct {
	subjects []string
	messages []string
	status   map[string]string
}

func (f *fakeNotifier) SendAlert(ctx context.Context, subject, message string) map[string]string {
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, message)
	return f.status
}

func newTestChecker(t *testing.T, notifier Notifier) (*Checker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.InventoryConfig{LowStockThreshold: 10, OutOfStockThreshold: 0}
	return NewChecker(db, cfg, notifier, logger.NewTestLogger(t)), mock
}

func stockColumns() []string {
	return []string{"sku", "name", "category", "stock"}
}

// ==========================
// Sweep Classification Tests
// ==========================

func TestChecker_AllStockSufficient(t *testing.T) {
	notifier := &fakeNotifier{}
	checker, mock := newTestChecker(t, notifier)

	mock.ExpectQuery("SELECT p.sku").WillReturnRows(
		sqlmock.NewRows(stockColumns()).
			AddRow("HM-001", "Martillo", "herramientas manuales", 24).
			AddRow("TL-001", "Taladro", "herramientas eléctricas", 15),
	)

	report, err := checker.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ok", report.Status)
	assert.Zero(t, report.OutOfStockCount)
	assert.Zero(t, report.LowStockCount)
	// No alert when everything is in stock.
	assert.Empty(t, notifier.subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecker_ClassifiesByThreshold(t *testing.T) {
	notifier := &fakeNotifier{status: map[string]string{"log": "sent", "email": "disabled", "sms": "disabled"}}
	checker, mock := newTestChecker(t, notifier)

	mock.ExpectQuery("SELECT p.sku").WillReturnRows(
		sqlmock.NewRows(stockColumns()).
			AddRow("HM-001", "Martillo", "herramientas manuales", 0).  // agotado
			AddRow("TL-001", "Taladro", "herramientas eléctricas", 8). // bajo
			AddRow("PT-001", "Pintura blanca", "pintura", 10).         // bajo, boundary
			AddRow("CL-001", "Clavos", "accesorios", 120),             // ok
	)

	report, err := checker.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "alert_generated", report.Status)
	assert.Equal(t, 1, report.OutOfStockCount)
	assert.Equal(t, 2, report.LowStockCount)
	assert.Equal(t, notifier.status, report.DeliveryStatus)

	require.Len(t, notifier.messages, 1)
	alert := notifier.messages[0]
	assert.Contains(t, alert, "ALERTA DE INVENTARIO")
	assert.Contains(t, alert, "PRODUCTOS AGOTADOS (1)")
	assert.Contains(t, alert, "Martillo (SKU: HM-001)")
	assert.Contains(t, alert, "STOCK BAJO (2)")
	assert.Contains(t, alert, "Taladro - Stock: 8 (SKU: TL-001)")
	assert.NotContains(t, alert, "CL-001")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecker_EmptyCatalog(t *testing.T) {
	notifier := &fakeNotifier{}
	checker, mock := newTestChecker(t, notifier)

	mock.ExpectQuery("SELECT p.sku").WillReturnRows(sqlmock.NewRows(stockColumns()))

	report, err := checker.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "No products found.", report.Message)
	assert.Empty(t, notifier.subjects)
}

// ==========================
// Failure Tests
// ==========================

func TestChecker_QueryFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	checker, mock := newTestChecker(t, notifier)

	mock.ExpectQuery("SELECT p.sku").WillReturnError(assert.AnError)

	report, err := checker.Check(context.Background())
	assert.Error(t, err)
	assert.Nil(t, report)
	assert.Empty(t, notifier.subjects)
}
