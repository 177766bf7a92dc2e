package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"order_srv/internal/models"
	"order_srv/internal/reporting"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memStorage is an in-memory Storage implementation for tests.
// saveErr, when set, makes every Save attempt fail.
type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Save(ctx context.Context, key string, reader io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.files[key] = data
	return nil
}

func (m *memStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

func (m *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[key]
	return ok, nil
}

func (m *memStorage) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	return data, ok
}

func setupTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Client{}, &models.Employee{},
		&models.Order{}, &models.Report{},
	)
	require.NoError(t, err)

	return db
}

func seedOrders(t *testing.T, db *gorm.DB) {
	client := models.Client{Name: "Acme"}
	require.NoError(t, db.Create(&client).Error)

	manager := models.Employee{FullName: "Иванов И.И.", TabNumber: "T-001", Department: "Продажи"}
	require.NoError(t, db.Create(&manager).Error)

	orders := []models.Order{
		{
			Number: "ORD-001", Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			ClientID: client.ID, ManagerID: manager.ID,
			AmountTotal: decimal.RequireFromString("100.00"),
		},
		{
			Number: "ORD-002", Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			ClientID: client.ID, ManagerID: manager.ID,
			AmountTotal: decimal.RequireFromString("50.50"),
		},
	}
	for i := range orders {
		require.NoError(t, db.Create(&orders[i]).Error)
	}
}

func setupService(t *testing.T) (*ReportService, *memStorage, *gorm.DB) {
	db := setupTestDB(t)
	seedOrders(t, db)
	store := newMemStorage()
	svc := NewReportService(db, store, setupTestLogger())
	return svc, store, db
}

func TestCreateGeneratesSynchronously(t *testing.T) {
	svc, store, _ := setupService(t)

	report := &models.Report{
		Title:      "Отчет по заказам",
		ReportType: models.ReportTypeOrders,
	}
	err := svc.Create(context.Background(), report)
	require.NoError(t, err)

	assert.NotZero(t, report.ID)
	assert.Equal(t, models.StatusReady, report.Status)
	assert.True(t, report.HasFile())
	assert.True(t, strings.HasPrefix(report.File, "reports/"))
	assert.True(t, strings.HasSuffix(report.File, ".csv"))

	n, ok := report.Params.Int("rows_count")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	data, ok := store.get(report.File)
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(data, reporting.UTF8BOM))
}

func TestCreateWithInvalidTypeMarksError(t *testing.T) {
	svc, _, _ := setupService(t)

	report := &models.Report{
		Title:      "Сломанный",
		ReportType: "unknown",
	}
	err := svc.Create(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, report.Status)
	assert.False(t, report.HasFile())
	assert.NotEmpty(t, report.Params["error"])
}

func TestCreateWithUnsupportedFormat(t *testing.T) {
	svc, _, _ := setupService(t)

	report := &models.Report{
		Title:      "XLSX",
		ReportType: models.ReportTypeOrders,
		Format:     "XLSX",
	}
	err := svc.Create(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, report.Status)
	assert.Contains(t, report.Params["error"], "формат")
}

func TestGeneratePersistsCanonicalGrouping(t *testing.T) {
	svc, _, db := setupService(t)

	report := &models.Report{
		Title:      "По клиентам",
		ReportType: models.ReportTypeOrders,
		Grouping:   "по клиентам",
	}
	require.NoError(t, svc.Create(context.Background(), report))
	assert.Equal(t, models.StatusReady, report.Status)
	assert.Equal(t, "client", report.Grouping)

	var stored models.Report
	require.NoError(t, db.First(&stored, report.ID).Error)
	assert.Equal(t, "client", stored.Grouping)
}

func TestGenerateAggregatedAmounts(t *testing.T) {
	svc, store, _ := setupService(t)

	report := &models.Report{
		Title:      "Сводка",
		ReportType: models.ReportTypeOrders,
		Grouping:   "client",
	}
	require.NoError(t, svc.Create(context.Background(), report))
	require.Equal(t, models.StatusReady, report.Status)

	data, ok := store.get(report.File)
	require.True(t, ok)

	cols, rows, err := reporting.ParseCSV(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"client", "orders_count", "amount_total_sum"}, cols)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Acme", "2", "150.50"}, rows[0])
}

func TestRegenerateClearsStaleError(t *testing.T) {
	svc, _, db := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Повторный",
		ReportType: models.ReportTypeOrders,
		Grouping:   "weekly", // not recognized
	}
	require.NoError(t, svc.Create(ctx, report))
	require.Equal(t, models.StatusError, report.Status)
	require.NotEmpty(t, report.Params["error"])

	// Fix the grouping and regenerate
	require.NoError(t, db.Model(&models.Report{}).
		Where("id = ?", report.ID).Update("grouping", "client").Error)
	require.NoError(t, svc.Generate(ctx, report.ID))

	fresh, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, fresh.Status)
	assert.True(t, fresh.HasFile())
	_, hasErr := fresh.Params["error"]
	assert.False(t, hasErr)
}

func TestFailedRegenerationKeepsArtifact(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Устойчивый",
		ReportType: models.ReportTypeOrders,
	}
	require.NoError(t, svc.Create(ctx, report))
	require.Equal(t, models.StatusReady, report.Status)
	oldFile := report.File

	// Break the next generation attempt at the storage step
	store.mu.Lock()
	store.saveErr = io.ErrClosedPipe
	store.mu.Unlock()

	err := svc.Generate(ctx, report.ID)
	require.Error(t, err)

	fresh, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, fresh.Status)
	assert.NotEmpty(t, fresh.Params["error"])

	// Previous artifact reference and content survive the failure
	assert.Equal(t, oldFile, fresh.File)
	_, ok := store.get(oldFile)
	assert.True(t, ok)
}

func TestDownloadAfterFailedRegeneration(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Со старым артефактом",
		ReportType: models.ReportTypeOrders,
	}
	require.NoError(t, svc.Create(ctx, report))
	require.Equal(t, models.StatusReady, report.Status)

	want, ok := store.get(report.File)
	require.True(t, ok)

	store.mu.Lock()
	store.saveErr = io.ErrClosedPipe
	store.mu.Unlock()
	require.Error(t, svc.Generate(ctx, report.ID))

	// The previous artifact is still served
	rc, _, err := svc.Download(ctx, report.ID)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGenerateTwiceIdempotent(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Дважды",
		ReportType: models.ReportTypeOrders,
		Grouping:   "client",
	}
	require.NoError(t, svc.Create(ctx, report))
	require.Equal(t, models.StatusReady, report.Status)
	firstFile := report.File
	firstData, ok := store.get(firstFile)
	require.True(t, ok)

	require.NoError(t, svc.Generate(ctx, report.ID))

	fresh, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, fresh.Status)

	secondData, ok := store.get(fresh.File)
	require.True(t, ok)
	// Row content is structurally identical across runs
	assert.Equal(t, firstData, secondData)
}

func TestGenerateNotFound(t *testing.T) {
	svc, _, _ := setupService(t)

	err := svc.Generate(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestGetPreview(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Предпросмотр",
		ReportType: models.ReportTypeOrders,
	}
	require.NoError(t, svc.Create(ctx, report))

	preview, err := svc.GetPreview(ctx, report.ID, 0)
	require.NoError(t, err)
	assert.Len(t, preview.Columns, 10)
	assert.Len(t, preview.Rows, 2)
	assert.Equal(t, 2, preview.RowsCount)
}

func TestGetPreviewLimit(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Ограниченный",
		ReportType: models.ReportTypeOrders,
	}
	require.NoError(t, svc.Create(ctx, report))

	preview, err := svc.GetPreview(ctx, report.ID, 1)
	require.NoError(t, err)
	assert.Len(t, preview.Rows, 1)
	// Full count is preserved even when rows are truncated
	assert.Equal(t, 2, preview.RowsCount)
}

func TestGetPreviewTriggersGeneration(t *testing.T) {
	svc, _, db := setupService(t)
	ctx := context.Background()

	// A report stuck in processing, created outside the service
	report := models.Report{
		Title:      "Зависший",
		ReportType: models.ReportTypeOrders,
		Format:     models.ReportFormatCSV,
		Status:     models.StatusProcessing,
	}
	require.NoError(t, db.Create(&report).Error)

	preview, err := svc.GetPreview(ctx, report.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, preview.RowsCount)

	fresh, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, fresh.Status)
}

func TestDownload(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Выгрузка",
		ReportType: models.ReportTypeFinance,
	}
	require.NoError(t, svc.Create(ctx, report))

	rc, filename, err := svc.Download(ctx, report.ID)
	require.NoError(t, err)
	defer rc.Close()

	assert.True(t, strings.HasSuffix(filename, ".csv"))
	assert.NotContains(t, filename, "/")

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, reporting.UTF8BOM))
}

func TestListFilters(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	for _, rt := range []string{models.ReportTypeOrders, models.ReportTypeFinance} {
		report := &models.Report{Title: "Фильтр " + rt, ReportType: rt}
		require.NoError(t, svc.Create(ctx, report))
	}
	broken := &models.Report{Title: "Ошибка", ReportType: "unknown"}
	require.NoError(t, svc.Create(ctx, broken))

	all, err := svc.List(ctx, ListReportParams{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	finance, err := svc.List(ctx, ListReportParams{ReportType: models.ReportTypeFinance})
	require.NoError(t, err)
	assert.Len(t, finance, 1)

	failed, err := svc.List(ctx, ListReportParams{Status: models.StatusError})
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestDeleteRemovesArtifact(t *testing.T) {
	svc, store, db := setupService(t)
	ctx := context.Background()

	report := &models.Report{
		Title:      "Удаляемый",
		ReportType: models.ReportTypeOrders,
	}
	require.NoError(t, svc.Create(ctx, report))
	require.True(t, report.HasFile())

	require.NoError(t, svc.Delete(ctx, report.ID))

	_, ok := store.get(report.File)
	assert.False(t, ok)

	var count int64
	db.Model(&models.Report{}).Where("id = ?", report.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeleteNotFound(t *testing.T) {
	svc, _, _ := setupService(t)
	err := svc.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, ErrReportNotFound)
}
