package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"order_srv/internal/models"
	"order_srv/internal/reporting"
	"order_srv/internal/storage"
)

// DefaultPreviewLimit — предел строк предпросмотра по умолчанию.
const DefaultPreviewLimit = 200

// ErrReportNotFound возвращается, когда отчёт с указанным ID не существует.
var ErrReportNotFound = errors.New("отчёт не найден")

// ListReportParams параметры фильтрации списка отчётов
type ListReportParams struct {
	ReportType string
	Status     string
}

// Preview — ограниченный предпросмотр готового отчёта.
type Preview struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	RowsCount int        `json:"rows_count"`
}

// ReportService владеет жизненным циклом отчётов: создание, генерация,
// предпросмотр и выгрузка артефакта. Переходы статуса выполняются синхронно
// в рамках запроса; конкурентные генерации одного отчёта сериализуются
// мьютексом по его ID.
type ReportService struct {
	db      *gorm.DB
	builder *reporting.Builder
	storage storage.Storage
	logger  *logrus.Logger

	locks sync.Map // map[uint]*sync.Mutex
}

// NewReportService создает новый сервис отчетов
func NewReportService(db *gorm.DB, store storage.Storage, logger *logrus.Logger) *ReportService {
	return &ReportService{
		db:      db,
		builder: reporting.NewBuilder(db),
		storage: store,
		logger:  logger,
	}
}

// Create сохраняет отчёт со статусом processing и сразу же синхронно
// запускает генерацию. Итоговый статус (ready или error) виден в отчёте,
// возвращённом вызывающей стороне.
func (s *ReportService) Create(ctx context.Context, report *models.Report) error {
	report.Status = models.StatusProcessing
	if strings.TrimSpace(report.Format) == "" {
		report.Format = models.ReportFormatCSV
	}

	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		s.logger.WithError(err).Error("Ошибка сохранения отчета в БД")
		return fmt.Errorf("ошибка создания отчета: %w", err)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"report_type": report.ReportType,
	})
	logger.Info("Отчет создан, запуск генерации")

	// Ошибка генерации уже записана в статус отчёта; создание не откатываем.
	if err := s.Generate(ctx, report.ID); err != nil {
		logger.WithError(err).Warn("Генерация при создании завершилась ошибкой")
	}

	fresh, err := s.Get(ctx, report.ID)
	if err != nil {
		return err
	}
	*report = *fresh
	return nil
}

// Get получает отчет по ID
func (s *ReportService) Get(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrReportNotFound, id)
		}
		return nil, fmt.Errorf("ошибка получения отчета: %w", err)
	}
	return &report, nil
}

// List возвращает отчёты с фильтрацией по типу и статусу.
func (s *ReportService) List(ctx context.Context, params ListReportParams) ([]models.Report, error) {
	query := s.db.WithContext(ctx).Model(&models.Report{})
	if params.ReportType != "" {
		query = query.Where("report_type = ?", params.ReportType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var reports []models.Report
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("ошибка получения списка отчетов: %w", err)
	}
	return reports, nil
}

// Delete удаляет отчёт и его артефакт (артефакт — по возможности).
func (s *ReportService) Delete(ctx context.Context, id uint) error {
	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if report.HasFile() {
		if err := s.storage.Delete(ctx, report.File); err != nil {
			s.logger.WithError(err).WithField("file", report.File).
				Error("Ошибка удаления файла отчета")
			// Не прерываем удаление отчета из-за ошибки удаления файла
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.Report{}, id).Error; err != nil {
		return fmt.Errorf("ошибка удаления отчета: %w", err)
	}
	return nil
}

// Generate выполняет полный переход жизненного цикла: любой текущий статус →
// ready либо error. Любой сбой шагов генерации записывается в params.error
// и статус error; ранее сохранённый артефакт при этом не удаляется.
func (s *ReportService) Generate(ctx context.Context, id uint) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"report_type": report.ReportType,
		"grouping":    report.Grouping,
	})

	if err := s.generate(ctx, report); err != nil {
		logger.WithError(err).Error("Ошибка генерации отчета")
		s.markError(ctx, report, err)
		return err
	}

	logger.WithFields(logrus.Fields{
		"file":       report.File,
		"rows_count": report.Params["rows_count"],
	}).Info("Отчет сгенерирован успешно")
	return nil
}

// EnsureReady гарантирует, что отчёт готов и артефакт существует, при
// необходимости запуская генерацию. Явная операция, общая для путей
// чтения (предпросмотр и выгрузка). Если повторная генерация не удалась,
// но артефакт прошлой успешной генерации сохранился, отдаём его.
func (s *ReportService) EnsureReady(ctx context.Context, id uint) (*models.Report, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.IsReady() && report.HasFile() {
		return report, nil
	}

	genErr := s.Generate(ctx, id)

	report, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		if report.HasFile() {
			s.logger.WithError(genErr).WithField("report_id", id).
				Warn("Генерация не удалась, отдаём предыдущий артефакт")
			return report, nil
		}
		return nil, genErr
	}
	return report, nil
}

// GetPreview возвращает не более limit строк готового отчёта вместе с
// колонками и сохранённым rows_count. Неготовый отчёт сначала генерируется.
func (s *ReportService) GetPreview(ctx context.Context, id uint, limit int) (*Preview, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	report, err := s.EnsureReady(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, err := s.storage.Get(ctx, report.File)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файла отчета: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла отчета: %w", err)
	}

	columns, rows, err := reporting.ParseCSV(data)
	if err != nil {
		return nil, err
	}

	rowsCount := len(rows)
	if n, ok := report.Params.Int("rows_count"); ok {
		rowsCount = n
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return &Preview{
		Columns:   columns,
		Rows:      rows,
		RowsCount: rowsCount,
	}, nil
}

// Download возвращает содержимое артефакта и имя файла для выгрузки.
// Неготовый отчёт сначала генерируется.
func (s *ReportService) Download(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	report, err := s.EnsureReady(ctx, id)
	if err != nil {
		return nil, "", err
	}

	rc, err := s.storage.Get(ctx, report.File)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка получения файла отчета: %w", err)
	}
	return rc, path.Base(report.File), nil
}

// lockFor возвращает мьютекс генерации для отчёта.
func (s *ReportService) lockFor(id uint) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// generate — успешная ветка перехода: валидация формата, нормализация
// группировки, построение данных, рендер CSV, сохранение артефакта и
// метаданных, статус ready.
func (s *ReportService) generate(ctx context.Context, report *models.Report) error {
	format := strings.ToUpper(strings.TrimSpace(report.Format))
	if format != models.ReportFormatCSV {
		return reporting.NewValidationError(
			fmt.Sprintf("неподдерживаемый формат отчёта: %q (поддерживается только CSV)", report.Format))
	}
	report.Format = models.ReportFormatCSV

	grouping, err := reporting.NormalizeGrouping(report.ReportType, report.Grouping)
	if err != nil {
		return err
	}
	// Каноническую форму сохраняем сразу, чтобы повторные генерации
	// видели уже нормализованное значение.
	if grouping != report.Grouping {
		if err := s.db.WithContext(ctx).Model(report).Update("grouping", grouping).Error; err != nil {
			return fmt.Errorf("ошибка сохранения нормализованной группировки: %w", err)
		}
		report.Grouping = grouping
	}

	columns, rows, err := s.builder.Build(report.ReportType, report.PeriodFrom, report.PeriodTo, grouping)
	if err != nil {
		return err
	}

	data, err := reporting.RenderCSV(columns, rows)
	if err != nil {
		return err
	}

	key := artifactKey(report)
	if err := s.storage.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("ошибка сохранения артефакта: %w", err)
	}

	report.File = key
	if report.Params == nil {
		report.Params = models.JSON{}
	}
	report.Params["columns"] = columns
	report.Params["rows_count"] = len(rows)
	// Успешная генерация снимает ошибку прошлой неудачной попытки.
	delete(report.Params, "error")
	report.Status = models.StatusReady

	if err := s.db.WithContext(ctx).Save(report).Error; err != nil {
		return fmt.Errorf("ошибка сохранения отчета: %w", err)
	}
	return nil
}

// markError записывает сообщение сбоя в params.error и переводит отчёт в
// статус error. Поле file не трогаем: прошлый артефакт остаётся доступным.
func (s *ReportService) markError(ctx context.Context, report *models.Report, genErr error) {
	if report.Params == nil {
		report.Params = models.JSON{}
	}
	report.Params["error"] = genErr.Error()
	report.Status = models.StatusError

	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", report.ID).
		Updates(map[string]interface{}{
			"status": models.StatusError,
			"params": report.Params,
		}).Error
	if err != nil {
		s.logger.WithError(err).WithField("report_id", report.ID).
			Error("Ошибка записи статуса error")
	}
}

// artifactKey строит ключ артефакта: URL-безопасный слаг заголовка
// (либо report-<id>, если слаг пуст) плюс метка времени генерации.
func artifactKey(report *models.Report) string {
	base := slug.Make(report.Title)
	if base == "" {
		base = fmt.Sprintf("report-%d", report.ID)
	}
	return fmt.Sprintf("reports/%s_%s.csv", base, time.Now().Format("20060102_150405"))
}
