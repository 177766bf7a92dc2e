package reporting

import (
	"time"

	"gorm.io/gorm"

	"order_srv/internal/models"
)

// Builder строит табличные данные отчёта (колонки и строки) по типу отчёта
// и уже нормализованной группировке. Не знает о статусах, файлах и
// персистентности — только читающие запросы к доменному хранилищу.
type Builder struct {
	db *gorm.DB
}

// NewBuilder создаёт построитель отчётов поверх доменного хранилища.
func NewBuilder(db *gorm.DB) *Builder {
	return &Builder{db: db}
}

// Build диспетчеризует запрос по паре (тип отчёта, группировка).
// Группировка должна быть предварительно нормализована через NormalizeGrouping;
// неизвестный тип или недопустимая комбинация — ошибка валидации.
func (b *Builder) Build(reportType string, from, to *time.Time, grouping string) ([]string, []map[string]any, error) {
	switch reportType {
	case models.ReportTypeOrders:
		switch grouping {
		case GroupingNone:
			return queryOrdersPlain(b.db, from, to)
		case GroupingClient:
			return queryOrdersByClient(b.db, from, to)
		case GroupingManager:
			return queryOrdersByManager(b.db, from, to)
		}
		return nil, nil, validationErrorf("неверная группировка для отчёта по заказам: %q", grouping)

	case models.ReportTypeFinance:
		switch grouping {
		case GroupingNone:
			return queryFinancePlain(b.db, from, to)
		case GroupingClient:
			return queryOrdersByClient(b.db, from, to)
		case GroupingManager:
			return queryOrdersByManager(b.db, from, to)
		}
		return nil, nil, validationErrorf("неверная группировка для финансового отчёта: %q", grouping)

	case models.ReportTypeEmployees:
		switch grouping {
		case GroupingNone:
			return queryEmployeesPlain(b.db, from, to)
		case GroupingDepartment:
			return queryEmployeesByDepartment(b.db, from, to)
		}
		return nil, nil, validationErrorf("неверная группировка для отчёта по сотрудникам: %q", grouping)
	}

	return nil, nil, validationErrorf("неверный report_type: %q", reportType)
}
