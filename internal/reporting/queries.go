package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"order_srv/internal/models"
)

// isoDate форматирует дату в ISO-8601 (YYYY-MM-DD), пустая строка для nil.
func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// renderAmount форматирует денежную сумму с двумя знаками после запятой.
func renderAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// renderSum форматирует агрегированную сумму: литеральный "0", если в периоде
// не было ни одного заказа, иначе две десятичных.
func renderSum(count int, sum decimal.Decimal) string {
	if count == 0 {
		return "0"
	}
	return sum.StringFixed(2)
}

// ordersInPeriod возвращает заказы за период вместе с клиентом и менеджером,
// отсортированные по дате (убыв.) и номеру (возр.). Обе границы включительны;
// отсутствующая граница означает отсутствие ограничения.
func ordersInPeriod(db *gorm.DB, from, to *time.Time) ([]models.Order, error) {
	q := db.Preload("Client").Preload("Manager")
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}

	var orders []models.Order
	if err := q.Order("date DESC, number ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("выборка заказов за период: %w", err)
	}
	return orders, nil
}

// queryOrdersPlain строит построчный отчёт по заказам.
func queryOrdersPlain(db *gorm.DB, from, to *time.Time) ([]string, []map[string]any, error) {
	columns := []string{
		"number", "date", "client", "department", "manager",
		"status", "priority", "order_type", "planned_date", "amount_total",
	}

	orders, err := ordersInPeriod(db, from, to)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, map[string]any{
			"number":       o.Number,
			"date":         isoDate(&o.Date),
			"client":       o.Client.Name,
			"department":   o.Department,
			"manager":      o.Manager.FullName,
			"status":       o.Status,
			"priority":     o.Priority,
			"order_type":   o.OrderType,
			"planned_date": isoDate(o.PlannedDate),
			"amount_total": renderAmount(o.AmountTotal),
		})
	}
	return columns, rows, nil
}

// queryFinancePlain строит построчный финансовый отчёт (сокращённый набор колонок).
func queryFinancePlain(db *gorm.DB, from, to *time.Time) ([]string, []map[string]any, error) {
	columns := []string{"date", "number", "client", "manager", "amount_total"}

	orders, err := ordersInPeriod(db, from, to)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, map[string]any{
			"date":         isoDate(&o.Date),
			"number":       o.Number,
			"client":       o.Client.Name,
			"manager":      o.Manager.FullName,
			"amount_total": renderAmount(o.AmountTotal),
		})
	}
	return columns, rows, nil
}

// orderAggregate накапливает количество заказов и сумму по одному ключу группировки.
type orderAggregate struct {
	count int
	sum   decimal.Decimal
}

// aggregateOrdersBy группирует заказы за период по произвольному строковому
// ключу. В результат попадают только ключи, по которым есть хотя бы один заказ.
func aggregateOrdersBy(db *gorm.DB, from, to *time.Time, keyOf func(models.Order) string) (map[string]*orderAggregate, []string, error) {
	orders, err := ordersInPeriod(db, from, to)
	if err != nil {
		return nil, nil, err
	}

	agg := make(map[string]*orderAggregate)
	for _, o := range orders {
		key := keyOf(o)
		a, ok := agg[key]
		if !ok {
			a = &orderAggregate{}
			agg[key] = a
		}
		a.count++
		a.sum = a.sum.Add(o.AmountTotal)
	}

	keys := make([]string, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return agg, keys, nil
}

// queryOrdersByClient строит сводку заказов по клиентам.
func queryOrdersByClient(db *gorm.DB, from, to *time.Time) ([]string, []map[string]any, error) {
	columns := []string{"client", "orders_count", "amount_total_sum"}

	agg, keys, err := aggregateOrdersBy(db, from, to, func(o models.Order) string { return o.Client.Name })
	if err != nil {
		return nil, nil, err
	}

	rows := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		a := agg[k]
		rows = append(rows, map[string]any{
			"client":           k,
			"orders_count":     a.count,
			"amount_total_sum": renderSum(a.count, a.sum),
		})
	}
	return columns, rows, nil
}

// queryOrdersByManager строит сводку заказов по менеджерам.
func queryOrdersByManager(db *gorm.DB, from, to *time.Time) ([]string, []map[string]any, error) {
	columns := []string{"manager", "orders_count", "amount_total_sum"}

	agg, keys, err := aggregateOrdersBy(db, from, to, func(o models.Order) string { return o.Manager.FullName })
	if err != nil {
		return nil, nil, err
	}

	rows := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		a := agg[k]
		rows = append(rows, map[string]any{
			"manager":          k,
			"orders_count":     a.count,
			"amount_total_sum": renderSum(a.count, a.sum),
		})
	}
	return columns, rows, nil
}

// ordersByManagerID возвращает агрегаты заказов за период с ключом по
// ответственному менеджеру. Используется отчётами по сотрудникам.
func ordersByManagerID(db *gorm.DB, from, to *time.Time) (map[uint]*orderAggregate, error) {
	q := db.Model(&models.Order{})
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("выборка заказов для агрегации по менеджерам: %w", err)
	}

	agg := make(map[uint]*orderAggregate)
	for _, o := range orders {
		a, ok := agg[o.ManagerID]
		if !ok {
			a = &orderAggregate{}
			agg[o.ManagerID] = a
		}
		a.count++
		a.sum = a.sum.Add(o.AmountTotal)
	}
	return agg, nil
}

// queryEmployeesPlain строит отчёт по сотрудникам: каждый сотрудник
// перечисляется безусловно, а счётчики заказов фильтруются периодом.
func queryEmployeesPlain(db *gorm.DB, from, to *time.Time) ([]string, []map[string]any, error) {
	columns := []string{
		"full_name", "tab_number", "position", "department", "status",
		"orders_count", "amount_total_sum",
	}

	var employees []models.Employee
	if err := db.Order("full_name ASC").Find(&employees).Error; err != nil {
		return nil, nil, fmt.Errorf("выборка сотрудников: %w", err)
	}

	agg, err := ordersByManagerID(db, from, to)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]map[string]any, 0, len(employees))
	for _, e := range employees {
		count := 0
		sum := decimal.Zero
		if a, ok := agg[e.ID]; ok {
			count = a.count
			sum = a.sum
		}
		rows = append(rows, map[string]any{
			"full_name":        e.FullName,
			"tab_number":       e.TabNumber,
			"position":         e.Position,
			"department":       e.Department,
			"status":           e.Status,
			"orders_count":     count,
			"amount_total_sum": renderSum(count, sum),
		})
	}
	return columns, rows, nil
}

// queryEmployeesByDepartment строит сводку по подразделениям: численность
// подразделения считается без учёта периода, заказы — в границах периода.
func queryEmployeesByDepartment(db *gorm.DB, from, to *time.Time) ([]string, []map[string]any, error) {
	columns := []string{"department", "employees_count", "orders_count", "amount_total_sum"}

	var employees []models.Employee
	if err := db.Order("department ASC").Find(&employees).Error; err != nil {
		return nil, nil, fmt.Errorf("выборка сотрудников: %w", err)
	}

	orderAgg, err := ordersByManagerID(db, from, to)
	if err != nil {
		return nil, nil, err
	}

	type deptAggregate struct {
		employees int
		orders    int
		sum       decimal.Decimal
	}
	agg := make(map[string]*deptAggregate)
	for _, e := range employees {
		d, ok := agg[e.Department]
		if !ok {
			d = &deptAggregate{}
			agg[e.Department] = d
		}
		d.employees++
		if a, ok := orderAgg[e.ID]; ok {
			d.orders += a.count
			d.sum = d.sum.Add(a.sum)
		}
	}

	depts := make([]string, 0, len(agg))
	for k := range agg {
		depts = append(depts, k)
	}
	sort.Strings(depts)

	rows := make([]map[string]any, 0, len(depts))
	for _, k := range depts {
		d := agg[k]
		rows = append(rows, map[string]any{
			"department":       k,
			"employees_count":  d.employees,
			"orders_count":     d.orders,
			"amount_total_sum": renderSum(d.orders, d.sum),
		})
	}
	return columns, rows, nil
}
