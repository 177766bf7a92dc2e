package reporting

import (
	"strings"

	"order_srv/internal/models"
)

// Канонические значения группировки.
const (
	GroupingNone       = "none"
	GroupingClient     = "client"
	GroupingManager    = "manager"
	GroupingDepartment = "department"
)

// groupingSynonyms — таблица подстрок, по которым распознаются исторические
// свободные формулировки группировки ("по клиентам", "Группировка: менеджер"
// и т.п.). Порядок проверки фиксирован: клиент, менеджер, подразделение.
var groupingSynonyms = []struct {
	canonical  string
	substrings []string
}{
	{GroupingClient, []string{"client", "клиент"}},
	{GroupingManager, []string{"manager", "менеджер"}},
	{GroupingDepartment, []string{"department", "подразделен", "отдел"}},
}

// NormalizeGrouping приводит произвольное значение группировки к каноническому
// ключу и проверяет его допустимость для типа отчёта. Для employees значения
// client/manager молча понижаются до none — совместимость со старыми данными.
func NormalizeGrouping(reportType, raw string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(raw))

	if g != "" && g != GroupingNone {
		matched := ""
		for _, syn := range groupingSynonyms {
			for _, sub := range syn.substrings {
				if strings.Contains(g, sub) {
					matched = syn.canonical
					break
				}
			}
			if matched != "" {
				break
			}
		}
		g = matched // пустая строка, если ничего не распознано
	} else {
		g = GroupingNone
	}

	if reportType == models.ReportTypeEmployees {
		switch g {
		case GroupingClient, GroupingManager:
			return GroupingNone, nil
		case GroupingNone, GroupingDepartment:
			return g, nil
		}
		return "", validationErrorf("неверная группировка для отчёта по сотрудникам: %q", raw)
	}

	switch g {
	case GroupingNone, GroupingClient, GroupingManager:
		return g, nil
	}
	return "", validationErrorf("неверное значение grouping: %q", raw)
}
