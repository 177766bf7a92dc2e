package reporting

import "fmt"

// ValidationError — ошибка валидации параметров отчёта (неподдерживаемый
// формат, тип отчёта или группировка). На HTTP-границе отображается
// как отклонённый запрос, в отличие от сбоев генерации.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError создаёт ошибку валидации с готовым сообщением.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
