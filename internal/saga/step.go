package saga

import "context"

// Step шаг саги с объявленной компенсацией
type Step struct {
	Name string

	// Action выполняет вызов внешнего сервиса
	Action func(ctx context.Context) error

	// Compensate отменяет результат успешного Action, nil если отменять нечего
	Compensate func(ctx context.Context) error
}

// CompensationFailure компенсация, которая завершилась ошибкой
type CompensationFailure struct {
	Step string
	Err  error
}

// Report итог выполнения саги
type Report struct {
	Saga                 string
	Completed            []string
	FailedStep           string
	Compensated          []string
	CompensationFailures []CompensationFailure
}

// Degraded возвращает true, если хотя бы одна компенсация не удалась
// и результат требует сверки вне саги
func (r *Report) Degraded() bool {
	return len(r.CompensationFailures) > 0
}
