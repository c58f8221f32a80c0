package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/auth"
	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Значения по умолчанию
const (
	DefaultInterval = time.Minute
	releaseTimeout  = 5 * time.Second
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// HoldReleaser освобождает захват номера в сервисе инвентаря
type HoldReleaser interface {
	Release(ctx context.Context, token, lockID string) error
}

// TokenIssuer выпускает внутренний токен от имени владельца брони
type TokenIssuer interface {
	Issue(identity domain.Identity, scope string, ttl time.Duration) (string, *auth.Claims, error)
}

// Recorder регистрирует захваты, которые сага не смогла освободить
type Recorder struct {
	ledger Ledger
	clock  clock.Clock
	logger Logger
}

// NewRecorder создает Recorder
func NewRecorder(ledger Ledger, clk clock.Clock, logger Logger) *Recorder {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Recorder{ledger: ledger, clock: clk, logger: logger}
}

// Record сохраняет осиротевший захват для фоновой сверки
func (r *Recorder) Record(ctx context.Context, hold OrphanedHold) error {
	if hold.RecordedAt.IsZero() {
		hold.RecordedAt = r.clock.Now()
	}
	if err := r.ledger.Add(ctx, hold); err != nil {
		r.logger.Error("Record: lock_id=%s reservation_id=%s lost, ledger failed: %v", hold.LockID, hold.ReservationID, err)
		return err
	}
	r.logger.Warn("Record: lock_id=%s reservation_id=%s queued for reconciliation: %s", hold.LockID, hold.ReservationID, hold.Reason)
	return nil
}

// Sweeper периодически повторяет освобождение осиротевших захватов
type Sweeper struct {
	ledger   Ledger
	releaser HoldReleaser
	issuer   TokenIssuer
	clock    clock.Clock
	logger   Logger
	interval time.Duration
	minAge   time.Duration
}

// NewSweeper создает Sweeper
// minAge откладывает обработку свежих записей, чтобы не гоняться за только что упавшей сагой
func NewSweeper(ledger Ledger, releaser HoldReleaser, issuer TokenIssuer, clk clock.Clock, logger Logger, interval, minAge time.Duration) *Sweeper {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		ledger:   ledger,
		releaser: releaser,
		issuer:   issuer,
		clock:    clk,
		logger:   logger,
		interval: interval,
		minAge:   minAge,
	}
}

// Run выполняет проходы до отмены ctx
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Sweeper: started, interval %v", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Sweep(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep выполняет один проход и возвращает число освобожденных захватов
// Запись удаляется после успешного освобождения или если захват уже не существует
func (s *Sweeper) Sweep(ctx context.Context) int {
	holds, err := s.ledger.List(ctx)
	if err != nil {
		s.logger.Error("Sweep: list orphaned holds: %v", err)
		return 0
	}

	now := s.clock.Now()
	released := 0
	for _, hold := range holds {
		if ctx.Err() != nil {
			return released
		}
		if now.Sub(hold.RecordedAt) < s.minAge {
			continue
		}

		if err := s.release(ctx, hold); err != nil {
			hold.Attempts++
			s.logger.Warn("Sweep: lock_id=%s reservation_id=%s attempt %d failed: %v",
				hold.LockID, hold.ReservationID, hold.Attempts, err)
			if err := s.ledger.Add(ctx, hold); err != nil {
				s.logger.Error("Sweep: update lock_id=%s: %v", hold.LockID, err)
			}
			continue
		}

		if err := s.ledger.Remove(ctx, hold.LockID); err != nil {
			s.logger.Error("Sweep: remove lock_id=%s: %v", hold.LockID, err)
			continue
		}
		released++
		s.logger.Info("Sweep: lock_id=%s reservation_id=%s reconciled", hold.LockID, hold.ReservationID)
	}

	return released
}

func (s *Sweeper) release(ctx context.Context, hold OrphanedHold) error {
	token, _, err := s.issuer.Issue(hold.Owner, domain.ScopeReservationsWrite, 0)
	if err != nil {
		return err
	}

	releaseCtx, cancel := context.WithTimeout(ctx, releaseTimeout)
	defer cancel()

	err = s.releaser.Release(releaseCtx, token, hold.LockID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
