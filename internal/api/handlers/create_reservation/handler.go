package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	uc "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

// HeaderIdempotencyKey заголовок с клиентским ключом идемпотентности
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgUnauthorized         = "требуется авторизация"
	msgForbidden            = "недостаточно прав"
	msgKeyReused            = "ключ идемпотентности уже использован для другого бронирования"
	msgConflict             = "бронирование уже обрабатывается, повторите запрос позже"
	msgExternalUnavailable  = "внешний сервис недоступен, бронирование не создано"
	msgCompensationDegraded = "откат бронирования не завершен, требуется сверка"
)

type Handler struct {
	useCase UseCase
	logger  Logger
}

func NewHandler(useCase UseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - missing identity")
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(identity, r.Header.Get(HeaderIdempotencyKey)))
	if err != nil {
		h.respondError(w, err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}

	h.logger.Info("POST /reservations - Reservation created: reservation_id=%s, status=%s, replayed=%t",
		resp.ReservationID, resp.Status, resp.Replayed)
	handlers.RespondJSON(w, status, FromUseCaseResponse(resp))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.logger.Warn("POST /reservations - Validation error: %v", err)
		handlers.RespondBadRequest(w, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.logger.Warn("POST /reservations - Unauthorized: %v", err)
		handlers.RespondUnauthorized(w, msgUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		h.logger.Warn("POST /reservations - Forbidden: %v", err)
		handlers.RespondForbidden(w, msgForbidden)
	case errors.Is(err, uc.ErrIdempotencyKeyReused):
		h.logger.Warn("POST /reservations - Idempotency key reused: %v", err)
		handlers.RespondConflict(w, msgKeyReused)
	case errors.Is(err, domain.ErrConflict):
		h.logger.Warn("POST /reservations - Conflict: %v", err)
		handlers.RespondConflict(w, msgConflict)
	case errors.Is(err, uc.ErrPersistFailed):
		h.logger.Error("POST /reservations - Reservation not persisted: %v", err)
		handlers.RespondInternalError(w)
	case errors.Is(err, uc.ErrCompensationDegraded):
		h.logger.Error("POST /reservations - Saga failed with incomplete compensation: %v", err)
		handlers.RespondErrorWithWarning(w, http.StatusBadGateway, msgExternalUnavailable, msgCompensationDegraded)
	case errors.Is(err, domain.ErrExternalUnavailable):
		h.logger.Warn("POST /reservations - External service failed: %v", err)
		handlers.RespondBadGateway(w, msgExternalUnavailable)
	default:
		h.logger.Error("POST /reservations - Internal error: %v", err)
		handlers.RespondInternalError(w)
	}
}
