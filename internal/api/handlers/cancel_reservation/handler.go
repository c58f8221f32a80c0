package cancel_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	uc "github.com/m04kA/SMC-ReservationService/internal/usecase/cancel_reservation"
)

const (
	msgUnauthorized        = "требуется авторизация"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgReservationNotFound = "бронирование не найдено"
	msgAccessDenied        = "нет прав на отмену бронирования"
	msgNotCancellable      = "бронирование в текущем статусе нельзя отменить"
	msgConflict            = "бронирование изменено параллельно, повторите запрос"
	msgExternalUnavailable = "внешний сервис недоступен, бронирование не отменено"
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

// Handle DELETE /api/v1/reservations/{reservationId}
// Handle POST /api/v1/reservations/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.logger.Warn("CANCEL /reservations - missing identity")
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	reservationID, ok := mux.Vars(r)["reservationId"]
	if !ok {
		var req CancelReservationRequest
		if err := handlers.DecodeJSON(r, &req); err != nil {
			h.logger.Warn("CANCEL /reservations - Invalid request body: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return
		}
		reservationID = req.ReservationID
	}

	resp, err := h.useCase.Execute(r.Context(), &uc.Request{Identity: identity, ReservationID: reservationID})
	if err != nil {
		switch {
		case errors.Is(err, uc.ErrNotCommitted):
			h.logger.Error("CANCEL /reservations - Cancellation not committed after external steps: reservation_id=%s, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("CANCEL /reservations - Validation error: %v", err)
			handlers.RespondBadRequest(w, err.Error())
		case errors.Is(err, domain.ErrUnauthorized):
			handlers.RespondUnauthorized(w, msgUnauthorized)
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("CANCEL /reservations - Reservation not found: reservation_id=%s", reservationID)
			handlers.RespondNotFound(w, msgReservationNotFound)
		case errors.Is(err, domain.ErrForbidden):
			h.logger.Warn("CANCEL /reservations - Access denied: reservation_id=%s, user=%s", reservationID, identity.UserID)
			handlers.RespondForbidden(w, msgAccessDenied)
		case errors.Is(err, domain.ErrIllegalTransition):
			h.logger.Warn("CANCEL /reservations - Not cancellable: %v", err)
			handlers.RespondConflict(w, msgNotCancellable)
		case errors.Is(err, domain.ErrConflict):
			h.logger.Warn("CANCEL /reservations - Conflict: %v", err)
			handlers.RespondConflict(w, msgConflict)
		case errors.Is(err, domain.ErrExternalUnavailable):
			h.logger.Warn("CANCEL /reservations - External service failed: %v", err)
			handlers.RespondBadGateway(w, msgExternalUnavailable)
		default:
			h.logger.Error("CANCEL /reservations - Failed to cancel reservation_id=%s: %v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("CANCEL /reservations - Reservation cancelled: reservation_id=%s", resp.ReservationID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp))
}
