package get_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const (
	msgUnauthorized        = "требуется авторизация"
	msgInvalidID           = "некорректный идентификатор бронирования"
	msgReservationNotFound = "бронирование не найдено"
	msgAccessDenied        = "нет доступа к бронированию"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/reservations/{reservationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.logger.Warn("GET /reservations/{id} - missing identity")
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	reservationID := mux.Vars(r)["reservationId"]

	resp, err := h.service.GetByID(r.Context(), reservationID, identity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("GET /reservations/{id} - Invalid reservation_id=%q: %v", reservationID, err)
			handlers.RespondBadRequest(w, msgInvalidID)
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("GET /reservations/{id} - Reservation not found: reservation_id=%s", reservationID)
			handlers.RespondNotFound(w, msgReservationNotFound)
		case errors.Is(err, domain.ErrForbidden):
			h.logger.Warn("GET /reservations/{id} - Access denied: reservation_id=%s, user=%s", reservationID, identity.UserID)
			handlers.RespondForbidden(w, msgAccessDenied)
		case errors.Is(err, domain.ErrUnauthorized):
			handlers.RespondUnauthorized(w, msgUnauthorized)
		default:
			h.logger.Error("GET /reservations/{id} - Failed to get reservation: reservation_id=%s, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /reservations/{id} - Reservation retrieved: reservation_id=%s", reservationID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
