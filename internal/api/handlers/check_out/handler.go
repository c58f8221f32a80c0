package check_out

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
	msgStaffOnly           = "выезд отмечает только персонал отеля"
	msgIllegalTransition   = "выезд невозможен в текущем статусе бронирования"
	msgConflict            = "бронирование изменено параллельно, повторите запрос"
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

// Handle POST /api/v1/reservations/{reservationId}/checkout
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations/{id}/checkout - missing identity")
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	reservationID := mux.Vars(r)["reservationId"]

	resp, err := h.service.CheckOut(r.Context(), reservationID, identity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidID)
		case errors.Is(err, domain.ErrUnauthorized):
			handlers.RespondUnauthorized(w, msgUnauthorized)
		case errors.Is(err, domain.ErrNotFound):
			handlers.RespondNotFound(w, msgReservationNotFound)
		case errors.Is(err, domain.ErrForbidden):
			h.logger.Warn("POST /reservations/{id}/checkout - Staff only: user=%s, role=%s", identity.UserID, identity.Role)
			handlers.RespondForbidden(w, msgStaffOnly)
		case errors.Is(err, domain.ErrIllegalTransition):
			handlers.RespondConflict(w, msgIllegalTransition)
		case errors.Is(err, domain.ErrConflict):
			handlers.RespondConflict(w, msgConflict)
		default:
			h.logger.Error("POST /reservations/{id}/checkout - Failed: reservation_id=%s, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations/{id}/checkout - Checked out: reservation_id=%s", reservationID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
