package check_out

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type stubService struct {
	err error
}

func (s *stubService) CheckOut(_ context.Context, id string, _ domain.Identity) (*models.ReservationResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.ReservationResponse{ReservationID: id, Status: string(domain.StatusCheckedOut)}, nil
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "checked out", expectedStatus: http.StatusOK},
		{name: "client", serviceErr: reservations.ErrAccessDenied, expectedStatus: http.StatusForbidden},
		{name: "not found", serviceErr: reservations.ErrReservationNotFound, expectedStatus: http.StatusNotFound},
		{name: "before check-in", serviceErr: domain.ErrIllegalTransition, expectedStatus: http.StatusConflict},
		{name: "conflict", serviceErr: domain.ErrConflict, expectedStatus: http.StatusConflict},
		{name: "internal", serviceErr: reservations.ErrInternal, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := mux.NewRouter()
			router.HandleFunc("/api/v1/reservations/{reservationId}/checkout",
				NewHandler(&stubService{err: tt.serviceErr}, logger.NewNop()).Handle)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/res-1/checkout", nil)
			req = req.WithContext(middleware.WithIdentity(req.Context(), domain.Identity{UserID: "desk-1", Role: domain.RoleReception}))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.serviceErr == nil {
				assert.Contains(t, rec.Body.String(), `"status":"CHECKOUT"`)
			}
		})
	}
}
