package cancel_reservation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/payments"
	uc "github.com/m04kA/SMC-ReservationService/internal/usecase/cancel_reservation"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

type stubUseCase struct {
	err error
	got *uc.Request
}

func (s *stubUseCase) Execute(_ context.Context, req *uc.Request) (*uc.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &uc.Response{ReservationID: req.ReservationID, Status: domain.StatusCancelled, Refunded: types.Money(25000)}, nil
}

func newRouter(stub *stubUseCase) *mux.Router {
	h := NewHandler(stub, logger.NewNop())
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/reservations/cancel", h.Handle).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/reservations/{reservationId}", h.Handle).Methods(http.MethodDelete)
	return router
}

func withIdentity(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), domain.Identity{UserID: "u-1", Role: domain.RoleClient}))
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		useCaseErr     error
		expectedStatus int
	}{
		{name: "cancelled", expectedStatus: http.StatusOK},
		{name: "not found", useCaseErr: uc.ErrReservationNotFound, expectedStatus: http.StatusNotFound},
		{name: "forbidden", useCaseErr: uc.ErrForbidden, expectedStatus: http.StatusForbidden},
		{name: "checked out", useCaseErr: fmt.Errorf("%w: %w", uc.ErrNotCancellable, domain.ErrIllegalTransition), expectedStatus: http.StatusConflict},
		{name: "concurrent write", useCaseErr: domain.ErrConflict, expectedStatus: http.StatusConflict},
		{name: "refund rejected", useCaseErr: fmt.Errorf("%w: %w", uc.ErrSagaFailed, payments.ErrRefundRejected), expectedStatus: http.StatusBadGateway},
		{name: "refunded but not committed", useCaseErr: fmt.Errorf("%w: %w", uc.ErrNotCommitted, domain.ErrConflict), expectedStatus: http.StatusInternalServerError},
		{name: "internal", useCaseErr: uc.ErrInternal, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubUseCase{err: tt.useCaseErr}
			rec := httptest.NewRecorder()

			newRouter(stub).ServeHTTP(rec, withIdentity(httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/res-1", nil)))

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_ReservationIDFromBody(t *testing.T) {
	stub := &stubUseCase{}
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/cancel", strings.NewReader(`{"reservation_id":"res-9"}`))
	newRouter(stub).ServeHTTP(rec, withIdentity(req))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.got)
	assert.Equal(t, "res-9", stub.got.ReservationID)
	assert.Contains(t, rec.Body.String(), `"refunded_amount":"250.00"`)
}

func TestHandler_InvalidBody(t *testing.T) {
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/cancel", strings.NewReader(`{`))
	newRouter(&stubUseCase{}).ServeHTTP(rec, withIdentity(req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
