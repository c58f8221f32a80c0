package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

func TestClient_Refund(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "accepted", status: http.StatusAccepted},
		{name: "ok", status: http.StatusOK},
		{name: "rejected", status: http.StatusUnprocessableEntity, wantErr: ErrRefundRejected},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/internal/refunds", r.URL.Path)
				assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
				assert.Equal(t, "refund-res-1", r.Header.Get("Idempotency-Key"))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, time.Second, logger.NewNop()).Refund(context.Background(), "tkn", RefundRequest{
				ReservationID: "res-1",
				Amount:        types.Money(25000),
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrExternalUnavailable)
		})
	}
}
