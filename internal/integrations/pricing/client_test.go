package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

func TestClient_Quote(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    types.Money
		wantErr error
	}{
		{name: "string amount", status: http.StatusOK, body: `{"amount":"250.00"}`, want: types.Money(25000)},
		{name: "numeric amount", status: http.StatusOK, body: `{"amount":99.5}`, want: types.Money(9950)},
		{name: "conflict", status: http.StatusConflict, wantErr: ErrUnavailable},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: ErrUnavailable},
		{name: "negative amount", status: http.StatusOK, body: `{"amount":"-1.00"}`, wantErr: ErrInvalidResponse},
		{name: "unexpected status", status: http.StatusTeapot, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/internal/quotes", r.URL.Path)
				assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			amount, err := NewClient(srv.URL, time.Second, logger.NewNop()).
				Quote(context.Background(), "tkn", QuoteRequest{HotelID: "H1", RoomID: "R1"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrExternalUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amount)
		})
	}
}
