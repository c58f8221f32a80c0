package confirmation

import (
	"context"
	"encoding/json"
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

func TestClient_Confirm(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "confirmed", status: http.StatusCreated},
		{name: "conflict", status: http.StatusConflict, wantErr: ErrRejected},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, wantErr: ErrRejected},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/internal/confirmations", r.URL.Path)
				assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))

				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "L1", body["lock_id"])
				assert.Equal(t, "250.00", body["amount"])

				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, time.Second, logger.NewNop()).Confirm(context.Background(), "tkn", Request{
				ReservationID: "res-1",
				LockID:        "L1",
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

func TestClient_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "cancelled", status: http.StatusNoContent},
		{name: "ok", status: http.StatusOK},
		{name: "already gone", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/internal/confirmations/res-1", r.URL.Path)
				assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, time.Second, logger.NewNop()).Cancel(context.Background(), "tkn", "res-1")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrExternalUnavailable)
		})
	}
}
