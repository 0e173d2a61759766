package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/mealsync/pkg/api"
)

func staticToken(token string) TokenFunc {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

func TestClient_Upsert(t *testing.T) {
	record := &api.Record{
		ID:          "record-1",
		HouseholdID: "household-1",
		EntityType:  "dish",
		UpdatedBy:   "device-1",
		Payload:     json.RawMessage(`{"name":"Borscht"}`),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/records/dish", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got api.Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, record.ID, got.ID)

		// Сервер возвращает свою копию с авторитетным временем
		got.UpdatedAt = time.Now()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(got)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("test-token"))

	confirmed, err := client.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, record.ID, confirmed.ID)
	assert.False(t, confirmed.UpdatedAt.IsZero())
}

func TestClient_Update(t *testing.T) {
	now := time.Now()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/records/meal_plan/plan-1", r.URL.Path)

		var patch api.Patch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.True(t, patch.ClearLock)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Record{ID: "plan-1", UpdatedAt: now})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("test-token"))

	record, err := client.Update(context.Background(), "meal_plan", "plan-1",
		&api.Patch{ClearLock: true, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "plan-1", record.ID)
}

func TestClient_SelectAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/records/dish", r.URL.Path)
		assert.Equal(t, "household-1", r.URL.Query().Get("household_id"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]api.Record{
			{ID: "record-1", EntityType: "dish"},
			{ID: "record-2", EntityType: "dish"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("test-token"))

	records, err := client.SelectAll(context.Background(), "dish", "household-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{
			Error:   "conflict",
			Message: "record was modified concurrently",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("test-token"))

	_, err := client.Get(context.Background(), "dish", "record-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record was modified concurrently")
	assert.Contains(t, err.Error(), "409")
}

func TestClient_NoTokenFunc(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Record{ID: "record-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	_, err := client.Get(context.Background(), "dish", "record-1")
	assert.NoError(t, err)
}
