package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/estoque-app/estoque/pkg/client"
	"github.com/estoque-app/estoque/pkg/domain"
)

// stockServer lists n materials and answers each stock call with stock(id).
func stockServer(t *testing.T, n int, stock http.HandlerFunc) *client.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /master-data/materials", func(w http.ResponseWriter, _ *http.Request) {
		materials := make([]domain.Material, n)
		for i := range materials {
			materials[i] = domain.Material{ID: int64(i + 1), Code: "M" + idStr(int64(i+1)), Name: "Material"}
		}
		json.NewEncoder(w).Encode(materials) //nolint:errcheck
	})
	mux.HandleFunc("GET /movements/material/{id}/stock", stock)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return c
}

func TestLoadStock(t *testing.T) {
	c := stockServer(t, 10, func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		w.Write([]byte(`{"materialId":` + id + `,"total":` + id + `.5}`)) //nolint:errcheck
	})

	rows, err := loadStock(context.Background(), c)
	if err != nil {
		t.Fatalf("loadStock: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("rows = %d, want 10", len(rows))
	}
	for i, r := range rows {
		if r.material.ID != int64(i+1) || r.total != float64(i+1)+0.5 {
			t.Errorf("rows[%d] = %d/%v, want %d/%v", i, r.material.ID, r.total, i+1, float64(i+1)+0.5)
		}
	}
}

func TestLoadStock_StopsAfterFirstError(t *testing.T) {
	var hits atomic.Int32
	c := stockServer(t, 40, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"saldo indisponível"}`)) //nolint:errcheck
	})

	rows, err := loadStock(context.Background(), c)
	if err == nil {
		t.Fatal("loadStock should fail when a stock call fails")
	}
	if rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
	if !strings.Contains(client.ExtractMessage(err), "saldo indisponível") {
		t.Errorf("error = %q, want the server message", client.ExtractMessage(err))
	}
	if n := hits.Load(); n > stockFanout {
		t.Errorf("stock calls = %d, want at most %d after the first failure", n, stockFanout)
	}
}
