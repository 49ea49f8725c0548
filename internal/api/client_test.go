package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seatserve/seatserve/internal/model"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://orders.example.com")

		if c.baseURL != "https://orders.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://orders.example.com")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
	})

	t.Run("with options", func(t *testing.T) {
		c := NewClient("https://orders.example.com",
			WithTimeout(5*time.Second),
			WithRetries(5, 2*time.Second),
		)
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})
}

func TestGetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/ORD-1" {
			t.Errorf("path = %q, want /api/orders/ORD-1", r.URL.Path)
		}
		if got := r.URL.Query().Get("sessionId"); got != "session_a_b" {
			t.Errorf("sessionId = %q, want session_a_b", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"order": model.Order{OrderID: "ORD-1", OutletID: "O1", TotalAmount: 22},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	order, err := c.GetOrder(context.Background(), "ORD-1", "session_a_b")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if order.OrderID != "ORD-1" || order.TotalAmount != 22 {
		t.Errorf("unexpected order: %+v", order)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Order not found or access denied"})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetOrder(context.Background(), "ORD-missing", "session_a_b")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"order": model.Order{OrderID: "ORD-1"}})
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
	order, err := c.GetOrder(context.Background(), "ORD-1", "")
	if err != nil {
		t.Fatalf("GetOrder failed after retries: %v", err)
	}
	if order.OrderID != "ORD-1" {
		t.Errorf("order = %+v", order)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Outlet ID is required"})
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
	_, err := c.ListOrders(context.Background(), "", "session_a_b")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("error = %v, want 400 APIError", err)
	}
	if apiErr.Message != "Outlet ID is required" {
		t.Errorf("message = %q", apiErr.Message)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (no retry)", got)
	}
}

func TestCreateOrderIsFireOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
	_, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		OutletID:    "O1",
		SessionID:   "session_a_b",
		Items:       []model.OrderItem{{ID: "dish-1", Quantity: 1, Price: 9}},
		TotalAmount: 9,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (write path never retries)", got)
	}
}

func TestAddItemsSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AddItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.SessionID != "session_a_b" || len(req.Items) != 1 {
			t.Errorf("unexpected body: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Items added successfully",
			"order":   model.Order{OrderID: "ORD-1", TotalAmount: 18},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	order, err := c.AddItems(context.Background(), "ORD-1", AddItemsRequest{
		SessionID: "session_a_b",
		Items:     []model.OrderItem{{ID: "dish-1", Quantity: 1, Price: 9}},
	})
	if err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	if order.TotalAmount != 18 {
		t.Errorf("total = %v, want 18", order.TotalAmount)
	}
}
