package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchGrants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/grants" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}

		var body FilterBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if body.Ministry != "HEALTH" {
			t.Errorf("filter not forwarded: %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"grants":[{"id":"1","ministry":"HEALTH","program":"P","recipient":"R","fiscalYear":"2023-2024","amount":100}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	grants, err := c.FetchGrants(context.Background(), FilterBody{Ministry: "HEALTH"})
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 || grants[0].ID != "1" || grants[0].Amount != 100 {
		t.Fatalf("unexpected grants: %+v", grants)
	}
}

func TestFetchElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/grants/elements" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"ministries":["HEALTH","ALL MINISTRIES"],"displayFiscalYears":["2023-2024","ALL YEARS"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	el, err := c.FetchElements(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(el.Ministries) != 2 || len(el.DisplayFiscalYears) != 2 {
		t.Fatalf("unexpected elements: %+v", el)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.FetchGrants(context.Background(), FilterBody{}); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestFetchUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := c.FetchTrends(context.Background(), FilterBody{}); err == nil {
		t.Fatal("expected an error for an unreachable host")
	}
}
