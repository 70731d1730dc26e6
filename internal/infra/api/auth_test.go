//go:build !integration

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthManager_MintAndParse(t *testing.T) {
	auth := NewAuthManager(testSecret)

	tok, err := auth.Mint("host-1", time.Minute, "Mollie")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := auth.parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "host-1" || len(claims.Modules) != 1 || claims.Modules[0] != "Mollie" {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := NewAuthManager("other-secret").parse(tok); err == nil {
		t.Error("expected a token signed with another secret to be rejected")
	}
}

func TestAuthManager_ParseFromRequest(t *testing.T) {
	auth := NewAuthManager(testSecret)
	tok, _ := auth.Mint("host-1", time.Minute)

	testCases := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing", "", errMissingToken},
		{"wrong scheme", "Basic " + tok, errInvalidToken},
		{"garbage", "Bearer not.a.jwt", errInvalidToken},
		{"lowercase scheme", "bearer " + tok, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			_, err := auth.ParseFromRequest(r)
			if err != tc.wantErr {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestHostClaims_Allows(t *testing.T) {
	if !(&HostClaims{}).allows("mollie") {
		t.Error("empty module list must grant every module")
	}
	c := &HostClaims{Modules: []string{"Mollie"}}
	if !c.allows("mollie") {
		t.Error("module match must ignore case")
	}
	if c.allows("stripe") {
		t.Error("unexpected grant for unlisted module")
	}
}

func TestRequire_Chain(t *testing.T) {
	auth := NewAuthManager(testSecret)
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }),
		tag("outer"),
		auth.Require(newTestLogger(), func(*http.Request) string { return "Mollie" }),
		tag("inner"),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if len(order) != 1 || order[0] != "outer" {
		t.Fatalf("expected only the outer middleware to run, got %v", order)
	}

	order = nil
	tok, _ := auth.Mint("host-1", time.Minute, "Mollie")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("unexpected middleware order %v", order)
	}
}
