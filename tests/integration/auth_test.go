package integration

import (
	"net/http"
	"testing"
)

func TestRegisterLoginProfileFlow(t *testing.T) {
	app := setupApp(t)

	access, refresh, userID := app.registerUser(t, "flow@example.com", "password123")
	if access == "" || refresh == "" {
		t.Fatal("expected token pair from registration")
	}
	if userID == 0 {
		t.Fatal("expected user ID from registration")
	}

	rec := app.request("GET", "/api/v1/profile", "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "flow@example.com" {
		t.Errorf("expected registered email, got %v", user["email"])
	}
	if user["role"] != "user" {
		t.Errorf("expected default role user, got %v", user["role"])
	}

	// Login again and use the fresh token.
	access2, _ := app.loginUser(t, "flow@example.com", "password123")
	rec = app.request("GET", "/api/v1/profile", "", access2)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile with fresh token failed: %d", rec.Code)
	}
}

func TestRefreshFlow(t *testing.T) {
	app := setupApp(t)

	_, refresh, _ := app.registerUser(t, "refresh@example.com", "password123")

	rec := app.request("POST", "/api/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["access_token"] == nil || result["refresh_token"] == nil {
		t.Error("expected a fresh token pair")
	}

	// An access token must not be accepted as a refresh token.
	access, _ := app.loginUser(t, "refresh@example.com", "password123")
	rec = app.request("POST", "/api/v1/auth/refresh", `{"refresh_token":"`+access+`"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for access token used as refresh, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/transactions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/v1/transactions", "", "garbage-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestRoleGatedRoutesAnswer404ForRegularUsers(t *testing.T) {
	app := setupApp(t)

	access, _, _ := app.registerUser(t, "lowpriv@example.com", "password123")

	rec := app.request("POST", "/api/v1/transactions/1/restore", "", access)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for restore without privilege, got %d", rec.Code)
	}

	rec = app.request("DELETE", "/api/v1/transactions/1/purge", "", access)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for purge without privilege, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/v1/audit-logs", "", access)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for audit logs without privilege, got %d", rec.Code)
	}
}
