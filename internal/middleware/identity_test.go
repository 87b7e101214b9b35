package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"friperie_back_end/internal/models"
	"friperie_back_end/internal/utils"
)

type identitySeen struct {
	userID      string
	isAnonymous bool
	isAdmin     bool
}

func identityRouter(t *testing.T) (*gin.Engine, *identitySeen) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	seen := &identitySeen{}
	r.Use(Identity())
	r.GET("/whoami", func(c *gin.Context) {
		seen.userID = c.GetString("user_id")
		seen.isAnonymous = c.GetBool("is_anonymous")
		seen.isAdmin = c.GetBool("is_admin")
		c.JSON(http.StatusOK, gin.H{"user_id": seen.userID})
	})
	return r, seen
}

func TestIdentity_AnonymousGetsDurableCookie(t *testing.T) {
	r, seen := identityRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	userID := seen.userID
	if userID == "" {
		t.Fatal("identité anonyme vide")
	}
	if !seen.isAnonymous {
		t.Error("is_anonymous devrait être true")
	}
	if seen.isAdmin {
		t.Error("un anonyme ne peut pas être admin")
	}

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "anon_id" {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("cookie anon_id absent")
	}
	if cookie.Value != userID {
		t.Errorf("cookie = %q, identité = %q", cookie.Value, userID)
	}
	if !cookie.HttpOnly {
		t.Error("cookie anon_id devrait être httpOnly")
	}
}

func TestIdentity_ExistingCookieIsReused(t *testing.T) {
	r, seen := identityRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "anon_id", Value: "anon-42"})
	r.ServeHTTP(w, req)

	if got := seen.userID; got != "anon-42" {
		t.Errorf("user_id = %q, attendu anon-42", got)
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "anon_id" {
			t.Error("le cookie existant ne doit pas être réémis")
		}
	}
}

func TestIdentity_BearerTokenWins(t *testing.T) {
	orig := lookupAdmin
	lookupAdmin = func(userID string) (bool, error) { return userID == "admin-1", nil }
	defer func() { lookupAdmin = orig }()

	r, seen := identityRouter(t)

	token, err := utils.GenerateJWT(models.User{ID: "admin-1", Email: "a@b.c"})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: "anon_id", Value: "anon-42"})
	r.ServeHTTP(w, req)

	if got := seen.userID; got != "admin-1" {
		t.Errorf("user_id = %q, attendu admin-1", got)
	}
	if seen.isAnonymous {
		t.Error("session authentifiée marquée anonyme")
	}
	if !seen.isAdmin {
		t.Error("is_admin devrait être true")
	}
}

func TestIdentity_RoleLookupFailureIsNotAdmin(t *testing.T) {
	orig := lookupAdmin
	lookupAdmin = func(string) (bool, error) { return false, errors.New("redis down") }
	defer func() { lookupAdmin = orig }()

	r, seen := identityRouter(t)

	token, _ := utils.GenerateJWT(models.User{ID: "user-1", Email: "u@b.c"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, la session doit continuer", w.Code)
	}
	if seen.isAdmin {
		t.Error("échec de lecture du rôle ⇒ non admin")
	}
}

func TestIdentity_InvalidTokenFallsBackToAnonymous(t *testing.T) {
	r, seen := identityRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer pas-un-jwt")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !seen.isAnonymous {
		t.Error("token invalide ⇒ identité anonyme")
	}
	if seen.userID == "" {
		t.Error("identité anonyme vide")
	}
}

func TestAuthRequired_RejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired())
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, attendu 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Token manquant") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAuthRequired_AcceptsValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired())
	r.GET("/private", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	token, err := utils.GenerateJWT(models.User{ID: "user-7", Email: "u@b.c"})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "user-7") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/admin", func(c *gin.Context) { c.Set("is_admin", true) }, RequireAdmin,
		func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/forbidden", func(c *gin.Context) { c.Set("is_admin", false) }, RequireAdmin,
		func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusOK {
		t.Errorf("admin: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("non admin: status = %d, attendu 403", w.Code)
	}
}
