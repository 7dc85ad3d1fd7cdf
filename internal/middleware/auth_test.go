package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"dealdesk/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testUser(role models.Role) *models.User {
	user := &models.User{
		Email:    "user@test.com",
		Role:     role,
		BrokerID: "11111111-1111-7111-8111-111111111111",
	}
	user.ID = "22222222-2222-7222-8222-222222222222"
	return user
}

func setupAuthRouter(roles ...models.Role) *gin.Engine {
	r := gin.New()
	group := r.Group("/", AuthMiddleware())
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   c.GetString("userID"),
			"broker_id": c.GetString("brokerID"),
		})
	})
	return r
}

func doAuthRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	user := testUser(models.RoleAgent)

	t.Run("valid_access_token", func(t *testing.T) {
		token, err := GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		rec := doAuthRequest(setupAuthRouter(), token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		rec := doAuthRequest(setupAuthRouter(), "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage_token", func(t *testing.T) {
		rec := doAuthRequest(setupAuthRouter(), "not-a-jwt")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("refresh_token_rejected_as_access", func(t *testing.T) {
		token, err := GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		rec := doAuthRequest(setupAuthRouter(), token)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		userRole   models.Role
		allowed    []models.Role
		wantStatus int
	}{
		{"role_allowed", models.RoleTC, []models.Role{models.RoleTC}, http.StatusOK},
		{"one_of_several", models.RoleBroker, []models.Role{models.RoleTC, models.RoleBroker}, http.StatusOK},
		{"role_denied", models.RoleAgent, []models.Role{models.RoleBroker}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateAccessToken(testUser(tt.userRole))
			if err != nil {
				t.Fatalf("failed to generate token: %v", err)
			}

			rec := doAuthRequest(setupAuthRouter(tt.allowed...), token)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	user := testUser(models.RoleTC)

	t.Run("valid", func(t *testing.T) {
		token, err := GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		claims, err := ValidateRefreshToken(token)
		if err != nil {
			t.Fatalf("expected valid refresh token: %v", err)
		}
		if claims.UserID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, claims.UserID)
		}
		if claims.Role != models.RoleTC {
			t.Errorf("expected role tc, got %s", claims.Role)
		}
		if claims.BrokerID != user.BrokerID {
			t.Errorf("expected broker %s, got %s", user.BrokerID, claims.BrokerID)
		}
	})

	t.Run("access_token_is_not_a_refresh_token", func(t *testing.T) {
		token, err := GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		if _, err := ValidateRefreshToken(token); err == nil {
			t.Error("expected an access token to be rejected")
		}
	})
}

func TestHashToken(t *testing.T) {
	first := HashToken("some-token")
	second := HashToken("some-token")
	if first != second {
		t.Error("hashing must be deterministic")
	}
	if first == HashToken("other-token") {
		t.Error("different tokens must hash differently")
	}
	if len(first) != 64 {
		t.Errorf("expected a 64-char hex digest, got %d chars", len(first))
	}
}
