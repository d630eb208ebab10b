package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"voiceagent-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// routeAs builds a guarded test route with the given identity injected.
func routeAs(userID, workspaceID, role string, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), userID, workspaceID, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireWorkspace(), RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func get(r *gin.Engine) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if code := get(routeAs("u", "w", RoleOperator, RoleOwner, RoleOperator)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_UnlistedRoleDenied(t *testing.T) {
	if code := get(routeAs("u", "w", RoleAnalyst, RoleOwner, RoleOperator)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	if code := get(routeAs("u", "w", RoleSuperAdmin, RoleOwner)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_HiddenRoleDeniedUnlessAllowed(t *testing.T) {
	if code := get(routeAs("u", "w", RoleSupport, RoleOwner)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := get(routeAs("u", "w", RoleSupport, RoleSupport)); code != 200 {
		t.Fatalf("hidden role explicitly listed should pass, got %d", code)
	}
}

func TestRequireWorkspace_MissingWorkspaceRejected(t *testing.T) {
	if code := get(routeAs("u", "", RoleOwner, RoleOwner)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}
