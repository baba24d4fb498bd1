package routers_test

import (
	"net/http"
	"testing"

	"lms/testutil"

	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	env := testutil.Setup(t)

	resp := env.Do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, resp.Status)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	env := testutil.Setup(t)

	resp := env.Do(http.MethodGet, "/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.False(t, resp.Status)
	assert.Equal(t, "Cannot GET /does-not-exist", resp.Message)
}

func TestProtectedGroupsRequireToken(t *testing.T) {
	env := testutil.Setup(t)

	for _, path := range []string{"/user/profile", "/cart", "/order/list", "/admin/orders", "/admin/course/list", "/admin/users/list"} {
		resp := env.Do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}

	resp := env.Do(http.MethodGet, "/user/profile", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
