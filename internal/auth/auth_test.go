package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testClaims(role Role) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
}

func TestParseValidToken(t *testing.T) {
	token := signToken(t, testClaims(Role{Name: "manager", CanViewOrders: true}), testSecret)

	claims, err := Parse(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "manager", claims.Role.Name)
	assert.True(t, claims.MayViewOrders())
	assert.False(t, claims.MayEditOrders())
}

func TestParseWrongSecret(t *testing.T) {
	token := signToken(t, testClaims(Role{}), testSecret)
	_, err := Parse(token, "other-secret")
	assert.Error(t, err)
}

func TestParseExpiredToken(t *testing.T) {
	claims := testClaims(Role{})
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token := signToken(t, claims, testSecret)

	_, err := Parse(token, testSecret)
	assert.Error(t, err)
}

func TestParseRequiresSubject(t *testing.T) {
	claims := testClaims(Role{})
	claims.Subject = ""
	token := signToken(t, claims, testSecret)

	_, err := Parse(token, testSecret)
	assert.Error(t, err)
}

func TestParseEmptySecret(t *testing.T) {
	token := signToken(t, testClaims(Role{}), testSecret)
	_, err := Parse(token, "")
	assert.Error(t, err)
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(Role{}))
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Parse(unsigned, testSecret)
	assert.Error(t, err)
}

func TestAdminOverridesFlags(t *testing.T) {
	claims := testClaims(Role{IsAdmin: true})
	assert.True(t, claims.MayViewOrders())
	assert.True(t, claims.MayEditOrders())
	assert.True(t, claims.MayViewReports())
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	token, ok = BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = BearerToken("")
	assert.False(t, ok)

	_, ok = BearerToken("Basic dXNlcjpwYXNz")
	assert.False(t, ok)

	_, ok = BearerToken("Bearer")
	assert.False(t, ok)
}

func doRequest(t *testing.T, method, authz string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}

	req := httptest.NewRequest(method, "/", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "", Middleware(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "Bearer not-a-token", Middleware(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	token := signToken(t, testClaims(Role{CanViewOrders: true}), testSecret)
	rec := doRequest(t, http.MethodGet, "Bearer "+token, Middleware(testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateOrders(t *testing.T) {
	viewer := signToken(t, testClaims(Role{CanViewOrders: true}), testSecret)
	editor := signToken(t, testClaims(Role{CanViewOrders: true, CanEditOrders: true}), testSecret)

	// Viewer may read but not mutate
	rec := doRequest(t, http.MethodGet, "Bearer "+viewer, Middleware(testSecret), GateOrders())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodPost, "Bearer "+viewer, Middleware(testSecret), GateOrders())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Editor may do both
	rec = doRequest(t, http.MethodPost, "Bearer "+editor, Middleware(testSecret), GateOrders())
	assert.Equal(t, http.StatusOK, rec.Code)

	// Gate without the auth middleware rejects outright
	rec = doRequest(t, http.MethodGet, "", GateOrders())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateReports(t *testing.T) {
	reporter := signToken(t, testClaims(Role{CanViewReports: true}), testSecret)
	noAccess := signToken(t, testClaims(Role{CanViewOrders: true, CanViewReports: false}), testSecret)

	rec := doRequest(t, http.MethodPost, "Bearer "+reporter, Middleware(testSecret), GateReports())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodGet, "Bearer "+noAccess, Middleware(testSecret), GateReports())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
