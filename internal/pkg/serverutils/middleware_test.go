package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(auth fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/whoami", auth, func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", UserId(ctx)))
	})
	return app
}

func TestUserHeaderMiddleware(t *testing.T) {
	app := newTestApp(UserHeaderMiddleware)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: fiber.StatusBadRequest},
		{name: "blank header", header: "   ", wantStatus: fiber.StatusBadRequest},
		{name: "present", header: "u1", wantStatus: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(UserIdHeader, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestUserHeaderSurvivesLaterRequests(t *testing.T) {
	var seen []string
	app := fiber.New()
	app.Get("/whoami", UserHeaderMiddleware, func(ctx *fiber.Ctx) error {
		seen = append(seen, UserId(ctx))
		return ctx.SendStatus(fiber.StatusNoContent)
	})

	for _, id := range []string{"u1", "u2", "u3"} {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set(UserIdHeader, id)
		_, err := app.Test(req)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"u1", "u2", "u3"}, seen)
}

func TestJwtMiddleware(t *testing.T) {
	secret := "test-secret"
	app := newTestApp(NewJwtMiddleware(secret))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-jwt",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "u-jwt", body.Data)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/forbidden", func(ctx *fiber.Ctx) error { return Forbidden("not yours") })
	app.Get("/missing", func(ctx *fiber.Ctx) error { return NotFound("nope") })
	app.Get("/boom", func(ctx *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/forbidden", wantStatus: fiber.StatusForbidden},
		{path: "/missing", wantStatus: fiber.StatusNotFound},
		{path: "/boom", wantStatus: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantStatus, body.Code)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type payload struct {
		Query string `validate:"required"`
		TopK  int    `validate:"gte=0,lte=50"`
	}

	assert.NoError(t, ValidateRequest(payload{Query: "hi", TopK: 5}))

	err := ValidateRequest(payload{TopK: 100})
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, fiber.StatusBadRequest, appErr.Code)
	assert.Contains(t, appErr.Message, "Query")
	assert.Contains(t, appErr.Message, "TopK")
}
