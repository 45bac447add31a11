package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	identityapp "github.com/chakravyuh/backend/internal/application/identity"
	"github.com/chakravyuh/backend/internal/application/notification"
	paymentapp "github.com/chakravyuh/backend/internal/application/payment"
	registrationapp "github.com/chakravyuh/backend/internal/application/registration"
	"github.com/chakravyuh/backend/internal/domain/identity"
	"github.com/chakravyuh/backend/internal/domain/registration"
	"github.com/chakravyuh/backend/internal/infrastructure/auth"
	"github.com/chakravyuh/backend/internal/infrastructure/config"
	"github.com/chakravyuh/backend/internal/infrastructure/persistence"
	"github.com/chakravyuh/backend/internal/interfaces/http/middleware"
)

// silentSender drops all mail; handlers under test never wait on email.
type silentSender struct{}

func (silentSender) Send(context.Context, notification.Email) error { return nil }
func (silentSender) IsConfigured() bool                             { return false }

// stubGateway issues predictable order ids and accepts a single signature
type stubGateway struct {
	orderID        string
	validSignature string
}

func (g *stubGateway) CreateOrder(_ context.Context, amount decimal.Decimal, currency, _ string) (*registration.GatewayOrder, error) {
	return &registration.GatewayOrder{OrderID: g.orderID, Amount: amount, Currency: currency}, nil
}

func (g *stubGateway) VerifySignature(_, _, signature string) bool {
	return signature == g.validSignature
}

// stubQR returns a tiny valid data URI
type stubQR struct{}

func (stubQR) Generate(string) (string, error) {
	return "data:image/png;base64,iVBORw0KGgo=", nil
}

type testEnv struct {
	router *gin.Engine
	repo   registration.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&registration.Registration{},
		&registration.TeamMember{},
		&identity.AdminUser{},
	))

	repo := persistence.NewGormRegistrationRepository(db)
	logger := zap.NewNop()
	dispatcher := notification.NewDispatcher(silentSender{}, notification.Links{}, logger)
	paymentCfg := config.PaymentConfig{
		KeyID:          "rzp_test_key",
		StandardAmount: 1200,
		MemberAmount:   1000,
		Currency:       "INR",
	}

	regService := registrationapp.NewService(repo, dispatcher, paymentCfg, logger)
	payService := paymentapp.NewService(
		repo,
		&stubGateway{orderID: "order_test_1", validSignature: "good-signature"},
		stubQR{},
		dispatcher,
		paymentCfg.KeyID,
		"http://localhost:8080",
		logger,
	)

	regHandler := NewRegistrationHandler(regService)
	payHandler := NewPaymentHandler(payService)
	qrHandler := NewQRPassHandler(regService, logger)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/registrations", regHandler.Create)
	api.GET("/registrations/qr/:registrationId", qrHandler.Show)
	api.GET("/registrations/:id", regHandler.Get)
	api.POST("/registrations/:id/upi-proof", payHandler.SubmitProof)
	api.POST("/registrations/:id/final-approve", payHandler.FinalApprove)
	api.POST("/registrations/:id/reject", payHandler.Reject)
	api.GET("/registrations", regHandler.List)
	api.POST("/payments/order", payHandler.CreateOrder)
	api.POST("/payments/verify", payHandler.Verify)

	return &testEnv{router: r, repo: repo}
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, contentType string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="` + fileField + `"; filename="` + fileName + `"`}
		hdr["Content-Type"] = []string{contentType}
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validRegistrationFields() map[string]string {
	return map[string]string{
		"fullName": "Asha Nair",
		"email":    "asha@example.com",
		"phone":    "9123456789",
		"college":  "NIT Calicut",
		"event":    "RoboWars",
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func createRegistration(t *testing.T, env *testEnv) map[string]any {
	t.Helper()
	buf, ct := multipartBody(t, validRegistrationFields(), "", "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", buf)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeResponse(t, w)
	return body["data"].(map[string]any)
}

func TestRegistrationCreate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates a pending registration", func(t *testing.T) {
		data := createRegistration(t, env)
		assert.Equal(t, "pending_payment", data["status"])
		assert.True(t, strings.HasPrefix(data["registrationId"].(string), "CHK-"))
		assert.Equal(t, true, data["paymentRequired"])
	})

	t.Run("duplicate registration answers 409", func(t *testing.T) {
		buf, ct := multipartBody(t, validRegistrationFields(), "", "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", buf)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "You have already registered for this event")
	})

	t.Run("invalid phone answers 400 with message", func(t *testing.T) {
		fields := validRegistrationFields()
		fields["email"] = "other@example.com"
		fields["phone"] = "1234567890"
		buf, ct := multipartBody(t, fields, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", buf)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Please provide a valid 10-digit Indian phone number")
	})

	t.Run("malformed teamMembers json answers 400", func(t *testing.T) {
		fields := validRegistrationFields()
		fields["email"] = "team@example.com"
		fields["isTeam"] = "true"
		fields["teamName"] = "Phoenix"
		fields["teamMembers"] = "{not json"
		buf, ct := multipartBody(t, fields, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", buf)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid teamMembers data")
	})

	t.Run("rejects executable certificate upload", func(t *testing.T) {
		fields := validRegistrationFields()
		fields["email"] = "member@example.com"
		fields["ieeeMember"] = "yes"
		fields["ieeeId"] = "99887766"
		buf, ct := multipartBody(t, fields, "ieeeMembershipCertificate", "cert.exe", "application/octet-stream", []byte{0x4d, 0x5a})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", buf)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Only PDF, JPG, PNG files are allowed")
	})
}

func TestRegistrationGet(t *testing.T) {
	env := newTestEnv(t)
	data := createRegistration(t, env)

	t.Run("by public id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations/"+data["registrationId"].(string), nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, data["registrationId"], body["data"].(map[string]any)["registrationId"])
	})

	t.Run("unknown key answers 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations/CHK-0-0000", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Registration not found")
	})
}

func TestManualProofFlow(t *testing.T) {
	env := newTestEnv(t)
	data := createRegistration(t, env)
	regID := data["registrationId"].(string)

	submitProof := func(utr string) *httptest.ResponseRecorder {
		buf, ct := multipartBody(t, map[string]string{"utrNumber": utr},
			"paymentScreenshot", "proof.png", "image/png",
			[]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/"+regID+"/upi-proof", buf)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	approve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/"+regID+"/final-approve", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	t.Run("approve before proof fails the precondition", func(t *testing.T) {
		w := approve()
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Not under review")
	})

	t.Run("short utr answers 400", func(t *testing.T) {
		w := submitProof("12345")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UTR must be 12 digits")
	})

	t.Run("proof moves registration under review", func(t *testing.T) {
		w := submitProof("123456789012")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Payment proof submitted successfully")
	})

	t.Run("reject returns to pending and clears the proof", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/"+regID+"/reject", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pending_payment")
	})

	t.Run("approve confirms after resubmission", func(t *testing.T) {
		require.Equal(t, http.StatusOK, submitProof("123456789012").Code)

		w := approve()
		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, "Payment approved", body["message"])
		result := body["data"].(map[string]any)
		assert.Equal(t, "confirmed", result["status"])
		assert.NotEmpty(t, result["qrCode"])
	})

	t.Run("resubmitting proof after confirmation is a no-op", func(t *testing.T) {
		w := submitProof("123456789012")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Already confirmed")
	})
}

func TestGatewayPaymentFlow(t *testing.T) {
	env := newTestEnv(t)
	data := createRegistration(t, env)
	regID := data["registrationId"].(string)

	t.Run("create order", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]string{"registrationId": regID})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/order", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		order := body["data"].(map[string]any)
		assert.Equal(t, "order_test_1", order["orderId"])
		assert.Equal(t, "1200.00", order["amount"])
		assert.Equal(t, "rzp_test_key", order["keyId"])
	})

	verify := func(signature string) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(map[string]string{
			"razorpay_order_id":   "order_test_1",
			"razorpay_payment_id": "pay_001",
			"razorpay_signature":  signature,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	t.Run("forged signature answers 400", func(t *testing.T) {
		w := verify("forged")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Payment verification failed")
	})

	t.Run("valid signature confirms the registration", func(t *testing.T) {
		w := verify("good-signature")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "confirmed")
	})

	t.Run("replayed callback answers 409", func(t *testing.T) {
		w := verify("good-signature")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestQRPassPage(t *testing.T) {
	env := newTestEnv(t)
	data := createRegistration(t, env)
	regID := data["registrationId"].(string)

	t.Run("renders the pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations/qr/"+regID, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), regID)
		assert.Contains(t, w.Body.String(), "Asha Nair")
		assert.Contains(t, w.Body.String(), "RoboWars")
	})

	t.Run("unknown id answers 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations/qr/CHK-0-0000", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminList(t *testing.T) {
	env := newTestEnv(t)
	createRegistration(t, env)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	entries := body["data"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, false, entry["hasIeeeCertificate"])
}

func newAdminRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&identity.AdminUser{}))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "handler-test-secret-0123456789abcdef",
		Expiration: time.Hour,
		Issuer:     "chakravyuh-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(
		persistence.NewGormUserRepository(db), jwtService, blacklist, "event-setup-key", zap.NewNop())

	adminHandler := NewAdminHandler(authService)

	r := gin.New()
	api := r.Group("/api/v1/admin")
	api.GET("/setup", adminHandler.SetupStatus)
	api.POST("/setup", adminHandler.Setup)
	api.POST("/login", adminHandler.Login)
	authed := api.Group("")
	authed.Use(middleware.RequireAuth(jwtService, blacklist, nil))
	authed.GET("/me", adminHandler.Me)
	authed.POST("/logout", adminHandler.Logout)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuthFlow(t *testing.T) {
	r := newAdminRouter(t)

	t.Run("setup status before first admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/setup", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		status := body["data"].(map[string]any)
		assert.Equal(t, false, status["adminExists"])
		assert.Equal(t, true, status["setupKeyRequired"])
	})

	t.Run("setup without key answers 403", func(t *testing.T) {
		w := postJSON(t, r, "/api/v1/admin/setup", identityapp.SetupInput{
			Email:    "admin@chakravyuh.in",
			Password: "sup3r-secret",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Setup key is required")
	})

	var token string

	t.Run("setup creates the first admin", func(t *testing.T) {
		w := postJSON(t, r, "/api/v1/admin/setup", identityapp.SetupInput{
			Name:     "Event Admin",
			Email:    "admin@chakravyuh.in",
			Password: "sup3r-secret",
			SetupKey: "event-setup-key",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decodeResponse(t, w)
		result := body["data"].(map[string]any)
		token = result["token"].(string)
		assert.NotEmpty(t, token)
	})

	t.Run("second setup answers 409", func(t *testing.T) {
		w := postJSON(t, r, "/api/v1/admin/setup", identityapp.SetupInput{
			Email:    "intruder@chakravyuh.in",
			Password: "sup3r-secret",
			SetupKey: "event-setup-key",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Admin already exists")
	})

	t.Run("login with wrong password answers 401", func(t *testing.T) {
		w := postJSON(t, r, "/api/v1/admin/login", identityapp.LoginInput{
			Email:    "admin@chakravyuh.in",
			Password: "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
	})

	t.Run("me returns the session identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin@chakravyuh.in")
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
