package main

import (
	"ems/src/common"
	"ems/src/db"
	"ems/src/middlewares"
	"ems/src/types"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB   *gorm.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	mockdb, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockdb}), &gorm.Config{
		ConnPool: mockdb,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

// stubAuth stands in for AuthMiddleware so handler tests can pick the
// caller identity without a users table round trip.
func stubAuth(userId uint, role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("id", userId)
		ctx.Set("email", "someone@example.com")
		ctx.Set("uid", "test-uid")
		ctx.Set("role", role)
	}
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("futuredate", futureDateValidatorFunc)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Setenv("MAINTENANCE_MODE", "false")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestFutureDateBinding() {
	router := setupRouter()
	router.POST("/bind", func(ctx *gin.Context) {
		var body types.CreateApplicationRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.Status(http.StatusOK)
	})

	past := time.Now().Add(-24 * time.Hour).Format("2006-01-02 15:04:05 -07:00")
	jbody := map[string]any{"exhibition": 1, "stall": 2, "deadline": past}
	sbody, _ := json.Marshal(&jbody)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/bind", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)
	assert.Equal(s.T(), 400, w.Code)

	future := time.Now().Add(24 * time.Hour).Format("2006-01-02 15:04:05 -07:00")
	jbody["deadline"] = future
	sbody, _ = json.Marshal(&jbody)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/bind", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)
	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestRequireRole() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuth(3, types.ROLE_BRAND))
	apiv1.POST("/guarded", middlewares.RequireRole(types.ROLE_MANAGER), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 403, w.Code)
}

func (s *TestSuite) TestMalformedAuthorizationHeader() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.GET("/whoami", middlewares.AuthMiddleware, func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	for _, header := range []string{"Bearer", "Bearer "} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/whoami", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	}
}

func (s *TestSuite) TestUnreadCount() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuth(3, types.ROLE_BRAND))
	notificationHandlers(apiv1)

	s.Mock.ExpectQuery(`SELECT count\(\*\) FROM "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/notifications/unread-count", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	count := gjson.Get(w.Body.String(), "data").Int()
	assert.Equal(s.T(), int64(2), count)
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestAllowedTransitionsRoute() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuth(4, types.ROLE_MANAGER))
	applicationHandlers(apiv1)

	s.Mock.ExpectQuery(`SELECT \* FROM "stall_applications"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "status"}).
			AddRow(1, string(types.APPLICATION_PAYMENT_REVIEW)))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/applications/1/transitions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	body := w.Body.String()
	assert.Equal(s.T(), string(types.APPLICATION_PAYMENT_REVIEW), gjson.Get(body, "data.status").String())
	transitions := gjson.Get(body, "data.transitions").Array()
	assert.Len(s.T(), transitions, 2)
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestRejectRequiresAllowedRole() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(stubAuth(3, types.ROLE_BRAND))
	applicationHandlers(apiv1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/applications/1/reject", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 403, w.Code)
}

func TestStatusForDomainError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusForDomainError(common.ErrApplicationNotFound))
	assert.Equal(t, http.StatusNotFound, statusForDomainError(common.ErrSubmissionNotFound))
	assert.Equal(t, http.StatusNotFound, statusForDomainError(common.ErrStallNotFound))
	assert.Equal(t, http.StatusConflict, statusForDomainError(common.ErrConcurrentModification))
	assert.Equal(t, http.StatusConflict, statusForDomainError(common.ErrDuplicateSubmission))
	assert.Equal(t, http.StatusConflict, statusForDomainError(common.ErrDuplicateApplication))
	assert.Equal(t, http.StatusConflict, statusForDomainError(common.ErrStallUnavailable))
	assert.Equal(t, http.StatusConflict, statusForDomainError(&common.InvalidTransitionError{
		From: types.APPLICATION_PENDING,
		To:   types.APPLICATION_BOOKED,
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForDomainError(common.ErrPaymentNotExpected))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForDomainError(common.ErrInvalidState))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForDomainError(common.ErrReasonRequired))
}

func TestSuiteRun(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
