package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ledgerly/internal/handlers"
	"ledgerly/internal/logger"
	"ledgerly/internal/middleware"
	"ledgerly/internal/services"
	"ledgerly/internal/testutil"
	"ledgerly/internal/validator"
)

// testApp bundles the wired-up router with its backing database so
// tests can drive the API over HTTP and inspect rows directly.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp wires the complete service and handler stack against a
// fresh in-memory SQLite database. Each call is fully isolated.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)

	// Services
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, accountService)
	plannedService := services.NewPlannedService(db, accountService)
	matchService := services.NewMatchService(db, plannedService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	plannedHandler := handlers.NewPlannedHandler(plannedService, auditService)
	matchHandler := handlers.NewMatchHandler(matchService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/auth/logout", authHandler.Logout)

	accounts := protected.Group("/accounts")
	accounts.POST("/cash", accountHandler.CreateCashAccount)
	accounts.POST("/savings", accountHandler.CreateSavingsAccount)
	accounts.POST("/credit-card", accountHandler.CreateCreditCardAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/transfer", transactionHandler.CreateTransfer)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.GET("/:id/suggestions", matchHandler.GetSuggestions)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)

	planned := protected.Group("/planned")
	planned.POST("/templates", plannedHandler.CreateTemplate)
	planned.GET("/templates", plannedHandler.GetTemplates)
	planned.GET("/templates/:id", plannedHandler.GetTemplateByID)
	planned.PUT("/templates/:id", plannedHandler.UpdateTemplate)
	planned.DELETE("/templates/:id", plannedHandler.DeleteTemplate)
	planned.GET("/templates/:id/occurrences", plannedHandler.GetOccurrences)
	planned.GET("/templates/:id/next", plannedHandler.GetNextOccurrence)
	planned.POST("/templates/:id/occurrences/customize", plannedHandler.CustomizeOccurrence)
	planned.POST("/templates/:id/occurrences/skip", plannedHandler.SkipOccurrence)
	planned.DELETE("/overrides/:id", plannedHandler.DeleteOverride)

	reports := protected.Group("/reports")
	reports.GET("/spending-by-category", transactionHandler.GetSpendingByCategory)
	reports.GET("/monthly-summary", transactionHandler.GetMonthlySummary)
	reports.GET("/daily-spending", transactionHandler.GetDailySpending)

	matches := protected.Group("/matches")
	matches.GET("", matchHandler.GetMatches)
	matches.POST("/confirm", matchHandler.ConfirmMatch)
	matches.POST("/dismiss", matchHandler.DismissMatch)
	matches.POST("/auto", matchHandler.AutoMatch)
	matches.POST("/:id/unmatch", matchHandler.Unmatch)

	return &testApp{DB: db, Router: router}
}

// request drives one HTTP call through the router. An empty token
// leaves the request unauthenticated.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON decodes the recorded response body.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser creates an account through the API and returns the
// issued token pair plus the new user's ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// loginUser exchanges credentials for a fresh token pair.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}
