package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/models"
	"dealdesk/internal/pagination"
	"dealdesk/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn func(caller services.Caller, input services.CreateTransactionInput) (*models.Transaction, error)
	getTransactionFn    func(caller services.Caller, transactionID string) (*models.Transaction, error)
	listTransactionsFn  func(caller services.Caller, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	advanceStatusFn     func(caller services.Caller, transactionID string, target models.TransactionStatus) (*models.Transaction, error)
	cancelTransactionFn func(caller services.Caller, transactionID string) (*models.Transaction, error)
}

func (m *mockTransactionService) CreateTransaction(caller services.Caller, input services.CreateTransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(caller, input)
	}
	return stubTransaction(models.TransactionStatusNew), nil
}

func (m *mockTransactionService) GetTransaction(caller services.Caller, transactionID string) (*models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(caller, transactionID)
	}
	return stubTransaction(models.TransactionStatusNew), nil
}

func (m *mockTransactionService) ListTransactions(caller services.Caller, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(caller, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) AdvanceStatus(caller services.Caller, transactionID string, target models.TransactionStatus) (*models.Transaction, error) {
	if m.advanceStatusFn != nil {
		return m.advanceStatusFn(caller, transactionID, target)
	}
	return stubTransaction(target), nil
}

func (m *mockTransactionService) CancelTransaction(caller services.Caller, transactionID string) (*models.Transaction, error) {
	if m.cancelTransactionFn != nil {
		return m.cancelTransactionFn(caller, transactionID)
	}
	return stubTransaction(models.TransactionStatusCancelled), nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func stubTransaction(status models.TransactionStatus) *models.Transaction {
	transaction := &models.Transaction{
		Reference:       "TR-1001",
		PropertyAddress: "12 Elm Street",
		City:            "Springfield",
		State:           "IL",
		Price:           35000000,
		ClientName:      "Pat Doe",
		AgentID:         testAgentID,
		BrokerID:        testBrokerID,
		Status:          status,
	}
	transaction.ID = testTxID
	return transaction
}

func setupTransactionRouter(handler *TransactionHandler, role models.Role) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectCaller(testUserID, role))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.ListTransactions)
	auth.GET("/transactions/:id", handler.GetTransaction)
	auth.PUT("/transactions/:id/status", handler.AdvanceStatus)
	auth.POST("/transactions/:id/cancel", handler.CancelTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler, models.RoleAgent)

		rec := doRequest(r, "POST", "/transactions",
			`{"property_address":"12 Elm Street","city":"Springfield","state":"IL","price":35000000,"client_name":"Pat Doe"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		transaction := result["transaction"].(map[string]interface{})
		if transaction["reference"] != "TR-1001" {
			t.Errorf("expected reference TR-1001, got %v", transaction["reference"])
		}
	})

	t.Run("returns 400 on missing price", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler, models.RoleAgent)

		rec := doRequest(r, "POST", "/transactions",
			`{"property_address":"12 Elm Street","city":"Springfield","state":"IL","client_name":"Pat Doe"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})

	t.Run("returns 403 when service rejects role", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(_ services.Caller, _ services.CreateTransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler, models.RoleTC)

		rec := doRequest(r, "POST", "/transactions",
			`{"property_address":"12 Elm Street","city":"Springfield","state":"IL","price":35000000,"client_name":"Pat Doe"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "AUTHORIZATION_ERROR")
	})
}

func TestTransactionHandler_AdvanceStatus(t *testing.T) {
	t.Run("returns 200 on a valid edge", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler, models.RoleTC)

		rec := doRequest(r, "PUT", "/transactions/"+testTxID+"/status",
			`{"target":"in_progress"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		transaction := result["transaction"].(map[string]interface{})
		if transaction["status"] != "in_progress" {
			t.Errorf("expected status in_progress, got %v", transaction["status"])
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler, models.RoleTC)

		rec := doRequest(r, "PUT", "/transactions/"+testTxID+"/status",
			`{"target":"done"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on an invalid transition", func(t *testing.T) {
		svc := &mockTransactionService{
			advanceStatusFn: func(_ services.Caller, _ string, _ models.TransactionStatus) (*models.Transaction, error) {
				return nil, apperrors.ErrInvalidTransition
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler, models.RoleTC)

		rec := doRequest(r, "PUT", "/transactions/"+testTxID+"/status",
			`{"target":"closed"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TRANSITION")
	})

	t.Run("returns 412 when readiness is unmet", func(t *testing.T) {
		svc := &mockTransactionService{
			advanceStatusFn: func(_ services.Caller, _ string, _ models.TransactionStatus) (*models.Transaction, error) {
				return nil, apperrors.ErrPreconditionFailed
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler, models.RoleTC)

		rec := doRequest(r, "PUT", "/transactions/"+testTxID+"/status",
			`{"target":"ready_for_closure"}`)

		if rec.Code != http.StatusPreconditionFailed {
			t.Fatalf("expected 412, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PRECONDITION_FAILED")
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		svc := &mockTransactionService{
			listTransactionsFn: func(_ services.Caller, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Transaction{*stubTransaction(models.TransactionStatusAtRisk)}, page.Page, page.PageSize, 1)
				return &resp, nil
			},
		}
		handler := NewTransactionHandler(svc)
		r := setupTransactionRouter(handler, models.RoleTC)

		rec := doRequest(r, "GET", "/transactions?status=at_risk&page=1&page_size=10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Status == nil || *gotFilter.Status != models.TransactionStatusAtRisk {
			t.Errorf("expected status filter at_risk, got %v", gotFilter.Status)
		}
	})

	t.Run("returns 400 on a bogus status filter", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler, models.RoleTC)

		rec := doRequest(r, "GET", "/transactions?status=bogus", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_CancelTransaction(t *testing.T) {
	handler := NewTransactionHandler(&mockTransactionService{})
	r := setupTransactionRouter(handler, models.RoleAgent)

	rec := doRequest(r, "POST", "/transactions/"+testTxID+"/cancel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	transaction := result["transaction"].(map[string]interface{})
	if transaction["status"] != "cancelled" {
		t.Errorf("expected status cancelled, got %v", transaction["status"])
	}
}
