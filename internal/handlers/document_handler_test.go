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

// --- mock document service ---

type mockDocumentService struct {
	uploadDocumentFn func(caller services.Caller, transactionID, name, fileRef string) (*models.Document, error)
	decideDocumentFn func(caller services.Caller, documentID string, decision models.DocumentDecision, comments string) (*models.Document, error)
	listDocumentsFn  func(caller services.Caller, transactionID string, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error)
}

func (m *mockDocumentService) UploadDocument(caller services.Caller, transactionID, name, fileRef string) (*models.Document, error) {
	if m.uploadDocumentFn != nil {
		return m.uploadDocumentFn(caller, transactionID, name, fileRef)
	}
	return stubDocument(models.DocumentStatusPending), nil
}

func (m *mockDocumentService) DecideDocument(caller services.Caller, documentID string, decision models.DocumentDecision, comments string) (*models.Document, error) {
	if m.decideDocumentFn != nil {
		return m.decideDocumentFn(caller, documentID, decision, comments)
	}
	return stubDocument(models.DocumentStatusApproved), nil
}

func (m *mockDocumentService) ListDocuments(caller services.Caller, transactionID string, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error) {
	if m.listDocumentsFn != nil {
		return m.listDocumentsFn(caller, transactionID, page)
	}
	resp := pagination.NewPageResponse([]models.Document{}, 1, 20, 0)
	return &resp, nil
}

var _ services.DocumentServicer = (*mockDocumentService)(nil)

func stubDocument(status models.DocumentStatus) *models.Document {
	document := &models.Document{
		TransactionID: testTxID,
		AgentID:       testAgentID,
		Name:          "purchase-agreement.pdf",
		FileRef:       "s3://dealdesk/pa.pdf",
		Status:        status,
	}
	document.ID = "018f0000-0000-7000-8000-0000000000cc"
	return document
}

func setupDocumentRouter(handler *DocumentHandler, role models.Role) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectCaller(testUserID, role))
	auth.POST("/transactions/:id/documents", handler.UploadDocument)
	auth.GET("/transactions/:id/documents", handler.ListDocuments)
	auth.PUT("/documents/:id/decision", handler.DecideDocument)
	return r
}

func TestDocumentHandler_UploadDocument(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		handler := NewDocumentHandler(&mockDocumentService{})
		r := setupDocumentRouter(handler, models.RoleAgent)

		rec := doRequest(r, "POST", "/transactions/"+testTxID+"/documents",
			`{"name":"purchase-agreement.pdf","file_ref":"s3://dealdesk/pa.pdf"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		document := result["document"].(map[string]interface{})
		if document["status"] != "pending" {
			t.Errorf("expected pending, got %v", document["status"])
		}
	})

	t.Run("returns 400 on missing file_ref", func(t *testing.T) {
		handler := NewDocumentHandler(&mockDocumentService{})
		r := setupDocumentRouter(handler, models.RoleAgent)

		rec := doRequest(r, "POST", "/transactions/"+testTxID+"/documents",
			`{"name":"purchase-agreement.pdf"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on terminal transaction", func(t *testing.T) {
		svc := &mockDocumentService{
			uploadDocumentFn: func(_ services.Caller, _, _, _ string) (*models.Document, error) {
				return nil, apperrors.ErrTransactionTerminal
			},
		}
		handler := NewDocumentHandler(svc)
		r := setupDocumentRouter(handler, models.RoleAgent)

		rec := doRequest(r, "POST", "/transactions/"+testTxID+"/documents",
			`{"name":"late.pdf","file_ref":"s3://dealdesk/late.pdf"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TRANSITION")
	})
}

func TestDocumentHandler_DecideDocument(t *testing.T) {
	t.Run("returns 200 on approval", func(t *testing.T) {
		var gotDecision models.DocumentDecision
		svc := &mockDocumentService{
			decideDocumentFn: func(_ services.Caller, _ string, decision models.DocumentDecision, _ string) (*models.Document, error) {
				gotDecision = decision
				return stubDocument(models.DocumentStatusApproved), nil
			},
		}
		handler := NewDocumentHandler(svc)
		r := setupDocumentRouter(handler, models.RoleTC)

		rec := doRequest(r, "PUT", "/documents/"+stubDocument("").ID+"/decision",
			`{"decision":"approve","comments":"complete"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotDecision != models.DocumentDecisionApprove {
			t.Errorf("expected approve, got %s", gotDecision)
		}
	})

	t.Run("returns 400 on unknown decision", func(t *testing.T) {
		handler := NewDocumentHandler(&mockDocumentService{})
		r := setupDocumentRouter(handler, models.RoleTC)

		rec := doRequest(r, "PUT", "/documents/"+stubDocument("").ID+"/decision",
			`{"decision":"maybe"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 when already decided", func(t *testing.T) {
		svc := &mockDocumentService{
			decideDocumentFn: func(_ services.Caller, _ string, _ models.DocumentDecision, _ string) (*models.Document, error) {
				return nil, apperrors.ErrAlreadyDecided
			},
		}
		handler := NewDocumentHandler(svc)
		r := setupDocumentRouter(handler, models.RoleBroker)

		rec := doRequest(r, "PUT", "/documents/"+stubDocument("").ID+"/decision",
			`{"decision":"reject"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_DECIDED")
	})
}

func TestDocumentHandler_ListDocuments(t *testing.T) {
	svc := &mockDocumentService{
		listDocumentsFn: func(_ services.Caller, _ string, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error) {
			resp := pagination.NewPageResponse([]models.Document{*stubDocument(models.DocumentStatusApproved)}, page.Page, page.PageSize, 1)
			return &resp, nil
		},
	}
	handler := NewDocumentHandler(svc)
	r := setupDocumentRouter(handler, models.RoleTC)

	rec := doRequest(r, "GET", "/transactions/"+testTxID+"/documents", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Errorf("expected 1 document, got %v", result["total_items"])
	}
}
