package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/autostore-backend/internal/leads"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	"github.com/angelmondragon/autostore-backend/pkg/validation"
)

type stubLeads struct {
	session  string
	lastKind enums.LeadKind
	limit    int
}

func (s *stubLeads) dto(kind enums.LeadKind, carID string) *leads.LeadDTO {
	return &leads.LeadDTO{ID: uuid.New(), Kind: kind, CarID: &carID}
}

func (s *stubLeads) SubmitContact(_ context.Context, session string, req leads.ContactRequest) (*leads.LeadDTO, error) {
	s.session = session
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.dto(enums.LeadKindContact, req.CarID), nil
}

func (s *stubLeads) SubmitTestDrive(_ context.Context, session string, req leads.TestDriveRequest) (*leads.LeadDTO, error) {
	s.session = session
	return s.dto(enums.LeadKindTestDrive, req.CarID), nil
}

func (s *stubLeads) SubmitFinancing(_ context.Context, session string, req leads.FinancingRequest) (*leads.LeadDTO, error) {
	s.session = session
	return s.dto(enums.LeadKindFinancing, req.CarID), nil
}

func (s *stubLeads) RecordPurchase(context.Context, string, leads.PurchaseInput) (*leads.LeadDTO, error) {
	return s.dto(enums.LeadKindPurchase, ""), nil
}

func (s *stubLeads) List(_ context.Context, session string, kind enums.LeadKind, limit int) ([]leads.LeadDTO, error) {
	s.session, s.lastKind, s.limit = session, kind, limit
	return []leads.LeadDTO{*s.dto(enums.LeadKindContact, "A")}, nil
}

func TestLeadContact(t *testing.T) {
	svc := &stubLeads{}
	resp := httptest.NewRecorder()
	LeadContact(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/leads/contact", strings.NewReader(
		`{"car_id":"A","name":"Anna","phone":"+7 900 000","message":"Is it available?"}`)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.session != testSession {
		t.Fatalf("expected session %s got %s", testSession, svc.session)
	}
}

func TestLeadContactValidation(t *testing.T) {
	resp := httptest.NewRecorder()
	LeadContact(&stubLeads{}, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/leads/contact", strings.NewReader(`{"car_id":"A"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	body := decode[map[string]any](t, resp)
	for _, field := range []string{"name", "phone", "message"} {
		if _, ok := body.Error.Details[field]; !ok {
			t.Fatalf("expected %s in details %v", field, body.Error.Details)
		}
	}
}

func TestLeadTestDriveRejectsBadDate(t *testing.T) {
	resp := httptest.NewRecorder()
	LeadTestDrive(&stubLeads{}, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/leads/test-drive", strings.NewReader(
		`{"car_id":"A","name":"Anna","phone":"+7 900 000","preferred_date":"tomorrow"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLeadFinancing(t *testing.T) {
	resp := httptest.NewRecorder()
	LeadFinancing(&stubLeads{}, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/leads/financing", strings.NewReader(
		`{"car_id":"A","name":"Anna","phone":"+7 900 000","email":"anna@example.com","down_payment":"100000","term_months":24}`)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestLeadList(t *testing.T) {
	svc := &stubLeads{}
	resp := httptest.NewRecorder()
	LeadList(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/leads?kind=contact&limit=5", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastKind != enums.LeadKindContact || svc.limit != 5 {
		t.Fatalf("unexpected list params kind=%s limit=%d", svc.lastKind, svc.limit)
	}

	resp = httptest.NewRecorder()
	LeadList(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/leads?kind=spam", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
