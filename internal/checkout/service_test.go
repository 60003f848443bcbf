package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/cart"
	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/financing"
	"github.com/angelmondragon/autostore-backend/internal/leads"
	"github.com/angelmondragon/autostore-backend/internal/localstore"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

const session = "browser-1"

type stubCatalog map[string]catalog.Car

func (s stubCatalog) GetCar(_ context.Context, id string) (*catalog.Car, error) {
	car, ok := s[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog unreachable")
	}
	return &car, nil
}

type stubRecorder struct {
	mu     sync.Mutex
	inputs []leads.PurchaseInput
	err    error
}

func (r *stubRecorder) RecordPurchase(_ context.Context, _ string, input leads.PurchaseInput) (*leads.LeadDTO, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.inputs = append(r.inputs, input)
	ref := input.Reference
	return &leads.LeadDTO{ID: uuid.New(), Kind: enums.LeadKindPurchase, Reference: &ref}, nil
}

// flakyCart fails RemoveItem for the listed item ids.
type flakyCart struct {
	cart.Service
	failIDs map[string]bool
}

func (f *flakyCart) RemoveItem(ctx context.Context, session, itemID string) error {
	if f.failIDs[itemID] {
		return errors.New("store unavailable")
	}
	return f.Service.RemoveItem(ctx, session, itemID)
}

type fixture struct {
	cart     cart.Service
	recorder *stubRecorder
	svc      Service
	ids      map[string]string
}

func newFixture(t *testing.T, failCarIDs ...string) fixture {
	t.Helper()
	cars := stubCatalog{
		"A": {ID: "A", Price: decimal.NewFromInt(500_000)},
		"B": {ID: "B", Price: decimal.NewFromInt(300_000)},
	}
	cartSvc, err := cart.NewService(cart.ServiceParams{
		Store:   cart.NewStore(localstore.NewMemory(), localstore.NewKeyspace("test")),
		Catalog: cars,
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	ctx := context.Background()
	ids := map[string]string{}
	qty := 2
	a, err := cartSvc.AddItem(ctx, session, "A", cart.AddOptions{})
	if err != nil {
		t.Fatalf("add A: %v", err)
	}
	b, err := cartSvc.AddItem(ctx, session, "B", cart.AddOptions{Quantity: &qty})
	if err != nil {
		t.Fatalf("add B: %v", err)
	}
	ids["A"], ids["B"] = a.ID, b.ID

	var used cart.Service = cartSvc
	if len(failCarIDs) > 0 {
		fail := map[string]bool{}
		for _, carID := range failCarIDs {
			fail[ids[carID]] = true
		}
		used = &flakyCart{Service: cartSvc, failIDs: fail}
	}

	recorder := &stubRecorder{}
	svc, err := NewService(ServiceParams{
		Cart:         used,
		Leads:        recorder,
		Financing:    financing.Defaults{TermMonths: 36, AnnualRatePercent: 12.5},
		NewReference: func() string { return "AS-TEST" },
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	return fixture{cart: cartSvc, recorder: recorder, svc: svc, ids: ids}
}

func validSubmit() SubmitRequest {
	return SubmitRequest{Name: "Anna", Phone: "+7 900 000", Email: "anna@example.com", PaymentType: "cash"}
}

func TestSummaryDefaultsToWholeCart(t *testing.T) {
	f := newFixture(t)
	rec := notify.NewRecorder()
	summary, err := f.svc.Summary(context.Background(), session, SummaryRequest{PromoCode: "FIRST15"}, rec)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	mustEqual(t, "subtotal", summary.Subtotal, 1_100_000)
	mustEqual(t, "discount", summary.Discount, 165_000)
	mustEqual(t, "total", summary.Total, 935_000)
	if got := rec.Notifications(); len(got) != 1 || got[0].Level != notify.LevelSuccess {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestSummaryInvalidPromoNotifiesOnly(t *testing.T) {
	f := newFixture(t)
	rec := notify.NewRecorder()
	summary, err := f.svc.Summary(context.Background(), session, SummaryRequest{SelectedIDs: []string{f.ids["A"]}, PromoCode: "NOPE"}, rec)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	mustEqual(t, "discount", summary.Discount, 0)
	mustEqual(t, "total", summary.Total, 500_000)
	if got := rec.Notifications(); len(got) != 1 || got[0].Message != msgPromoInvalid {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestSummaryFinancingProjection(t *testing.T) {
	f := newFixture(t)
	zero := 0.0
	summary, err := f.svc.Summary(context.Background(), session, SummaryRequest{
		Financing: &FinancingOptions{Type: "credit", DownPayment: decimal.NewFromInt(100_000), TermMonths: 10, AnnualRatePercent: &zero},
	}, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Financing == nil {
		t.Fatal("expected financing projection")
	}
	mustEqual(t, "monthly", summary.Financing.MonthlyPayment, 100_000)
}

func TestValidatePromo(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ValidatePromo(context.Background(), "nope", nil); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidPromo) {
		t.Fatalf("expected invalid promo, got %v", err)
	}
	promo, err := f.svc.ValidatePromo(context.Background(), "save10", nil)
	if err != nil || promo.Code != "SAVE10" {
		t.Fatalf("unexpected promo %+v err=%v", promo, err)
	}
}

func TestSubmitRequiresCustomerFields(t *testing.T) {
	f := newFixture(t)
	rec := notify.NewRecorder()
	_, err := f.svc.Submit(context.Background(), session, SubmitRequest{PaymentType: "cash"}, rec)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := typed.Details().(map[string]string)
	for _, field := range []string{"name", "phone", "email"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected %s in details %v", field, details)
		}
	}
	if len(rec.Notifications()) != 1 {
		t.Fatalf("expected failure notification")
	}
	if len(f.recorder.inputs) != 0 {
		t.Fatalf("nothing should be recorded")
	}
}

func TestSubmitRequiresSelection(t *testing.T) {
	f := newFixture(t)
	req := validSubmit()
	req.SelectedIDs = []string{}
	_, err := f.svc.Submit(context.Background(), session, req, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitRecordsPurchaseAndRemovesSelected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := validSubmit()
	req.SelectedIDs = []string{f.ids["B"]}
	req.PromoCode = "SAVE10"

	receipt, err := f.svc.Submit(ctx, session, req, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Reference != "AS-TEST" || receipt.RemovedCount != 1 || receipt.RemovalFailed != 0 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	mustEqual(t, "total", receipt.Summary.Total, 540_000)

	if len(f.recorder.inputs) != 1 {
		t.Fatalf("expected one purchase, got %d", len(f.recorder.inputs))
	}
	mustEqual(t, "recorded amount", f.recorder.inputs[0].Amount, 540_000)

	remaining, err := f.cart.GetItems(ctx, session)
	if err != nil {
		t.Fatalf("get items: %v", err)
	}
	if len(remaining) != 1 || remaining[0].CarID != "A" {
		t.Fatalf("expected only A left, got %+v", remaining)
	}
}

func TestSubmitRemovesEverySelectedItemConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	receipt, err := f.svc.Submit(ctx, session, validSubmit(), nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.RemovedCount != 2 {
		t.Fatalf("expected both removed, got %+v", receipt)
	}
	items, _ := f.cart.GetItems(ctx, session)
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}

func TestSubmitPartialRemovalIsNotRolledBack(t *testing.T) {
	f := newFixture(t, "A")
	ctx := context.Background()
	rec := notify.NewRecorder()

	receipt, err := f.svc.Submit(ctx, session, validSubmit(), rec)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.RemovedCount != 1 || receipt.RemovalFailed != 1 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	items, _ := f.cart.GetItems(ctx, session)
	if len(items) != 1 || items[0].CarID != "A" {
		t.Fatalf("expected A to remain, got %+v", items)
	}
	var sawPartial bool
	for _, n := range rec.Notifications() {
		if n.Message == msgPartialRemoval {
			sawPartial = true
		}
	}
	if !sawPartial {
		t.Fatalf("expected partial removal notification, got %+v", rec.Notifications())
	}
}

func TestSubmitRecordFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = pkgerrors.New(pkgerrors.CodeInternal, "db down")
	if _, err := f.svc.Submit(context.Background(), session, validSubmit(), nil); !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	items, _ := f.cart.GetItems(context.Background(), session)
	if len(items) != 2 {
		t.Fatalf("cart should be untouched, got %d items", len(items))
	}
}
