package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/notify"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

// observingService wraps a Service and records the loading flag seen by each call.
type observingService struct {
	Service
	vm       *ViewModel
	seen     []bool
	getCalls int
	failGet  error
}

func (o *observingService) observe() {
	if o.vm != nil {
		o.seen = append(o.seen, o.vm.Loading())
	}
}

func (o *observingService) GetItems(ctx context.Context, session string) ([]LineItem, error) {
	o.getCalls++
	o.observe()
	if o.failGet != nil {
		return nil, o.failGet
	}
	return o.Service.GetItems(ctx, session)
}

func (o *observingService) AddItem(ctx context.Context, session, carID string, opts AddOptions) (LineItem, error) {
	o.observe()
	return o.Service.AddItem(ctx, session, carID, opts)
}

func (o *observingService) Clear(ctx context.Context, session string) error {
	o.observe()
	return o.Service.Clear(ctx, session)
}

func TestViewModelInitialLoad(t *testing.T) {
	f := newFixture(t, car("A", 500000), car("B", 300000))
	ctx := context.Background()
	_, _ = f.svc.AddItem(ctx, session, "A", AddOptions{})
	_, _ = f.svc.AddItem(ctx, session, "B", AddOptions{Quantity: intPtr(2)})

	obs := &observingService{Service: f.svc}
	vm := NewViewModel(ctx, obs, session, notify.NewRecorder())

	if obs.getCalls != 1 {
		t.Fatalf("expected exactly one initial load, got %d", obs.getCalls)
	}
	state := vm.State()
	if state.Loading {
		t.Fatal("expected loading reset after initial load")
	}
	if state.ItemsCount != 3 || len(state.Items) != 2 {
		t.Fatalf("unexpected state %+v", state)
	}
	if !state.Total.Equal(decimal.NewFromInt(1_100_000)) {
		t.Fatalf("expected total 1100000, got %s", state.Total)
	}
}

func TestViewModelBracketsLoading(t *testing.T) {
	f := newFixture(t, car("A", 1))
	ctx := context.Background()
	obs := &observingService{Service: f.svc}
	vm := NewViewModel(ctx, obs, session, nil)
	obs.vm = vm

	if err := vm.AddToCart(ctx, "A", AddOptions{}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	for i, loading := range obs.seen {
		if !loading {
			t.Fatalf("call %d ran outside the loading bracket", i)
		}
	}
	if len(obs.seen) != 2 {
		t.Fatalf("expected add and reload, got %d calls", len(obs.seen))
	}
	if vm.Loading() {
		t.Fatal("expected loading reset")
	}

	obs.seen = nil
	if err := vm.AddToCart(ctx, "A", AddOptions{}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if vm.Loading() {
		t.Fatal("expected loading reset after failure")
	}
}

func TestViewModelAddToCartNotifiesAndRethrows(t *testing.T) {
	f := newFixture(t, car("A", 1))
	ctx := context.Background()
	rec := notify.NewRecorder()
	vm := NewViewModel(ctx, f.svc, session, rec)

	if err := vm.AddToCart(ctx, "A", AddOptions{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := vm.AddToCart(ctx, "A", AddOptions{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got := rec.Notifications()
	if len(got) != 2 || got[0].Level != notify.LevelSuccess || got[1].Level != notify.LevelError {
		t.Fatalf("unexpected notifications %+v", got)
	}
	if vm.ItemsCount() != 1 {
		t.Fatalf("expected one item, got %d", vm.ItemsCount())
	}
}

func TestViewModelUpdateSwallowsError(t *testing.T) {
	f := newFixture(t, car("A", 1))
	ctx := context.Background()
	rec := notify.NewRecorder()
	vm := NewViewModel(ctx, f.svc, session, rec)

	vm.UpdateCartItem(ctx, "missing", ItemPatch{Quantity: intPtr(2)})
	if !pkgerrors.IsCode(vm.Err(), pkgerrors.CodeNotFound) {
		t.Fatalf("expected recorded not found, got %v", vm.Err())
	}
	if got := rec.Notifications(); len(got) != 1 || got[0].Level != notify.LevelError {
		t.Fatalf("expected one failure notification, got %+v", got)
	}

	_ = vm.AddToCart(ctx, "A", AddOptions{})
	id := vm.Items()[0].ID
	vm.UpdateCartItem(ctx, id, ItemPatch{Quantity: intPtr(3)})
	if vm.Err() != nil || vm.ItemsCount() != 3 {
		t.Fatalf("expected updated quantity, err=%v count=%d", vm.Err(), vm.ItemsCount())
	}
}

func TestViewModelRemoveReloads(t *testing.T) {
	f := newFixture(t, car("A", 10), car("B", 20))
	ctx := context.Background()
	vm := NewViewModel(ctx, f.svc, session, nil)
	_ = vm.AddToCart(ctx, "A", AddOptions{})
	_ = vm.AddToCart(ctx, "B", AddOptions{})

	vm.RemoveFromCart(ctx, vm.Items()[0].ID)
	if len(vm.Items()) != 1 || vm.Items()[0].CarID != "B" {
		t.Fatalf("unexpected items %+v", vm.Items())
	}
	if !vm.Total().Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected total %s", vm.Total())
	}
}

func TestViewModelClearSetsEmptyWithoutReload(t *testing.T) {
	f := newFixture(t, car("A", 1))
	ctx := context.Background()
	_, _ = f.svc.AddItem(ctx, session, "A", AddOptions{})
	obs := &observingService{Service: f.svc}
	vm := NewViewModel(ctx, obs, session, nil)
	loads := obs.getCalls

	vm.ClearCart(ctx)
	if obs.getCalls != loads {
		t.Fatalf("clear should not reload")
	}
	if len(vm.Items()) != 0 || vm.ItemsCount() != 0 || !vm.Total().IsZero() {
		t.Fatalf("expected empty state, got %+v", vm.State())
	}
}

func TestViewModelInitialLoadFailureNotifies(t *testing.T) {
	f := newFixture(t)
	rec := notify.NewRecorder()
	obs := &observingService{Service: f.svc, failGet: errors.New("store down")}
	vm := NewViewModel(context.Background(), obs, session, rec)

	if vm.Loading() {
		t.Fatal("expected loading reset")
	}
	if vm.Err() == nil {
		t.Fatal("expected recorded error")
	}
	if got := rec.Notifications(); len(got) != 1 || got[0].Message != msgLoadFailed {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestViewModelAddKeepsSavedItemWhenReloadFails(t *testing.T) {
	f := newFixture(t, car("A", 1))
	ctx := context.Background()
	rec := notify.NewRecorder()
	obs := &observingService{Service: f.svc}
	vm := NewViewModel(ctx, obs, session, rec)
	obs.failGet = errors.New("catalog down")

	if err := vm.AddToCart(ctx, "A", AddOptions{}); err != nil {
		t.Fatalf("add should succeed when only the reload fails, got %v", err)
	}
	if vm.Err() != nil {
		t.Fatalf("reload failure should not be recorded as the action error, got %v", vm.Err())
	}
	got := rec.Notifications()
	if len(got) != 2 || got[0].Message != msgAdded || got[1].Level != notify.LevelError || got[1].Message != msgLoadFailed {
		t.Fatalf("unexpected notifications %+v", got)
	}

	obs.failGet = nil
	items, err := f.svc.GetItems(ctx, session)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected the item persisted, items=%d err=%v", len(items), err)
	}
}
