package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/notify"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

const (
	msgLoadFailed   = "Failed to load cart"
	msgAdded        = "Car added to cart"
	msgAddFailed    = "Failed to add car to cart"
	msgUpdated      = "Cart updated"
	msgUpdateFailed = "Failed to update cart item"
	msgRemoved      = "Car removed from cart"
	msgRemoveFailed = "Failed to remove car from cart"
	msgCleared      = "Cart cleared"
	msgClearFailed  = "Failed to clear cart"
)

// State is a snapshot of the view-model.
type State struct {
	Items      []LineItem      `json:"items"`
	Loading    bool            `json:"loading"`
	Total      decimal.Decimal `json:"total"`
	ItemsCount int             `json:"itemsCount"`
}

// ViewModel holds the enriched cart of one session and reports the outcome of
// every action through its notifier.
type ViewModel struct {
	svc      Service
	session  string
	notifier notify.Notifier

	mu      sync.RWMutex
	items   []LineItem
	loading bool
	lastErr error
}

// NewViewModel builds the view-model and performs the initial load.
func NewViewModel(ctx context.Context, svc Service, session string, notifier notify.Notifier) *ViewModel {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	vm := &ViewModel{svc: svc, session: session, notifier: notifier, items: []LineItem{}}
	vm.Reload(ctx)
	return vm
}

// begin flips loading on and returns the matching reset.
func (vm *ViewModel) begin() func() {
	vm.mu.Lock()
	vm.loading = true
	vm.lastErr = nil
	vm.mu.Unlock()
	return func() {
		vm.mu.Lock()
		vm.loading = false
		vm.mu.Unlock()
	}
}

func (vm *ViewModel) fail(ctx context.Context, msg string, err error) {
	vm.mu.Lock()
	vm.lastErr = err
	vm.mu.Unlock()
	vm.notifier.Failure(ctx, failureText(msg, err))
}

func failureText(msg string, err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return msg + ": " + typed.Message()
	}
	return msg
}

// refresh replaces the held items without touching the loading flag.
func (vm *ViewModel) refresh(ctx context.Context) error {
	items, err := vm.svc.GetItems(ctx, vm.session)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.items = items
	vm.mu.Unlock()
	return nil
}

// reloadAfter refreshes once a mutation is persisted. A failed reload is only
// notified: the mutation stands and the held items stay as they were.
func (vm *ViewModel) reloadAfter(ctx context.Context) {
	if err := vm.refresh(ctx); err != nil {
		vm.notifier.Failure(ctx, failureText(msgLoadFailed, err))
	}
}

// Reload re-reads the cart from the sync layer.
func (vm *ViewModel) Reload(ctx context.Context) {
	defer vm.begin()()
	if err := vm.refresh(ctx); err != nil {
		vm.fail(ctx, msgLoadFailed, err)
	}
}

// AddToCart adds carID and reloads. Unlike the other actions it also returns
// an add failure to the caller.
func (vm *ViewModel) AddToCart(ctx context.Context, carID string, opts AddOptions) error {
	defer vm.begin()()
	if _, err := vm.svc.AddItem(ctx, vm.session, carID, opts); err != nil {
		vm.fail(ctx, msgAddFailed, err)
		return err
	}
	vm.notifier.Success(ctx, msgAdded)
	vm.reloadAfter(ctx)
	return nil
}

func (vm *ViewModel) UpdateCartItem(ctx context.Context, itemID string, patch ItemPatch) {
	defer vm.begin()()
	if _, err := vm.svc.UpdateItem(ctx, vm.session, itemID, patch); err != nil {
		vm.fail(ctx, msgUpdateFailed, err)
		return
	}
	vm.notifier.Success(ctx, msgUpdated)
	vm.reloadAfter(ctx)
}

func (vm *ViewModel) RemoveFromCart(ctx context.Context, itemID string) {
	defer vm.begin()()
	if err := vm.svc.RemoveItem(ctx, vm.session, itemID); err != nil {
		vm.fail(ctx, msgRemoveFailed, err)
		return
	}
	vm.notifier.Success(ctx, msgRemoved)
	vm.reloadAfter(ctx)
}

// ClearCart empties the cart and sets the empty state without reloading.
func (vm *ViewModel) ClearCart(ctx context.Context) {
	defer vm.begin()()
	if err := vm.svc.Clear(ctx, vm.session); err != nil {
		vm.fail(ctx, msgClearFailed, err)
		return
	}
	vm.mu.Lock()
	vm.items = []LineItem{}
	vm.mu.Unlock()
	vm.notifier.Success(ctx, msgCleared)
}

func (vm *ViewModel) Items() []LineItem {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]LineItem, len(vm.items))
	copy(out, vm.items)
	return out
}

func (vm *ViewModel) Loading() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.loading
}

func (vm *ViewModel) Total() decimal.Decimal {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return Total(vm.items)
}

// ItemsCount sums quantities, not distinct items.
func (vm *ViewModel) ItemsCount() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return Count(vm.items)
}

// Err is the failure of the most recent action, if any. Swallowing actions
// still record it so transports can pick a status.
func (vm *ViewModel) Err() error {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.lastErr
}

func (vm *ViewModel) State() State {
	return State{
		Items:      vm.Items(),
		Loading:    vm.Loading(),
		Total:      vm.Total(),
		ItemsCount: vm.ItemsCount(),
	}
}
