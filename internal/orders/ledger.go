package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/ariefcatur/go-dropship-orders/internal/apperr"
)

var (
	ErrDuplicateOrder = errors.New("order already exists")
	ErrOrderNotFound  = fmt.Errorf("order %w", apperr.ErrNotFound)
)

// Ledger persists orders keyed by the payment gateway order id.
type Ledger interface {
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	Append(ctx context.Context, o Order) error
	// MarkPaid moves the order to paid and returns the stored record.
	// found is false when no order has that id; nothing is written then.
	MarkPaid(ctx context.Context, id string) (o Order, found bool, err error)
}

// FileLedger keeps every order in one JSON array that is rewritten in full
// on each mutation. Mutations are serialized within the process only.
type FileLedger struct {
	Path string

	mu sync.Mutex
}

func NewFileLedger(path string) *FileLedger {
	return &FileLedger{Path: path}
}

// ReadAll returns every stored order. A missing file is an empty ledger.
func (l *FileLedger) ReadAll() ([]Order, error) {
	b, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var out []Order
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", l.Path, err)
	}
	if out == nil {
		out = []Order{}
	}
	return out, nil
}

func (l *FileLedger) WriteAll(orders []Order) error {
	return writeJSONFile(l.Path, orders)
}

func (l *FileLedger) List(ctx context.Context) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ReadAll()
}

func (l *FileLedger) Get(ctx context.Context, id string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.ReadAll()
	if err != nil {
		return Order{}, err
	}
	for _, o := range all {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrOrderNotFound
}

func (l *FileLedger) Append(ctx context.Context, o Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.ReadAll()
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == o.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
		}
	}
	return l.WriteAll(append(all, o))
}

func (l *FileLedger) MarkPaid(ctx context.Context, id string) (Order, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.ReadAll()
	if err != nil {
		return Order{}, false, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if all[i].Status == StatusPaid {
			return all[i], true, nil
		}
		if !CanTransition(all[i].Status, StatusPaid) {
			return Order{}, true, fmt.Errorf("order %s: invalid transition %s -> %s", id, all[i].Status, StatusPaid)
		}
		all[i].Status = StatusPaid
		all[i].UpdatedAt = time.Now().UTC()
		if err := l.WriteAll(all); err != nil {
			return Order{}, true, err
		}
		return all[i], true, nil
	}
	return Order{}, false, nil
}
