package ledger

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tonermart/backend/internal/models"
)

// Memory is the in-process ledger backend. A per-customer mutex serializes
// purchase, cancel and balance reads for one customer; customers never
// block each other. The purchase log is append-only, cancellation only
// flips the Cancelled flag.
type Memory struct {
	accounts *accountStore
	catalog  *catalogStore

	logMu sync.RWMutex
	log   []*models.Purchase

	lockMu    sync.Mutex
	custLocks map[string]*sync.Mutex

	nextID atomic.Int64
	now    func() time.Time
}

// NewMemory returns an empty in-memory ledger. Load the seed data through
// LoadCustomers/LoadArticles/LoadPurchases before serving traffic.
func NewMemory() *Memory {
	return &Memory{
		accounts:  newAccountStore(),
		catalog:   newCatalogStore(),
		custLocks: make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

func (m *Memory) lockFor(customer string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	mu, ok := m.custLocks[customer]
	if !ok {
		mu = &sync.Mutex{}
		m.custLocks[customer] = mu
	}
	return mu
}

func (m *Memory) Purchase(ctx context.Context, customer, article string, quantity int64) (bool, error) {
	if quantity <= 0 {
		return false, ErrQuantityIncorrect
	}
	art, err := m.catalog.get(article)
	if err != nil {
		return false, err
	}

	mu := m.lockFor(customer)
	mu.Lock()
	defer mu.Unlock()

	cust, err := m.accounts.get(customer)
	if err != nil {
		return false, err
	}

	cost := art.Price * quantity
	if cust.Balance < cost {
		return false, nil
	}
	cust.Balance -= cost

	p := &models.Purchase{
		ID:          m.nextID.Add(1),
		Customer:    customer,
		Article:     article,
		Quantity:    quantity,
		Price:       art.Price,
		PurchasedAt: m.now(),
	}
	m.logMu.Lock()
	m.log = append(m.log, p)
	m.logMu.Unlock()

	return true, nil
}

func (m *Memory) Cancel(ctx context.Context, customer, article string) error {
	if _, err := m.catalog.get(article); err != nil {
		return err
	}

	mu := m.lockFor(customer)
	mu.Lock()
	defer mu.Unlock()

	cust, err := m.accounts.get(customer)
	if err != nil {
		return err
	}

	// Most recent eligible purchase wins; ids are monotonic so scanning
	// from the tail finds it first.
	var target *models.Purchase
	m.logMu.RLock()
	for i := len(m.log) - 1; i >= 0; i-- {
		p := m.log[i]
		if p.Customer == customer && p.Article == article && !p.Cancelled {
			target = p
			break
		}
	}
	m.logMu.RUnlock()
	if target == nil {
		return models.ErrNothingToCancel
	}

	target.Cancelled = true
	cust.Balance += target.Cost()
	return nil
}

func (m *Memory) Balance(ctx context.Context, customer string) (int64, error) {
	mu := m.lockFor(customer)
	mu.Lock()
	defer mu.Unlock()

	cust, err := m.accounts.get(customer)
	if err != nil {
		return 0, err
	}
	return cust.Balance, nil
}

func (m *Memory) History(ctx context.Context, customer string) ([]models.HistoryRow, error) {
	return m.history(customer, false, false)
}

func (m *Memory) HistoryToday(ctx context.Context, customer string) ([]models.HistoryRow, error) {
	return m.history(customer, true, true)
}

func (m *Memory) history(customer string, todayOnly, newestFirst bool) ([]models.HistoryRow, error) {
	mu := m.lockFor(customer)
	mu.Lock()
	defer mu.Unlock()

	if _, err := m.accounts.get(customer); err != nil {
		return nil, err
	}

	today := m.now().Format("2006-01-02")

	var rows []models.HistoryRow
	m.logMu.RLock()
	for _, p := range m.log {
		if p.Customer != customer || p.Cancelled {
			continue
		}
		if todayOnly && p.PurchasedAt.Format("2006-01-02") != today {
			continue
		}
		rows = append(rows, toHistoryRow(*p))
	}
	m.logMu.RUnlock()

	// The log can interleave seeded and live rows, so order by id rather
	// than trusting insertion order.
	sort.Slice(rows, func(i, j int) bool {
		if newestFirst {
			return rows[i].PurchaseID > rows[j].PurchaseID
		}
		return rows[i].PurchaseID < rows[j].PurchaseID
	})
	return rows, nil
}

func (m *Memory) CustomerNames(ctx context.Context) ([]string, error) {
	return m.accounts.names(), nil
}

func (m *Memory) ArticleNames(ctx context.Context) ([]string, error) {
	return m.catalog.names(), nil
}

func (m *Memory) PurchaseIDs(ctx context.Context) ([]int64, error) {
	m.logMu.RLock()
	defer m.logMu.RUnlock()
	ids := make([]int64, 0, len(m.log))
	for _, p := range m.log {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) LoadCustomers(ctx context.Context, customers []models.Customer) error {
	for _, c := range customers {
		m.accounts.put(c)
	}
	return nil
}

func (m *Memory) LoadArticles(ctx context.Context, articles []models.Article) error {
	for _, a := range articles {
		m.catalog.put(a)
	}
	return nil
}

func (m *Memory) LoadPurchases(ctx context.Context, purchases []models.Purchase) error {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	for _, p := range purchases {
		pp := p
		m.log = append(m.log, &pp)
		if cur := m.nextID.Load(); p.ID > cur {
			m.nextID.Store(p.ID)
		}
	}
	sort.Slice(m.log, func(i, j int) bool { return m.log[i].ID < m.log[j].ID })
	return nil
}

var _ Ledger = (*Memory)(nil)
