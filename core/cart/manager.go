package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sugbuph/market/api/background"
)

const saveTimeout = 5 * time.Second

// Manager owns one Store per device key and wires each store to durable
// storage. Rehydration happens once, when a device's store is first
// requested; after that the in-memory store is authoritative for the
// process lifetime and every mutation schedules a background write.
type Manager struct {
	mu        sync.Mutex
	stores    map[string]*Store
	persister Persister
	bg        *background.Background
	log       logrus.FieldLogger
}

func NewManager(p Persister, bg *background.Background, log logrus.FieldLogger) *Manager {
	return &Manager{
		stores:    make(map[string]*Store),
		persister: p,
		bg:        bg,
		log:       log,
	}
}

func (m *Manager) Get(ctx context.Context, key string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[key]; ok {
		return s
	}

	s := NewStore(key, m.saver(key))

	if m.persister != nil {
		snap, ok, err := m.persister.Load(ctx, key)
		if err != nil {
			m.log.WithField("cart", key).Warnf("rehydrating cart: %v", err)
		}
		if ok {
			s.restore(snap)
		}
	}

	m.stores[key] = s
	return s
}

// saver builds the fire-and-forget persistence hook for one device. A
// failed write is logged and swallowed: the in-memory cart stays
// authoritative and only a restart before the next successful write
// would lose the change.
func (m *Manager) saver(key string) func(Snapshot) {
	if m.persister == nil {
		return nil
	}

	return func(snap Snapshot) {
		m.bg.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()

			if err := m.persister.Save(ctx, key, snap); err != nil {
				m.log.WithField("cart", key).Warnf("persisting cart: %v", err)
			}
		})
	}
}

// restore seeds a freshly built store from a durable snapshot, dropping
// lines that no longer satisfy the quantity invariants.
func (s *Store) restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range snap.Items {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if _, ok := s.items[l.ProductID]; ok {
			continue
		}

		l := l
		if l.Quantity > l.Stock {
			l.Quantity = l.Stock
		}
		if l.Quantity < 1 {
			continue
		}

		s.items[l.ProductID] = &l
		s.order = append(s.order, l.ProductID)
	}
}
