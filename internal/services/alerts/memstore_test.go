package alerts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/xelth-com/soletrack/internal/milestone"
	"github.com/xelth-com/soletrack/internal/models"
)

var (
	now   = time.Date(2026, 10, 19, 10, 0, 0, 0, time.Local)
	clock = milestone.FixedClock{T: now}
)

// day renders today+n the way the tables store it
func day(n int) string {
	return milestone.AddDays(now, n).Format(milestone.ISODate)
}

// memStore is an in-memory Store mirroring the gorm store semantics
type memStore struct {
	mu sync.Mutex

	orders  map[uint]*models.PurchaseOrder
	lines   map[uint]*models.OrderLine
	samples map[uint]*models.Sample

	alerts []models.Alert
	runs   []models.AlertRun
	nextID uint

	locked      bool
	snapshotErr error
	openErr     error
	resolveErr  error
	touchErr    error
	saveCtxErr  error
	insertErr   func(a *models.Alert) error
	inserted    int
}

func newMemStore() *memStore {
	return &memStore{
		orders:  map[uint]*models.PurchaseOrder{},
		lines:   map[uint]*models.OrderLine{},
		samples: map[uint]*models.Sample{},
	}
}

func (m *memStore) addOrder(po models.PurchaseOrder) *models.PurchaseOrder {
	m.orders[po.ID] = &po
	return &po
}

func (m *memStore) addLine(l models.OrderLine) *models.OrderLine {
	m.lines[l.ID] = &l
	return &l
}

func (m *memStore) addSample(s models.Sample) *models.Sample {
	m.samples[s.ID] = &s
	return &s
}

func sortedKeys[T any](in map[uint]T) []uint {
	ids := make([]uint, 0, len(in))
	for id := range in {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memStore) ListSamplesWithLineAndPO(ctx context.Context) ([]SampleRow, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	var rows []SampleRow
	for _, id := range sortedKeys(m.samples) {
		s := *m.samples[id]
		row := SampleRow{Sample: s}
		if l, ok := m.lines[s.LineID]; ok {
			line := *l
			row.Line = &line
			if po, ok := m.orders[l.PurchaseOrderID]; ok {
				order := *po
				row.PurchaseOrder = &order
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *memStore) ListLinesWithPO(ctx context.Context) ([]LineRow, error) {
	var rows []LineRow
	for _, id := range sortedKeys(m.lines) {
		row := LineRow{Line: *m.lines[id]}
		if po, ok := m.orders[row.Line.PurchaseOrderID]; ok {
			order := *po
			row.PurchaseOrder = &order
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *memStore) ListPurchaseOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	var out []models.PurchaseOrder
	for _, id := range sortedKeys(m.orders) {
		out = append(out, *m.orders[id])
	}
	return out, nil
}

func (m *memStore) FindAlertBySampleID(ctx context.Context, sampleID uint) (*models.Alert, error) {
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		if a.SampleID != nil && *a.SampleID == sampleID && a.ResolvedAt == nil {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListOpenAlerts(ctx context.Context, categories []string) ([]models.Alert, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	want := map[string]bool{}
	for _, c := range categories {
		want[c] = true
	}
	var out []models.Alert
	for _, a := range m.alerts {
		if a.ResolvedAt == nil && want[a.Category] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) InsertAlerts(ctx context.Context, alerts []*models.Alert) []error {
	errs := make([]error, len(alerts))
	for i, a := range alerts {
		if m.insertErr != nil {
			if err := m.insertErr(a); err != nil {
				errs[i] = err
				continue
			}
		}
		if m.openKey(a.DedupKey) {
			errs[i] = ErrDuplicateAlert
			continue
		}
		m.nextID++
		a.ID = m.nextID
		a.CreatedAt = now
		m.alerts = append(m.alerts, *a)
		m.inserted++
	}
	return errs
}

func (m *memStore) openKey(key string) bool {
	for _, a := range m.alerts {
		if a.DedupKey == key && a.ResolvedAt == nil {
			return true
		}
	}
	return false
}

func (m *memStore) find(id uint) *models.Alert {
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			return &m.alerts[i]
		}
	}
	return nil
}

func (m *memStore) UpdateAlert(ctx context.Context, alert *models.Alert) error {
	a := m.find(alert.ID)
	if a == nil || a.ResolvedAt != nil {
		return ErrNotFound
	}
	read := a.Read
	*a = *alert
	a.Read = read
	return nil
}

func (m *memStore) TouchAlerts(ctx context.Context, ids []uint, at time.Time) error {
	if m.touchErr != nil {
		return m.touchErr
	}
	for _, id := range ids {
		if a := m.find(id); a != nil {
			a.LastSeenAt = at
		}
	}
	return nil
}

func (m *memStore) ResolveAlerts(ctx context.Context, ids []uint, at time.Time) error {
	if m.resolveErr != nil {
		return m.resolveErr
	}
	for _, id := range ids {
		if a := m.find(id); a != nil && a.ResolvedAt == nil {
			t := at
			a.ResolvedAt = &t
		}
	}
	return nil
}

func (m *memStore) DeleteAlertsByCategory(ctx context.Context, category string) (int64, error) {
	kept := m.alerts[:0]
	var n int64
	for _, a := range m.alerts {
		if a.Category == category {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.alerts = kept
	return n, nil
}

func (m *memStore) WithRunLock(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.locked {
		m.mu.Unlock()
		return ErrRunInProgress
	}
	m.locked = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.locked = false
		m.mu.Unlock()
	}()
	return fn(ctx)
}

func (m *memStore) SaveRun(ctx context.Context, run *models.AlertRun) error {
	m.saveCtxErr = ctx.Err()
	run.ID = int64(len(m.runs) + 1)
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memStore) ListRuns(ctx context.Context, limit int) ([]models.AlertRun, error) {
	var out []models.AlertRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *memStore) GetSample(ctx context.Context, id uint) (*models.Sample, error) {
	s, ok := m.samples[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}

func (m *memStore) GetLine(ctx context.Context, id uint) (*models.OrderLine, error) {
	l, ok := m.lines[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *l
	out.Samples = nil
	for _, sid := range sortedKeys(m.samples) {
		if m.samples[sid].LineID == id {
			out.Samples = append(out.Samples, *m.samples[sid])
		}
	}
	return &out, nil
}

func (m *memStore) GetPurchaseOrder(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	po, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *po
	out.Lines = nil
	for _, lid := range sortedKeys(m.lines) {
		if m.lines[lid].PurchaseOrderID == id {
			l, _ := m.GetLine(ctx, lid)
			out.Lines = append(out.Lines, *l)
		}
	}
	return &out, nil
}

func (m *memStore) ListAlerts(ctx context.Context, q AlertQuery) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range m.alerts {
		if q.Category != "" && a.Category != q.Category {
			continue
		}
		if q.UnreadOnly && a.Read {
			continue
		}
		if !q.IncludeResolved && a.ResolvedAt != nil {
			continue
		}
		out = append(out, a)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) MarkAlertRead(ctx context.Context, id uint, read bool) (*models.Alert, error) {
	a := m.find(id)
	if a == nil {
		return nil, ErrNotFound
	}
	a.Read = read
	out := *a
	return &out, nil
}

// openAlerts returns the unresolved alerts keyed by dedup key
func (m *memStore) openAlerts() map[string]models.Alert {
	out := map[string]models.Alert{}
	for _, a := range m.alerts {
		if a.ResolvedAt == nil {
			out[a.DedupKey] = a
		}
	}
	return out
}

var errBoom = errors.New("boom")

// fixtureStore holds one PO with one line and a few samples:
//   - sample 1: CFM due in 2 days, pending
//   - sample 2: inspection due tomorrow, pending
//   - sample 3: fitting already sent
//   - sample 4: PPS rejected, due in 5 days
//   - line 10: trial upper target in 5 days, lasting overdue by 2 days
//   - po 100: ETD in 10 days, not shipped
func fixtureStore() *memStore {
	m := newMemStore()
	m.addOrder(models.PurchaseOrder{ID: 100, Number: "PO-2611", Customer: "Camper", ETD: day(10)})
	m.addLine(models.OrderLine{
		ID: 10, PurchaseOrderID: 100, Style: "K400", Color: "Black",
		TrialUpperTarget: day(5),
		LastingTarget:    day(-2),
	})
	m.addSample(models.Sample{ID: 1, LineID: 10, Kind: "cfm", TargetDate: day(2)})
	m.addSample(models.Sample{ID: 2, LineID: 10, Kind: "inspection", TargetDate: day(1)})
	m.addSample(models.Sample{ID: 3, LineID: 10, Kind: "fitting", ActualDate: day(-3), TargetDate: day(-4)})
	m.addSample(models.Sample{ID: 4, LineID: 10, Kind: "pps", TargetDate: day(5), Approval: "N/Cfm"})
	return m
}

// fixtureKeys are the alerts fixtureStore raises on day 0
var fixtureKeys = []string{
	"muestra:cfm:sample:1",
	"muestra:inspection:sample:2",
	"muestra:pps:sample:4",
	"produccion:trial_upper:line:10",
	"produccion:lasting:line:10",
	"logistica:etd:po:100",
}

func newTestService(m *memStore, policy Policy) *Service {
	svc := NewService(m, milestone.DefaultRuleTable(), policy)
	svc.SetClock(clock)
	return svc
}
