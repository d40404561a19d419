package quantify

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/shared"
	"github.com/kudoshq/kudos/internal/users"
)

// ====== FAKE PORTS ======

type fakePeriods struct {
	items   map[int64]periods.Period
	windows map[int64]periods.Window
}

func newFakePeriods() *fakePeriods {
	return &fakePeriods{
		items:   make(map[int64]periods.Period),
		windows: make(map[int64]periods.Window),
	}
}

func (f *fakePeriods) add(p periods.Period, w periods.Window) {
	f.items[p.ID] = p
	f.windows[p.ID] = w
}

func (f *fakePeriods) Find(_ context.Context, id int64) (periods.Period, error) {
	p, ok := f.items[id]
	if !ok {
		return periods.Period{}, fmt.Errorf("periods: period %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (f *fakePeriods) Window(_ context.Context, p periods.Period) (periods.Window, error) {
	return f.windows[p.ID], nil
}

func (f *fakePeriods) FindContaining(_ context.Context, t time.Time) (periods.Period, bool, error) {
	for id, w := range f.windows {
		if w.Contains(t) {
			return f.items[id], true, nil
		}
	}
	return periods.Period{}, false, nil
}

type fakePraise struct {
	items map[int64]praise.Praise
	calls map[string]int
}

func newFakePraise() *fakePraise {
	return &fakePraise{
		items: make(map[int64]praise.Praise),
		calls: make(map[string]int),
	}
}

func (f *fakePraise) add(p praise.Praise) { f.items[p.ID] = p }

func (f *fakePraise) inWindow(w periods.Window) []praise.Praise {
	var out []praise.Praise
	for _, p := range f.items {
		if w.Contains(p.CreatedAt) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceiverID != out[j].ReceiverID {
			return out[i].ReceiverID < out[j].ReceiverID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakePraise) FindByID(_ context.Context, id int64) (praise.Praise, error) {
	p, ok := f.items[id]
	if !ok {
		return praise.Praise{}, fmt.Errorf("praise: praise %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (f *fakePraise) ListByWindow(_ context.Context, w periods.Window) ([]praise.Praise, error) {
	f.calls["ListByWindow"]++
	return f.inWindow(w), nil
}

func (f *fakePraise) ListByIDs(_ context.Context, ids []int64) ([]praise.Praise, error) {
	var out []praise.Praise
	for _, id := range ids {
		if p, ok := f.items[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePraise) ListByReceiver(_ context.Context, receiverID int64) ([]praise.Praise, error) {
	var out []praise.Praise
	for _, p := range f.items {
		if p.ReceiverID == receiverID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePraise) CountByWindow(_ context.Context, w periods.Window) (int, error) {
	f.calls["CountByWindow"]++
	return len(f.inWindow(w)), nil
}

func (f *fakePraise) AnyQuantificationsInWindow(_ context.Context, w periods.Window) (bool, error) {
	for _, p := range f.inWindow(w) {
		if len(p.Quantifications) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePraise) ReceiverCounts(_ context.Context, w periods.Window) ([]praise.ReceiverCount, error) {
	counts := make(map[int64]int)
	for _, p := range f.inWindow(w) {
		counts[p.ReceiverID]++
	}
	out := make([]praise.ReceiverCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, praise.ReceiverCount{ReceiverID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiverID < out[j].ReceiverID })
	return out, nil
}

func (f *fakePraise) QuantifierStats(_ context.Context, w periods.Window) ([]praise.QuantifierStats, error) {
	stats := make(map[int64]*praise.QuantifierStats)
	for _, p := range f.inWindow(w) {
		for _, q := range p.Quantifications {
			st, ok := stats[q.QuantifierID]
			if !ok {
				st = &praise.QuantifierStats{QuantifierID: q.QuantifierID}
				stats[q.QuantifierID] = st
			}
			st.AssignedCount++
			if q.Completed() {
				st.FinishedCount++
			}
		}
	}
	out := make([]praise.QuantifierStats, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuantifierID < out[j].QuantifierID })
	return out, nil
}

func (f *fakePraise) QuantifierPraiseIDs(_ context.Context, w periods.Window, quantifierID int64) ([]int64, error) {
	var out []int64
	for _, p := range f.inWindow(w) {
		for _, q := range p.Quantifications {
			if q.QuantifierID == quantifierID {
				out = append(out, p.ID)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakePraise) Quantification(_ context.Context, praiseID, quantifierID int64) (praise.Quantification, error) {
	p, ok := f.items[praiseID]
	if !ok {
		return praise.Quantification{}, fmt.Errorf("praise: praise %d: %w", praiseID, shared.ErrNotFound)
	}
	for _, q := range p.Quantifications {
		if q.QuantifierID == quantifierID {
			return q, nil
		}
	}
	return praise.Quantification{}, fmt.Errorf("praise: quantification for praise %d by user %d: %w", praiseID, quantifierID, shared.ErrNotFound)
}

type fakeUsers struct {
	items map[int64]users.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{items: make(map[int64]users.User)}
}

func (f *fakeUsers) add(u users.User) { f.items[u.ID] = u }

func (f *fakeUsers) addQuantifiers(ids ...int64) {
	for _, id := range ids {
		f.add(users.User{ID: id, Roles: []users.Role{users.RoleUser, users.RoleQuantifier}})
	}
}

func (f *fakeUsers) Find(_ context.Context, id int64) (users.User, error) {
	u, ok := f.items[id]
	if !ok {
		return users.User{}, fmt.Errorf("users: user %d: %w", id, shared.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) WithRole(_ context.Context, role users.Role) ([]users.User, error) {
	var out []users.User
	for _, u := range f.items {
		if u.HasRole(role) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSettings struct {
	values map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: map[string]string{
		"PRAISE_QUANTIFIERS_PER_PRAISE_RECEIVER":      "3",
		"PRAISE_QUANTIFIERS_ASSIGN_EVENLY":            "false",
		"PRAISE_QUANTIFY_DUPLICATE_PRAISE_PERCENTAGE": "0.1",
	}}
}

func (f *fakeSettings) Int(_ context.Context, key string, _ *int64) (int, error) {
	return strconv.Atoi(f.values[key])
}

func (f *fakeSettings) Bool(_ context.Context, key string, _ *int64) (bool, error) {
	return strconv.ParseBool(f.values[key])
}

func (f *fakeSettings) Float(_ context.Context, key string, _ *int64) (float64, error) {
	return strconv.ParseFloat(f.values[key], 64)
}

// fakeStore applies the engine's writes against the in-memory fakes the way
// the transactional repository does against postgres.
type fakeStore struct {
	periods *fakePeriods
	praise  *fakePraise

	assignCalls int
	nextQuantID int64
}

func newFakeStore(p *fakePeriods, pr *fakePraise) *fakeStore {
	return &fakeStore{periods: p, praise: pr}
}

func (f *fakeStore) CreateAssignments(_ context.Context, periodID int64, stubs []Stub) error {
	f.assignCalls++
	p := f.periods.items[periodID]
	if p.Status != periods.StatusOpen {
		return fmt.Errorf("quantify: period %d left OPEN concurrently: %w", periodID, shared.ErrInvalidState)
	}
	p.Status = periods.StatusQuantify
	f.periods.items[periodID] = p
	for _, s := range stubs {
		item := f.praise.items[s.PraiseID]
		f.nextQuantID++
		item.Quantifications = append(item.Quantifications, praise.Quantification{
			ID:           f.nextQuantID,
			PraiseID:     s.PraiseID,
			QuantifierID: s.QuantifierID,
		})
		f.praise.items[s.PraiseID] = item
	}
	return nil
}

func (f *fakeStore) ReassignQuantifier(_ context.Context, w periods.Window, currentID, newID int64) ([]int64, error) {
	var affected []int64
	for _, p := range f.praise.inWindow(w) {
		item := f.praise.items[p.ID]
		kept := item.Quantifications[:0]
		hit := false
		for _, q := range item.Quantifications {
			if q.QuantifierID == currentID {
				hit = true
				continue
			}
			kept = append(kept, q)
		}
		if !hit {
			continue
		}
		f.nextQuantID++
		item.Quantifications = append(kept, praise.Quantification{
			ID:           f.nextQuantID,
			PraiseID:     item.ID,
			QuantifierID: newID,
		})
		f.praise.items[item.ID] = item
		affected = append(affected, item.ID)
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	return affected, nil
}

func (f *fakeStore) SaveJudgment(_ context.Context, q praise.Quantification, composite float64) error {
	item := f.praise.items[q.PraiseID]
	for i := range item.Quantifications {
		if item.Quantifications[i].QuantifierID == q.QuantifierID {
			item.Quantifications[i] = q
		}
	}
	item.ScoreRealized = composite
	f.praise.items[q.PraiseID] = item
	return nil
}

func (f *fakeStore) UpdateComposite(_ context.Context, praiseID int64, composite float64) error {
	item := f.praise.items[praiseID]
	item.ScoreRealized = composite
	f.praise.items[praiseID] = item
	return nil
}

type fakeCache struct {
	entries       map[int64]PeriodDetails
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]PeriodDetails)}
}

func (f *fakeCache) Get(_ context.Context, periodID int64) (PeriodDetails, bool) {
	d, ok := f.entries[periodID]
	return d, ok
}

func (f *fakeCache) Set(_ context.Context, details PeriodDetails) {
	f.entries[details.Period.ID] = details
}

func (f *fakeCache) Invalidate(_ context.Context, periodID int64) {
	f.invalidations++
	delete(f.entries, periodID)
}

// ====== FIXTURE ======

type fixture struct {
	periods  *fakePeriods
	praise   *fakePraise
	users    *fakeUsers
	settings *fakeSettings
	store    *fakeStore
	cache    *fakeCache
	service  *Service
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		periods:  newFakePeriods(),
		praise:   newFakePraise(),
		users:    newFakeUsers(),
		settings: newFakeSettings(),
		cache:    newFakeCache(),
		now:      time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	f.store = newFakeStore(f.periods, f.praise)
	f.service = NewService(f.periods, f.praise, f.users, f.settings, f.store, f.cache, nil, nil)
	f.service.WithNow(func() time.Time { return f.now })
	return f
}

// addPeriod registers a period ending before the fixture clock with a
// one-month window.
func (f *fixture) addPeriod(id int64, status periods.Status) periods.Period {
	end := f.now.Add(-24 * time.Hour)
	p := periods.Period{ID: id, Name: fmt.Sprintf("period-%d", id), Status: status, EndDate: end}
	f.periods.add(p, periods.Window{Start: end.Add(-30 * 24 * time.Hour), End: end})
	return p
}

// addPraise inserts praise inside the given period's window.
func (f *fixture) addPraise(id, receiverID int64, periodID int64) praise.Praise {
	w := f.periods.windows[periodID]
	p := praise.Praise{ID: id, ReceiverID: receiverID, GiverID: receiverID + 100, CreatedAt: w.End.Add(-time.Hour)}
	f.praise.add(p)
	return p
}
