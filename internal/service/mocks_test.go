package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/webhook"
	"go-pharma-exchange/internal/ws"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// memInventory keeps offers, requests and the archive in memory and applies
// consumption the same way the gorm repository does inside its transaction.
type memInventory struct {
	mu       sync.Mutex
	offers   map[uint]*model.Offer
	requests map[uint]*model.Request
	archive  []model.ArchiveRecord
	nextID   uint
}

func newMemInventory() *memInventory {
	return &memInventory{offers: map[uint]*model.Offer{}, requests: map[uint]*model.Request{}, nextID: 1}
}

func (m *memInventory) addOffer(o model.Offer) *model.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID
	m.nextID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	m.offers[o.ID] = &o
	return &o
}

func (m *memInventory) addRequest(r model.Request) *model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.requests[r.ID] = &r
	return &r
}

func (m *memInventory) item(kind model.ItemKind, id uint) (model.InventoryItem, bool) {
	if kind == model.KindOffer {
		o, ok := m.offers[id]
		return o, ok
	}
	r, ok := m.requests[id]
	return r, ok
}

func (m *memInventory) ListOffersByPharmacy(_ context.Context, id int64) ([]model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Offer
	for _, o := range m.offers {
		if o.PharmacyID == id {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memInventory) ListRequestsByPharmacy(_ context.Context, id int64) ([]model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Request
	for _, r := range m.requests {
		if r.PharmacyID == id {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memInventory) ListOpenOffers(_ context.Context, limit int) ([]model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Offer
	for _, o := range m.offers {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInventory) ListOpenRequests(_ context.Context, limit int) ([]model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Request
	for _, r := range m.requests {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInventory) FindOffer(_ context.Context, id uint) (*model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.offers[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memInventory) FindRequest(_ context.Context, id uint) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memInventory) FindOfferDuplicate(_ context.Context, pharmacyID int64, barcode, expiry string) (*model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.offers {
		if o.PharmacyID == pharmacyID && o.Barcode == barcode && o.ExpiryDate == expiry {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memInventory) CreateOffer(_ context.Context, o *model.Offer) error {
	*o = *m.addOffer(*o)
	return nil
}

func (m *memInventory) CreateRequest(_ context.Context, r *model.Request) error {
	*r = *m.addRequest(*r)
	return nil
}

func (m *memInventory) UpdateOffer(_ context.Context, id uint, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := fields["discount"].(int); ok {
		o.Discount = v
	}
	return nil
}

func (m *memInventory) UpdateRequest(_ context.Context, id uint, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := fields["quantity"].(int); ok {
		r.Quantity = v
	}
	return nil
}

func (m *memInventory) DeleteItem(_ context.Context, kind model.ItemKind, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.item(kind, id); !ok {
		return repository.ErrNotFound
	}
	delete(m.offers, id)
	delete(m.requests, id)
	return nil
}

func (m *memInventory) Restock(_ context.Context, kind model.ItemKind, id uint, qty int, authorize func(model.InventoryItem) error) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if qty < 1 {
		return 0, model.ErrInvalidQuantity
	}
	item, ok := m.item(kind, id)
	if !ok {
		return 0, repository.ErrNotFound
	}
	if err := authorize(item); err != nil {
		return 0, err
	}
	switch it := item.(type) {
	case *model.Offer:
		it.Quantity += qty
		return it.Quantity, nil
	case *model.Request:
		it.Quantity += qty
		return it.Quantity, nil
	}
	return 0, nil
}

func (m *memInventory) Consume(_ context.Context, p repository.ConsumeParams) (*repository.ConsumeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.item(p.Kind, p.ItemID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Authorize != nil {
		if err := p.Authorize(item); err != nil {
			return nil, err
		}
	}
	qty := p.Quantity
	if p.Full {
		qty = item.Available()
	}
	remaining, retire, err := model.PlanConsumption(item.Available(), qty)
	if err != nil {
		return nil, err
	}
	rec := item.ArchiveSnapshot(qty, p.Action)
	rec.CounterpartyID = p.CounterpartyID
	rec.ID = uint(len(m.archive) + 1)
	rec.CreatedAt = time.Now()
	m.archive = append(m.archive, rec)

	switch {
	case retire:
		delete(m.offers, p.ItemID)
		delete(m.requests, p.ItemID)
	case p.Kind == model.KindOffer:
		m.offers[p.ItemID].Quantity = remaining
	default:
		m.requests[p.ItemID].Quantity = remaining
	}
	return &repository.ConsumeResult{Item: item, Archive: rec, Remaining: remaining, Retired: retire}, nil
}

func (m *memInventory) CountOffers(_ context.Context, _ int64) (int64, error) {
	return int64(len(m.offers)), nil
}

func (m *memInventory) CountRequests(_ context.Context, _ int64) (int64, error) {
	return int64(len(m.requests)), nil
}

func (m *memInventory) TopDrugs(context.Context, model.ItemKind, int) ([]repository.DrugCount, error) {
	return []repository.DrugCount{{Name: "Panadol", Count: 3}}, nil
}

type memCatalog struct {
	drugs   map[uint]*model.CatalogDrug
	pending map[uint]*model.PendingItem
	err     error
	calls   int
}

func newMemCatalog(drugs ...model.CatalogDrug) *memCatalog {
	c := &memCatalog{drugs: map[uint]*model.CatalogDrug{}, pending: map[uint]*model.PendingItem{}}
	for i := range drugs {
		d := drugs[i]
		c.drugs[d.ID] = &d
	}
	return c
}

func (c *memCatalog) Search(_ context.Context, q string, limit int) ([]model.CatalogDrug, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	var out []model.CatalogDrug
	for _, d := range c.drugs {
		if strings.Contains(strings.ToLower(d.EnglishName), strings.ToLower(q)) || strings.Contains(d.ArabicName, q) {
			out = append(out, *d)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *memCatalog) FindByID(_ context.Context, id uint) (*model.CatalogDrug, error) {
	if d, ok := c.drugs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (c *memCatalog) CreatePending(_ context.Context, p *model.PendingItem) error {
	p.ID = uint(len(c.pending) + 1)
	c.pending[p.ID] = p
	return nil
}

func (c *memCatalog) ListPending(context.Context) ([]model.PendingItem, error) {
	var out []model.PendingItem
	for _, p := range c.pending {
		out = append(out, *p)
	}
	return out, nil
}

func (c *memCatalog) CountPending(context.Context) (int64, error) {
	return int64(len(c.pending)), nil
}

func (c *memCatalog) DeletePending(_ context.Context, id uint) error {
	if _, ok := c.pending[id]; !ok {
		return repository.ErrNotFound
	}
	delete(c.pending, id)
	return nil
}

func (c *memCatalog) Promote(_ context.Context, id uint, convert func(*model.PendingItem) (model.CatalogDrug, error)) (*model.CatalogDrug, error) {
	p, ok := c.pending[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	drug, err := convert(p)
	if err != nil {
		return nil, err
	}
	drug.ID = uint(len(c.drugs) + 100)
	c.drugs[drug.ID] = &drug
	delete(c.pending, id)
	return &drug, nil
}

type memArchive struct {
	inv *memInventory
	err error
}

func (a *memArchive) records(id int64) []model.ArchiveRecord {
	a.inv.mu.Lock()
	defer a.inv.mu.Unlock()
	var out []model.ArchiveRecord
	for _, r := range a.inv.archive {
		if r.PharmacyID == id {
			out = append(out, r)
		}
	}
	return out
}

func (a *memArchive) ListByPharmacy(_ context.Context, id int64, since time.Time) ([]model.ArchiveRecord, error) {
	var out []model.ArchiveRecord
	for _, r := range a.records(id) {
		if since.IsZero() || !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *memArchive) Recent(_ context.Context, id int64, limit int) ([]model.ArchiveRecord, error) {
	out := a.records(id)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (a *memArchive) CountByPharmacy(_ context.Context, id int64) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	return int64(len(a.records(id))), nil
}

func (a *memArchive) CountByPharmacies(_ context.Context, ids []int64) (map[int64]int64, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := map[int64]int64{}
	for _, id := range ids {
		out[id] = int64(len(a.records(id)))
	}
	return out, nil
}

func (a *memArchive) CountAll(context.Context) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	return int64(len(a.inv.archive)), nil
}

func (a *memArchive) SoldQuantity(_ context.Context, id int64, actions []model.ActionType, from, to time.Time) (int64, error) {
	var n int64
	for _, r := range a.records(id) {
		if !from.IsZero() && r.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !r.CreatedAt.Before(to) {
			continue
		}
		for _, act := range actions {
			if r.ActionType == act {
				n += int64(r.Quantity)
			}
		}
	}
	return n, nil
}

func (a *memArchive) DailyCounts(context.Context, int64, time.Time, time.Time) ([]repository.DailyCount, error) {
	return nil, nil
}

type ratingKey struct {
	from, to int64
	kind     model.ItemKind
	item     uint
}

type memRatings struct {
	rows   map[ratingKey]model.Rating
	nextID uint
}

func newMemRatings() *memRatings {
	return &memRatings{rows: map[ratingKey]model.Rating{}}
}

func (r *memRatings) Create(_ context.Context, rt *model.Rating) error {
	key := ratingKey{rt.FromPharmacyID, rt.ToPharmacyID, rt.RelatedItemKind, rt.RelatedItemID}
	if _, ok := r.rows[key]; ok {
		return repository.ErrDuplicate
	}
	r.nextID++
	rt.ID = r.nextID
	r.rows[key] = *rt
	return nil
}

func (r *memRatings) Aggregate(_ context.Context, ids []int64) (map[int64]repository.RatingAggregate, error) {
	out := map[int64]repository.RatingAggregate{}
	for _, id := range ids {
		var sum, n int64
		for _, rt := range r.rows {
			if rt.ToPharmacyID == id {
				sum += int64(rt.Stars)
				n++
			}
		}
		if n > 0 {
			out[id] = repository.RatingAggregate{Average: float64(sum) / float64(n), Count: n}
		}
	}
	return out, nil
}

func (r *memRatings) ListLatest(context.Context, int) ([]model.Rating, error) {
	var out []model.Rating
	for _, rt := range r.rows {
		out = append(out, rt)
	}
	return out, nil
}

func (r *memRatings) RatedBy(_ context.Context, from int64) ([]int64, error) {
	var out []int64
	for _, rt := range r.rows {
		if rt.FromPharmacyID == from {
			out = append(out, rt.ToPharmacyID)
		}
	}
	return uniqueIDs(out), nil
}

func (r *memRatings) Delete(_ context.Context, id uint) (*model.Rating, error) {
	for k, rt := range r.rows {
		if rt.ID == id {
			delete(r.rows, k)
			return &rt, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memPharmacies struct {
	rows map[int64]*model.Pharmacy
}

func newMemPharmacies(ps ...model.Pharmacy) *memPharmacies {
	m := &memPharmacies{rows: map[int64]*model.Pharmacy{}}
	for i := range ps {
		p := ps[i]
		m.rows[p.PharmacyID] = &p
	}
	return m
}

func (m *memPharmacies) Create(_ context.Context, p *model.Pharmacy) error {
	m.rows[p.PharmacyID] = p
	return nil
}

func (m *memPharmacies) FindByID(_ context.Context, id int64) (*model.Pharmacy, error) {
	if p, ok := m.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memPharmacies) FindByIDs(_ context.Context, ids []int64) ([]model.Pharmacy, error) {
	var out []model.Pharmacy
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPharmacies) FindAll(context.Context) ([]model.Pharmacy, error) {
	var out []model.Pharmacy
	for _, p := range m.rows {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPharmacies) UpdateFields(_ context.Context, id int64, fields map[string]interface{}) error {
	p, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := fields["profile_pic"].(string); ok {
		p.ProfilePic = v
	}
	if v, ok := fields["city"].(string); ok {
		p.City = v
	}
	return nil
}

func (m *memPharmacies) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	if p, ok := m.rows[id]; ok {
		p.LastLogin = &at
	}
	return nil
}

func (m *memPharmacies) SetStatus(_ context.Context, id int64, status model.AccountStatus) error {
	p, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.AccountStatus = status
	return nil
}

func (m *memPharmacies) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memPharmacies) Count(context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

type memCredentials struct {
	rows []*model.Credential
}

func (m *memCredentials) Create(_ context.Context, c *model.Credential) error {
	c.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, c)
	return nil
}

func (m *memCredentials) FindByEmail(_ context.Context, email string) (*model.Credential, error) {
	for _, c := range m.rows {
		if strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCredentials) FindByPharmacyID(_ context.Context, id int64) (*model.Credential, error) {
	for _, c := range m.rows {
		if c.PharmacyID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCredentials) UpdateTokenVersion(_ context.Context, id uint, v string) error {
	for _, c := range m.rows {
		if c.ID == id {
			c.TokenVersion = v
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memCredentials) UpdatePassword(_ context.Context, id uint, hash string) error {
	for _, c := range m.rows {
		if c.ID == id {
			c.Password = hash
			return nil
		}
	}
	return repository.ErrNotFound
}

type memAdmins struct {
	rows []*model.Admin
}

func (m *memAdmins) Create(_ context.Context, a *model.Admin) error {
	a.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, a)
	return nil
}

func (m *memAdmins) find(match func(*model.Admin) bool) (*model.Admin, error) {
	for _, a := range m.rows {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAdmins) FindByID(_ context.Context, id uint) (*model.Admin, error) {
	return m.find(func(a *model.Admin) bool { return a.ID == id })
}

func (m *memAdmins) FindByEmail(_ context.Context, email string) (*model.Admin, error) {
	return m.find(func(a *model.Admin) bool { return strings.EqualFold(a.Email, email) })
}

func (m *memAdmins) FindByUID(_ context.Context, uid string) (*model.Admin, error) {
	return m.find(func(a *model.Admin) bool { return a.UID == uid })
}

func (m *memAdmins) FindAll(context.Context) ([]model.Admin, error) {
	var out []model.Admin
	for _, a := range m.rows {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAdmins) UpdateTokenVersion(_ context.Context, id uint, v string) error {
	for _, a := range m.rows {
		if a.ID == id {
			a.TokenVersion = v
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memAdmins) Delete(_ context.Context, id uint) error {
	for i, a := range m.rows {
		if a.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memLegal struct {
	rows map[string]*model.LegalContent
}

func (m *memLegal) Find(_ context.Context, t string) (*model.LegalContent, error) {
	if c, ok := m.rows[t]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memLegal) Upsert(_ context.Context, t, content string) (*model.LegalContent, error) {
	c := &model.LegalContent{Type: t, Content: content}
	m.rows[t] = c
	return c, nil
}

// recordingDispatcher captures workflow calls and optionally fails them.
type recordingDispatcher struct {
	offers   []webhook.OfferPayload
	requests []webhook.RequestPayload
	register []webhook.RegisterPayload
	profiles []webhook.ProfilePayload
	err      error
}

func (d *recordingDispatcher) AddOffer(_ context.Context, p webhook.OfferPayload) error {
	d.offers = append(d.offers, p)
	return d.err
}

func (d *recordingDispatcher) AddRequest(_ context.Context, p webhook.RequestPayload) error {
	d.requests = append(d.requests, p)
	return d.err
}

func (d *recordingDispatcher) Register(_ context.Context, p webhook.RegisterPayload) error {
	d.register = append(d.register, p)
	return d.err
}

func (d *recordingDispatcher) SaveProfile(_ context.Context, p webhook.ProfilePayload) error {
	d.profiles = append(d.profiles, p)
	return d.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ws.Event
}

func (n *recordingNotifier) Publish(e ws.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func consumeAll(id uint) repository.ConsumeParams {
	return repository.ConsumeParams{Kind: model.KindOffer, ItemID: id, Full: true, Action: model.ActionInternalSale}
}
