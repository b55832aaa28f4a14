package service

import (
	"context"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces. They keep data in maps and
// slices and return gorm.ErrRecordNotFound the way the real layer does, so
// the services under test cannot tell the difference.

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func paginate[T any](in []T, page, limit int) []T {
	offset := (page - 1) * limit
	if offset >= len(in) {
		return nil
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}

// --- items ---

type fakeItemRepo struct {
	byTriple map[string]*model.InventoryItem
	byID     map[uuid.UUID]*model.InventoryItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		byTriple: make(map[string]*model.InventoryItem),
		byID:     make(map[uuid.UUID]*model.InventoryItem),
	}
}

func tripleKey(tenantID, productID, locationID uuid.UUID) string {
	return tenantID.String() + "|" + productID.String() + "|" + locationID.String()
}

func (f *fakeItemRepo) GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error) {
	key := tripleKey(tenantID, productID, locationID)
	if it, ok := f.byTriple[key]; ok {
		cp := *it
		return &cp, nil
	}
	it := &model.InventoryItem{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ProductID:  productID,
		LocationID: locationID,
	}
	f.byTriple[key] = it
	f.byID[it.ID] = it
	cp := *it
	return &cp, nil
}

func (f *fakeItemRepo) Find(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error) {
	if it, ok := f.byTriple[tripleKey(tenantID, productID, locationID)]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeItemRepo) FindForUpdate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error) {
	return f.Find(ctx, tenantID, productID, locationID)
}

func (f *fakeItemRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryItem, error) {
	if it, ok := f.byID[id]; ok && it.TenantID == tenantID {
		cp := *it
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeItemRepo) IncrementOnHand(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error {
	it, ok := f.byID[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	it.QuantityOnHand = it.QuantityOnHand.Add(delta)
	return nil
}

func (f *fakeItemRepo) IncrementAllocated(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error {
	it, ok := f.byID[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	it.QuantityAllocated = it.QuantityAllocated.Add(delta)
	return nil
}

func (f *fakeItemRepo) IncrementIncoming(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error {
	it, ok := f.byID[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	it.QuantityIncoming = it.QuantityIncoming.Add(delta)
	return nil
}

func (f *fakeItemRepo) SetAverageCost(ctx context.Context, itemID uuid.UUID, avg decimal.Decimal) error {
	it, ok := f.byID[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	it.AverageCost = decimal.NewNullDecimal(avg)
	return nil
}

func (f *fakeItemRepo) ListByLocation(ctx context.Context, tenantID, locationID uuid.UUID, page, limit int) ([]model.InventoryItem, int64, error) {
	var all []model.InventoryItem
	for _, it := range f.byTriple {
		if it.TenantID == tenantID && it.LocationID == locationID {
			all = append(all, *it)
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeItemRepo) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]model.InventoryItem, error) {
	var all []model.InventoryItem
	for _, it := range f.byTriple {
		if it.TenantID == tenantID && it.ProductID == productID {
			all = append(all, *it)
		}
	}
	return all, nil
}

// --- ledger ---

type fakeLedgerRepo struct {
	entries []model.InventoryTransaction
	nextID  int64

	// missKeyLookupOnce makes the next per-item key check come back empty,
	// the way a concurrent retry's uncommitted entry is invisible to it.
	missKeyLookupOnce bool
}

func newFakeLedgerRepo() *fakeLedgerRepo { return &fakeLedgerRepo{} }

func (f *fakeLedgerRepo) Append(ctx context.Context, entry *model.InventoryTransaction) error {
	// Mirror of the unique key index per (tenant, key, product, location).
	if entry.IdempotencyKey != nil {
		for i := range f.entries {
			e := &f.entries[i]
			if e.TenantID == entry.TenantID && e.ProductID == entry.ProductID &&
				e.LocationID == entry.LocationID &&
				e.IdempotencyKey != nil && *e.IdempotencyKey == *entry.IdempotencyKey {
				return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_ledger_idem_key"}
			}
		}
	}
	f.nextID++
	entry.ID = f.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedgerRepo) SumQuantityChange(ctx context.Context, tenantID, productID, locationID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i := range f.entries {
		e := &f.entries[i]
		if e.TenantID == tenantID && e.ProductID == productID && e.LocationID == locationID {
			sum = sum.Add(e.QuantityChange)
		}
	}
	return sum, nil
}

func (f *fakeLedgerRepo) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.InventoryTransaction, int64, error) {
	var all []model.InventoryTransaction
	for i := range f.entries {
		if f.entries[i].TenantID == tenantID && f.entries[i].ProductID == productID {
			all = append(all, f.entries[i])
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeLedgerRepo) ListByDateRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, page, limit int) ([]model.InventoryTransaction, int64, error) {
	var all []model.InventoryTransaction
	for i := range f.entries {
		e := &f.entries[i]
		if e.TenantID == tenantID && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			all = append(all, *e)
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeLedgerRepo) ListByRelated(ctx context.Context, tenantID uuid.UUID, kind string, relatedID uuid.UUID) ([]model.InventoryTransaction, error) {
	var all []model.InventoryTransaction
	for i := range f.entries {
		e := &f.entries[i]
		if e.TenantID == tenantID && e.RelatedKind == kind && e.RelatedID != nil && *e.RelatedID == relatedID {
			all = append(all, *e)
		}
	}
	return all, nil
}

func (f *fakeLedgerRepo) HasIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (bool, error) {
	for i := range f.entries {
		e := &f.entries[i]
		if e.TenantID == tenantID && e.IdempotencyKey != nil && *e.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerRepo) HasIdempotencyKeyForItem(ctx context.Context, tenantID, productID, locationID uuid.UUID, key string) (bool, error) {
	if f.missKeyLookupOnce {
		f.missKeyLookupOnce = false
		return false, nil
	}
	for i := range f.entries {
		e := &f.entries[i]
		if e.TenantID == tenantID && e.ProductID == productID && e.LocationID == locationID &&
			e.IdempotencyKey != nil && *e.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

// --- catalog ---

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (f *fakeProductRepo) Create(ctx context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *model.Product) error {
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	if p, ok := f.products[id]; ok && p.TenantID == tenantID {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*model.Product, error) {
	for _, p := range f.products {
		if p.TenantID == tenantID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) List(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error) {
	var all []model.Product
	for _, p := range f.products {
		if p.TenantID == tenantID {
			all = append(all, *p)
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeProductRepo) ListStockTracked(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	var all []model.Product
	for _, p := range f.products {
		if p.TenantID == tenantID && p.StockTracked && p.Active {
			all = append(all, *p)
		}
	}
	return all, nil
}

type fakeLocationRepo struct {
	locations map[uuid.UUID]*model.Location
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: make(map[uuid.UUID]*model.Location)}
}

func (f *fakeLocationRepo) Create(ctx context.Context, location *model.Location) error {
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}
	cp := *location
	f.locations[location.ID] = &cp
	return nil
}

func (f *fakeLocationRepo) Update(ctx context.Context, location *model.Location) error {
	cp := *location
	f.locations[location.ID] = &cp
	return nil
}

func (f *fakeLocationRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Location, error) {
	if l, ok := f.locations[id]; ok && l.TenantID == tenantID {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLocationRepo) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.Location, int64, error) {
	var all []model.Location
	for _, l := range f.locations {
		if l.TenantID == tenantID {
			all = append(all, *l)
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

type fakeUomRepo struct {
	uoms map[uuid.UUID]*model.UnitOfMeasure
}

func newFakeUomRepo() *fakeUomRepo {
	return &fakeUomRepo{uoms: make(map[uuid.UUID]*model.UnitOfMeasure)}
}

func (f *fakeUomRepo) Create(ctx context.Context, uom *model.UnitOfMeasure) error {
	if uom.ID == uuid.Nil {
		uom.ID = uuid.New()
	}
	cp := *uom
	f.uoms[uom.ID] = &cp
	return nil
}

func (f *fakeUomRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.UnitOfMeasure, error) {
	if u, ok := f.uoms[id]; ok && u.TenantID == tenantID {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUomRepo) List(ctx context.Context, tenantID uuid.UUID) ([]model.UnitOfMeasure, error) {
	var all []model.UnitOfMeasure
	for _, u := range f.uoms {
		if u.TenantID == tenantID {
			all = append(all, *u)
		}
	}
	return all, nil
}

// --- adjustments ---

type fakeAdjustmentRepo struct {
	adjustments map[uuid.UUID]*model.InventoryAdjustment
	order       []uuid.UUID

	// missKeyLookupOnce makes the next FindByIdempotencyKey miss, the way
	// a concurrent retry's uncommitted header is invisible to it.
	missKeyLookupOnce bool
}

func newFakeAdjustmentRepo() *fakeAdjustmentRepo {
	return &fakeAdjustmentRepo{adjustments: make(map[uuid.UUID]*model.InventoryAdjustment)}
}

func (f *fakeAdjustmentRepo) Create(ctx context.Context, adj *model.InventoryAdjustment) error {
	// Mirror of the unique key index per (tenant, key).
	if adj.IdempotencyKey != nil {
		for _, existing := range f.adjustments {
			if existing.TenantID == adj.TenantID && existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *adj.IdempotencyKey {
				return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_adjustment_idem_key"}
			}
		}
	}
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}
	cp := *adj
	cp.Items = nil
	f.adjustments[adj.ID] = &cp
	f.order = append(f.order, adj.ID)
	return nil
}

func (f *fakeAdjustmentRepo) CreateItem(ctx context.Context, item *model.InventoryAdjustmentItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	adj, ok := f.adjustments[item.AdjustmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	adj.Items = append(adj.Items, *item)
	return nil
}

func (f *fakeAdjustmentRepo) FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryAdjustment, error) {
	if adj, ok := f.adjustments[id]; ok && adj.TenantID == tenantID {
		cp := *adj
		cp.Items = append([]model.InventoryAdjustmentItem(nil), adj.Items...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdjustmentRepo) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.InventoryAdjustment, error) {
	if f.missKeyLookupOnce {
		f.missKeyLookupOnce = false
		return nil, gorm.ErrRecordNotFound
	}
	for _, adj := range f.adjustments {
		if adj.TenantID == tenantID && adj.IdempotencyKey != nil && *adj.IdempotencyKey == key {
			return f.FindByIDWithItems(ctx, tenantID, adj.ID)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdjustmentRepo) List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]model.InventoryAdjustment, int64, error) {
	var all []model.InventoryAdjustment
	for _, id := range f.order {
		adj := f.adjustments[id]
		if adj.TenantID != tenantID {
			continue
		}
		if locationID != nil && adj.LocationID != *locationID {
			continue
		}
		all = append(all, *adj)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

// --- transfers ---

type fakeTransferRepo struct {
	transfers map[uuid.UUID]*model.InventoryTransfer
	order     []uuid.UUID
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{transfers: make(map[uuid.UUID]*model.InventoryTransfer)}
}

func (f *fakeTransferRepo) Create(ctx context.Context, transfer *model.InventoryTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	cp := *transfer
	cp.Items = nil
	f.transfers[transfer.ID] = &cp
	f.order = append(f.order, transfer.ID)
	return nil
}

func (f *fakeTransferRepo) CreateItem(ctx context.Context, item *model.InventoryTransferItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	transfer, ok := f.transfers[item.TransferID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	transfer.Items = append(transfer.Items, *item)
	return nil
}

func (f *fakeTransferRepo) FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryTransfer, error) {
	if t, ok := f.transfers[id]; ok && t.TenantID == tenantID {
		cp := *t
		cp.Items = append([]model.InventoryTransferItem(nil), t.Items...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransferRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryTransfer, error) {
	return f.FindByIDWithItems(ctx, tenantID, id)
}

func (f *fakeTransferRepo) Save(ctx context.Context, transfer *model.InventoryTransfer) error {
	stored, ok := f.transfers[transfer.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	cp := *transfer
	cp.Items = items
	f.transfers[transfer.ID] = &cp
	return nil
}

func (f *fakeTransferRepo) SaveItem(ctx context.Context, item *model.InventoryTransferItem) error {
	transfer, ok := f.transfers[item.TransferID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range transfer.Items {
		if transfer.Items[i].ID == item.ID {
			transfer.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeTransferRepo) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.InventoryTransfer, int64, error) {
	var all []model.InventoryTransfer
	for _, id := range f.order {
		t := f.transfers[id]
		if t.TenantID != tenantID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		all = append(all, *t)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

// --- stock counts ---

type fakeStockCountRepo struct {
	counts map[uuid.UUID]*model.StockCount
	order  []uuid.UUID
}

func newFakeStockCountRepo() *fakeStockCountRepo {
	return &fakeStockCountRepo{counts: make(map[uuid.UUID]*model.StockCount)}
}

func (f *fakeStockCountRepo) Create(ctx context.Context, count *model.StockCount) error {
	if count.ID == uuid.Nil {
		count.ID = uuid.New()
	}
	cp := *count
	cp.Items = nil
	f.counts[count.ID] = &cp
	f.order = append(f.order, count.ID)
	return nil
}

func (f *fakeStockCountRepo) CreateItem(ctx context.Context, item *model.StockCountItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	count, ok := f.counts[item.StockCountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	count.Items = append(count.Items, *item)
	return nil
}

func (f *fakeStockCountRepo) FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.StockCount, error) {
	if c, ok := f.counts[id]; ok && c.TenantID == tenantID {
		cp := *c
		cp.Items = append([]model.StockCountItem(nil), c.Items...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStockCountRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.StockCount, error) {
	return f.FindByIDWithItems(ctx, tenantID, id)
}

func (f *fakeStockCountRepo) Save(ctx context.Context, count *model.StockCount) error {
	stored, ok := f.counts[count.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// Mirror of the unique key index per (tenant, key).
	if count.IdempotencyKey != nil {
		for _, other := range f.counts {
			if other.ID != count.ID && other.TenantID == count.TenantID &&
				other.IdempotencyKey != nil && *other.IdempotencyKey == *count.IdempotencyKey {
				return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_count_idem_key"}
			}
		}
	}
	items := stored.Items
	cp := *count
	cp.Items = items
	f.counts[count.ID] = &cp
	return nil
}

func (f *fakeStockCountRepo) SaveItem(ctx context.Context, item *model.StockCountItem) error {
	count, ok := f.counts[item.StockCountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range count.Items {
		if count.Items[i].ID == item.ID {
			count.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStockCountRepo) List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, status string, page, limit int) ([]model.StockCount, int64, error) {
	var all []model.StockCount
	for _, id := range f.order {
		c := f.counts[id]
		if c.TenantID != tenantID {
			continue
		}
		if locationID != nil && c.LocationID != *locationID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		all = append(all, *c)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

// --- pos sessions ---

type fakePosSessionRepo struct {
	sessions map[uuid.UUID]*model.PosSession
	order    []uuid.UUID
	txns     []model.PosSessionTransaction

	// missOpenLookupOnce makes the next FindOpenByTerminal report a free
	// drawer regardless of state, the way a not-yet-committed concurrent
	// insert is invisible to the lookup.
	missOpenLookupOnce bool
}

func newFakePosSessionRepo() *fakePosSessionRepo {
	return &fakePosSessionRepo{sessions: make(map[uuid.UUID]*model.PosSession)}
}

func (f *fakePosSessionRepo) Create(ctx context.Context, session *model.PosSession) error {
	// Mirror of the partial unique index on (tenant, location, terminal)
	// for OPEN rows.
	if session.Status == model.SessionStatusOpen {
		for _, s := range f.sessions {
			if s.TenantID == session.TenantID && s.LocationID == session.LocationID &&
				s.TerminalID == session.TerminalID && s.Status == model.SessionStatusOpen {
				return &pgconn.PgError{Code: "23505", ConstraintName: "uniq_open_pos_session"}
			}
		}
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	cp := *session
	f.sessions[session.ID] = &cp
	f.order = append(f.order, session.ID)
	return nil
}

func (f *fakePosSessionRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PosSession, error) {
	if s, ok := f.sessions[id]; ok && s.TenantID == tenantID {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePosSessionRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.PosSession, error) {
	return f.FindByID(ctx, tenantID, id)
}

func (f *fakePosSessionRepo) FindOpenByTerminal(ctx context.Context, tenantID, locationID uuid.UUID, terminalID string) (*model.PosSession, error) {
	if f.missOpenLookupOnce {
		f.missOpenLookupOnce = false
		return nil, gorm.ErrRecordNotFound
	}
	for _, s := range f.sessions {
		if s.TenantID == tenantID && s.LocationID == locationID && s.TerminalID == terminalID && s.Status == model.SessionStatusOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePosSessionRepo) Save(ctx context.Context, session *model.PosSession) error {
	if _, ok := f.sessions[session.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakePosSessionRepo) CreateTransaction(ctx context.Context, txn *model.PosSessionTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	f.txns = append(f.txns, *txn)
	return nil
}

func (f *fakePosSessionRepo) ListTransactions(ctx context.Context, tenantID, sessionID uuid.UUID) ([]model.PosSessionTransaction, error) {
	var all []model.PosSessionTransaction
	for i := range f.txns {
		if f.txns[i].TenantID == tenantID && f.txns[i].SessionID == sessionID {
			all = append(all, f.txns[i])
		}
	}
	return all, nil
}

func (f *fakePosSessionRepo) List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, status string, page, limit int) ([]model.PosSession, int64, error) {
	var all []model.PosSession
	for _, id := range f.order {
		s := f.sessions[id]
		if s.TenantID != tenantID {
			continue
		}
		if locationID != nil && s.LocationID != *locationID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		all = append(all, *s)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for i := range f.entries {
		if f.entries[i].TenantID == tenantID {
			all = append(all, f.entries[i])
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

// --- fixture wiring ---

type fixtures struct {
	tenantID uuid.UUID

	items       *fakeItemRepo
	ledger      *fakeLedgerRepo
	products    *fakeProductRepo
	locations   *fakeLocationRepo
	uoms        *fakeUomRepo
	adjustments *fakeAdjustmentRepo
	transfers   *fakeTransferRepo
	counts      *fakeStockCountRepo
	sessions    *fakePosSessionRepo
	audits      *fakeAuditRepo
	tx          repository.TransactionManager

	stock StockService
}

func newFixtures() *fixtures {
	f := &fixtures{
		tenantID:    uuid.New(),
		items:       newFakeItemRepo(),
		ledger:      newFakeLedgerRepo(),
		products:    newFakeProductRepo(),
		locations:   newFakeLocationRepo(),
		uoms:        newFakeUomRepo(),
		adjustments: newFakeAdjustmentRepo(),
		transfers:   newFakeTransferRepo(),
		counts:      newFakeStockCountRepo(),
		sessions:    newFakePosSessionRepo(),
		audits:      newFakeAuditRepo(),
		tx:          &fakeTxManager{},
	}
	f.stock = NewStockService(f.items, f.ledger, f.tx, nil)
	return f
}

func (f *fixtures) addLocation(code string) *model.Location {
	loc := &model.Location{TenantID: f.tenantID, Code: code, Name: code, Active: true}
	_ = f.locations.Create(context.Background(), loc)
	return loc
}

func (f *fixtures) addProduct(sku string) *model.Product {
	p := &model.Product{TenantID: f.tenantID, SKU: sku, Name: sku, StockTracked: true, Active: true}
	_ = f.products.Create(context.Background(), p)
	return p
}

func (f *fixtures) addUom(code string, factor int64) *model.UnitOfMeasure {
	u := &model.UnitOfMeasure{TenantID: f.tenantID, Code: code, Name: code, ConversionFactor: decimal.NewFromInt(factor)}
	_ = f.uoms.Create(context.Background(), u)
	return u
}

// seedStock books initial stock onto the triple through a correction
// adjustment movement so the ledger and counter stay consistent.
func (f *fixtures) seedStock(productID, locationID uuid.UUID, qty int64) error {
	_, err := f.stock.ApplyMovement(context.Background(), MovementInput{
		TenantID:       f.tenantID,
		ProductID:      productID,
		LocationID:     locationID,
		Type:           model.TxTypeAdjustment,
		QuantityChange: decimal.NewFromInt(qty),
		Related:        model.NoRelatedDocument,
	})
	return err
}

func (f *fixtures) onHand(productID, locationID uuid.UUID) decimal.Decimal {
	item, err := f.items.Find(context.Background(), f.tenantID, productID, locationID)
	if err != nil {
		return decimal.Zero
	}
	return item.QuantityOnHand
}

func (f *fixtures) incoming(productID, locationID uuid.UUID) decimal.Decimal {
	item, err := f.items.Find(context.Background(), f.tenantID, productID, locationID)
	if err != nil {
		return decimal.Zero
	}
	return item.QuantityIncoming
}

func (f *fixtures) ledgerSum(productID, locationID uuid.UUID) decimal.Decimal {
	sum, _ := f.ledger.SumQuantityChange(context.Background(), f.tenantID, productID, locationID)
	return sum
}
