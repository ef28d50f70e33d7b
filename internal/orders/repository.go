package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/auth"
	"github.com/imrishuroy/kitchen-orderflow/internal/catalog"
	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
	"github.com/imrishuroy/kitchen-orderflow/internal/secure"
)

// maxKeyAttempts bounds how many milliseconds Create will step forward when a
// user already has an order at the current instant.
const maxKeyAttempts = 5

// Repository maintains order records and the per-user and admin indices.
type Repository struct {
	kv          kv.Store
	sealer      *secure.Sealer
	pricing     catalog.Mode
	transitions Transitions
	log         *zap.Logger
	nowFunc     func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithSealer encrypts payment-method fields at rest.
func WithSealer(s *secure.Sealer) Option { return func(r *Repository) { r.sealer = s } }

// WithPricing sets how submitted prices are checked against the catalog.
func WithPricing(m catalog.Mode) Option { return func(r *Repository) { r.pricing = m } }

// WithLogger reports records that listings had to skip.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// WithStrictTransitions rejects status changes away from terminal states.
func WithStrictTransitions(strict bool) Option {
	return func(r *Repository) {
		if strict {
			r.transitions = Strict{}
		} else {
			r.transitions = Permissive{}
		}
	}
}

// NewRepository creates a Repository over store. Prices are enforced against
// the catalog and status transitions are permissive unless overridden.
func NewRepository(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		kv:          store,
		pricing:     catalog.ModeEnforce,
		transitions: Permissive{},
		log:         zap.NewNop(),
		nowFunc:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create stores a new pending order for requester, then appends its key to the
// requester's index and the admin index, in that order. A failed append after
// the record is written returns a *PartialWriteError.
func (r *Repository) Create(ctx context.Context, requester auth.Identity, d Draft) (*Order, error) {
	if requester.ID == "" {
		return nil, auth.ErrUnauthorized
	}
	lines := make([]catalog.Line, len(d.Items))
	for i, it := range d.Items {
		lines[i] = catalog.Line{ID: it.ID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	if err := catalog.Check(r.pricing, lines, d.Total); err != nil {
		return nil, err
	}
	items := d.Items
	if r.pricing == catalog.ModeEnforce {
		items = fromCatalog(d.Items)
	}

	now := r.nowFunc().UTC()
	o := Order{
		Items:         items,
		Total:         d.Total,
		PaymentMethod: d.PaymentMethod,
		Status:        StatusPending,
		UserID:        requester.ID,
		UserEmail:     requester.Email,
		Timestamp:     d.Timestamp,
	}
	if o.PaymentMethod.Type == "" {
		o.PaymentMethod.Type = PaymentMethodBankAccount
	}

	stored := false
	for attempt := 0; attempt < maxKeyAttempts && !stored; attempt++ {
		at := now.Add(time.Duration(attempt) * time.Millisecond)
		o.OrderID = Key(at, requester.ID)
		o.CreatedAt = at
		o.OrderNumber = d.OrderNumber
		if o.OrderNumber == "" {
			o.OrderNumber = Number(at)
		}
		raw, err := r.encode(o)
		if err != nil {
			return nil, err
		}
		stored, err = r.kv.SetIfAbsent(ctx, o.OrderID, raw, 0)
		if err != nil {
			return nil, fmt.Errorf("write order %s: %w", o.OrderID, err)
		}
	}
	if !stored {
		return nil, fmt.Errorf("%w for user %s", ErrKeyCollision, requester.ID)
	}

	if err := r.kv.Append(ctx, UserIndexKey(requester.ID), o.OrderID); err != nil {
		return &o, &PartialWriteError{Key: o.OrderID, Index: UserIndexKey(requester.ID), Err: err}
	}
	if err := r.kv.Append(ctx, AdminIndexKey, o.OrderID); err != nil {
		return &o, &PartialWriteError{Key: o.OrderID, Index: AdminIndexKey, Err: err}
	}
	return &o, nil
}

// ListForUser returns userID's orders, newest first. Index entries whose record
// is missing are skipped.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, auth.ErrUnauthorized
	}
	out, err := r.load(ctx, UserIndexKey(userID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAll returns every order in creation order. requesterID must be an administrator.
func (r *Repository) ListAll(ctx context.Context, requesterID string) ([]Order, error) {
	if err := r.requireAdmin(ctx, requesterID); err != nil {
		return nil, err
	}
	return r.load(ctx, AdminIndexKey)
}

// UpdateStatus overwrites the status of the order at key and stamps updatedAt.
func (r *Repository) UpdateStatus(ctx context.Context, requesterID, key, status string) (*Order, error) {
	if err := r.requireAdmin(ctx, requesterID); err != nil {
		return nil, err
	}
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	// keys outside the order namespace are never orders, even if something is stored there
	if !strings.HasPrefix(key, "order:") {
		return nil, ErrNotFound
	}

	var o Order
	ok, err := kv.GetJSON(ctx, r.kv, key, &o)
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	if !r.transitions.Allowed(o.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}

	now := r.nowFunc().UTC()
	o.Status = status
	o.UpdatedAt = &now
	o.OrderID = key
	// open a copy first so an unreadable record is never rewritten
	view := o
	if err := r.open(&view); err != nil {
		return nil, fmt.Errorf("order %s: %w", key, err)
	}
	if err := kv.SetJSON(ctx, r.kv, key, o); err != nil {
		return nil, fmt.Errorf("write order %s: %w", key, err)
	}
	return &view, nil
}

// Get returns the order at key, or (nil, nil) if there is none.
func (r *Repository) Get(ctx context.Context, key string) (*Order, error) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	o, err := r.decode(key, raw)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Reindex appends key to the owner's index and the admin index where it is
// missing. It returns how many entries were added.
func (r *Repository) Reindex(ctx context.Context, key string) (int, error) {
	_, userID, ok := ParseKey(key)
	if !ok {
		return 0, fmt.Errorf("%w: malformed key %q", ErrNotFound, key)
	}
	if _, present, err := r.kv.Get(ctx, key); err != nil {
		return 0, fmt.Errorf("read order %s: %w", key, err)
	} else if !present {
		return 0, ErrNotFound
	}

	added := 0
	for _, idx := range []string{UserIndexKey(userID), AdminIndexKey} {
		members, err := r.kv.Members(ctx, idx)
		if err != nil {
			return added, fmt.Errorf("read index %s: %w", idx, err)
		}
		if contains(members, key) {
			continue
		}
		if err := r.kv.Append(ctx, idx, key); err != nil {
			return added, fmt.Errorf("append %s to %s: %w", key, idx, err)
		}
		added++
	}
	return added, nil
}

// IsAdmin reports whether userID carries the administrator flag.
func (r *Repository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	_, ok, err := r.kv.Get(ctx, AdminFlagKey(userID))
	if err != nil {
		return false, fmt.Errorf("read admin flag: %w", err)
	}
	return ok, nil
}

// GrantAdmin sets the administrator flag for userID.
func (r *Repository) GrantAdmin(ctx context.Context, userID string) error {
	if err := r.kv.Set(ctx, AdminFlagKey(userID), "true"); err != nil {
		return fmt.Errorf("grant admin %s: %w", userID, err)
	}
	return nil
}

func (r *Repository) requireAdmin(ctx context.Context, userID string) error {
	if userID == "" {
		return auth.ErrUnauthorized
	}
	ok, err := r.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// load resolves the keys in an index to orders, keeping index order and
// dropping duplicates and dangling entries. A record that cannot be decoded is
// logged and skipped so one bad order never hides the rest.
func (r *Repository) load(ctx context.Context, index string) ([]Order, error) {
	keys, err := r.kv.Members(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", index, err)
	}
	keys = dedupe(keys)
	if len(keys) == 0 {
		return []Order{}, nil
	}
	values, err := r.kv.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	out := make([]Order, 0, len(values))
	for _, k := range keys {
		raw, ok := values[k]
		if !ok {
			continue
		}
		o, err := r.decode(k, raw)
		if err != nil {
			r.log.Warn("skipping unreadable order", zap.String("order_key", k), zap.Error(err))
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

// fromCatalog copies items with name, description and category taken from the
// menu. Ids must already have passed catalog.Check.
func fromCatalog(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if m, ok := catalog.Lookup(it.ID); ok {
			it.Name = m.Name
			it.Description = m.Description
			it.Category = string(m.Category)
		}
		out[i] = it
	}
	return out
}

func (r *Repository) encode(o Order) (string, error) {
	pm, err := r.sealPayment(o.PaymentMethod)
	if err != nil {
		return "", err
	}
	o.PaymentMethod = pm
	b, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	return string(b), nil
}

func (r *Repository) decode(key, raw string) (*Order, error) {
	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", key, err)
	}
	o.OrderID = key
	if err := r.open(&o); err != nil {
		return nil, fmt.Errorf("order %s: %w", key, err)
	}
	return &o, nil
}

func (r *Repository) sealPayment(pm PaymentMethod) (PaymentMethod, error) {
	var err error
	for _, f := range []*string{&pm.BankName, &pm.AccountName, &pm.AccountNumber} {
		if *f, err = r.sealer.Seal(*f); err != nil {
			return pm, fmt.Errorf("seal payment method: %w", err)
		}
	}
	return pm, nil
}

func (r *Repository) open(o *Order) error {
	pm := &o.PaymentMethod
	var err error
	for _, f := range []*string{&pm.BankName, &pm.AccountName, &pm.AccountNumber} {
		if *f, err = r.sealer.Open(*f); err != nil {
			return fmt.Errorf("open payment method: %w", err)
		}
	}
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
