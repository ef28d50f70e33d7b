// Package payments stores the merchant bank account buyers transfer to.
package payments

import (
	"context"
	"fmt"

	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
)

// DetailsKey is where the merchant details live.
const DetailsKey = "payment:details"

// Details are the receiving account shown at checkout.
type Details struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
}

// Default is served until an administrator saves details.
var Default = Details{
	BankName:      "First Bank of Nigeria",
	AccountName:   "Sacy's Kitchen",
	AccountNumber: "0123456789",
}

type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store { return &Store{kv: store} }

// Get returns the saved details, or Default.
func (s *Store) Get(ctx context.Context) (Details, error) {
	var d Details
	ok, err := kv.GetJSON(ctx, s.kv, DetailsKey, &d)
	if err != nil {
		return Details{}, fmt.Errorf("read payment details: %w", err)
	}
	if !ok {
		return Default, nil
	}
	return d, nil
}

// Save overwrites the details.
func (s *Store) Save(ctx context.Context, d Details) error {
	if err := kv.SetJSON(ctx, s.kv, DetailsKey, d); err != nil {
		return fmt.Errorf("write payment details: %w", err)
	}
	return nil
}
