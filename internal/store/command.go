package store

import "github.com/example/gelato/internal/models"

// Command is one logical edit of the store profile. Apply mutates the local
// snapshot, Columns names what must be merge-written afterwards, and Revert
// undoes Apply when the write fails.
type Command interface {
	Apply(p *models.StoreProfile) error
	Revert(p *models.StoreProfile)
	Columns(p *models.StoreProfile) map[string]any
}

// edit is a Command assembled from closures.
type edit struct {
	name    string
	apply   func(p *models.StoreProfile) error
	revert  func(p *models.StoreProfile)
	columns []string
}

func (e *edit) Apply(p *models.StoreProfile) error { return e.apply(p) }

func (e *edit) Revert(p *models.StoreProfile) { e.revert(p) }

func (e *edit) Columns(p *models.StoreProfile) map[string]any {
	out := make(map[string]any, len(e.columns))
	for _, c := range e.columns {
		out[c] = columnValue(p, c)
	}
	return out
}

func (e *edit) String() string { return e.name }

func columnValue(p *models.StoreProfile, column string) any {
	switch column {
	case models.ColumnDeliveryZones:
		return p.DeliveryZones
	case models.ColumnDeliveryCityFees:
		return p.DeliveryCityFees
	case models.ColumnPickupHours:
		return p.PickupHours
	case models.ColumnDeliveryHours:
		return p.DeliveryHours
	case models.ColumnIsManualClosed:
		return p.IsManualClosed
	case models.ColumnIsDeliveryManualClosed:
		return p.IsDeliveryManualClosed
	case models.ColumnPaymentMethodsEnabled:
		return p.PaymentMethodsEnabled
	case models.ColumnMinimumOrderAmount:
		return p.MinimumOrderAmount
	}
	return nil
}

// batch runs several edits as one logical edit with a single write.
type batch []*edit

func (b batch) Apply(p *models.StoreProfile) error {
	for i, e := range b {
		if err := e.Apply(p); err != nil {
			for j := i - 1; j >= 0; j-- {
				b[j].Revert(p)
			}
			return err
		}
	}
	return nil
}

func (b batch) Revert(p *models.StoreProfile) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i].Revert(p)
	}
}

func (b batch) Columns(p *models.StoreProfile) map[string]any {
	out := map[string]any{}
	for _, e := range b {
		for k, v := range e.Columns(p) {
			out[k] = v
		}
	}
	return out
}
