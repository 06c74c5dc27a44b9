package events

import (
	"encoding/json"
	"time"

	"github.com/avazquez/product-service/pkg/messaging"
	"github.com/google/uuid"
)

// StockReducedEvent is published after a successful stock deduction so that
// downstream services (ordering, analytics) can observe the new level.
type StockReducedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	NewStock  int32     `json:"new_stock"`
	ReducedAt time.Time `json:"reduced_at"`
}

func (e StockReducedEvent) Subject() string {
	return messaging.StockReducedSubject
}

func (e StockReducedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
