package model

import "time"

// OrderMapping links a gateway order id back to the purchasing user. Created
// before the client-side redirect, never updated, read at callback time.
type OrderMapping struct {
	OrderID   string
	UserID    string
	Channel   Channel
	Amount    int64
	GoodName  string
	CreatedAt time.Time
}
