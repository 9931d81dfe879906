package model

import "time"

// PointAccount is the user's prepaid point balance. Plan purchases paid with
// points debit this balance and grant the plan inside one transaction.
type PointAccount struct {
	UserID    string
	Balance   int64
	UpdatedAt time.Time
}
