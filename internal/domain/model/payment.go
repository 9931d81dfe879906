package model

import "time"

// Channel distinguishes the desktop and mobile gateway integrations, which use
// different field sets and digest algorithms.
type Channel string

const (
	ChannelDesktop Channel = "desktop"
	ChannelMobile  Channel = "mobile"
)

// SettlementState is a terminal audit state: what a callback resolved to, or
// what an asynchronous net-cancel resolved to afterwards.
type SettlementState string

const (
	StateRejected         SettlementState = "REJECTED"
	StateSettled          SettlementState = "SETTLED"
	StateApprovalFailed   SettlementState = "APPROVAL_FAILED"
	StateNetCancelPending SettlementState = "NET_CANCEL_ATTEMPTED"
	StateNetCancelled     SettlementState = "NET_CANCELLED"
	StateNetCancelFailed  SettlementState = "NET_CANCEL_FAILED"
)

// CheckoutParams is the full parameter bag handed to the gateway's client-side
// widget. Each channel carries only its own digest fields: desktop sends
// signature, verification and mKey (SHA-256), mobile sends hashdata (SHA-512).
// The gateway recomputes every digest it receives.
type CheckoutParams struct {
	Channel      Channel `json:"channel"`
	MerchantID   string  `json:"mid"`
	OrderID      string  `json:"oid"`
	Price        int64   `json:"price"`
	Timestamp    int64   `json:"timestamp"` // ms epoch
	Signature    string  `json:"signature,omitempty"`    // desktop only
	Verification string  `json:"verification,omitempty"` // desktop only
	MKey         string  `json:"mKey,omitempty"`         // desktop only
	HashData     string  `json:"hashdata,omitempty"`     // mobile only, base64 SHA-512
	Currency     string  `json:"currency"`
	GoodName     string  `json:"goodname"`
	BuyerID      string  `json:"-"`
}

// GatewayCallback is the form-encoded POST the gateway sends after the user
// finishes the client-side flow. Field names follow provider documentation.
type GatewayCallback struct {
	Channel      Channel
	ResultCode   string // provider's own result for the auth leg
	ResultMsg    string
	OrderID      string
	AuthToken    string
	AuthURL      string // where the final approval call must go
	NetCancelURL string // where a compensating cancel goes
	IdcName      string // data-center identifier, keys the endpoint table
	Price        int64
	CardApplyNum string
}

// ApprovalResult is the gateway's response to the final approval call.
// ResultCode "0000" denotes success; anything else is failure.
type ApprovalResult struct {
	ResultCode     string `json:"resultCode"`
	ResultMsg      string `json:"resultMsg"`
	TID            string `json:"tid"`
	ApprovedAmount int64  `json:"TotPrice"`
	GoodName       string `json:"goodName"`
	PayMethod      string `json:"payMethod"`
	ApproveDate    string `json:"applDate"`
	ApproveTime    string `json:"applTime"`
}

func (r *ApprovalResult) Success() bool { return r != nil && r.ResultCode == "0000" }

// SettlementResult is the terminal outcome of processing one callback.
type SettlementResult struct {
	State    SettlementState
	OrderID  string
	TID      string
	Amount   int64
	Tier     PlanTier
	PlanName string
	Message  string // human-readable, safe to surface to the browser
}

// PaymentAudit is an append-only record written for every terminal callback
// state regardless of subscription-update outcome.
type PaymentAudit struct {
	ID         string
	OrderID    string
	UserID     string // empty when the order mapping was missing
	TID        string
	Channel    Channel
	Amount     int64
	PayMethod  string
	State      SettlementState
	ResultCode string
	RawResult  string
	CreatedAt  time.Time
}
