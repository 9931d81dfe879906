package payment

import "rental-billing/internal/domain/ports/adapter"

// The gateway operates multiple data centers; the callback names the one that
// handled the auth leg via idc_name, and the approval/net-cancel calls must go
// to that center. This static table is the source of truth the callback URLs
// are validated against.
var endpointTable = map[string]adapter.GatewayEndpoints{
	"fc": {
		AuthURL:      "https://fcstdpay.inicis.com/api/v1/formpay",
		NetCancelURL: "https://fcstdpay.inicis.com/api/v1/refund",
	},
	"ks": {
		AuthURL:      "https://ksstdpay.inicis.com/api/v1/formpay",
		NetCancelURL: "https://ksstdpay.inicis.com/api/v1/refund",
	},
	"stg": {
		AuthURL:      "https://stgstdpay.inicis.com/api/v1/formpay",
		NetCancelURL: "https://stgstdpay.inicis.com/api/v1/refund",
	},
}
