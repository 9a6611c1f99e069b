package mpesa

import (
	"github.com/shopspring/decimal"
)

// CallbackEnvelope is the asynchronous STK push result POSTed by the
// gateway to the registered callback URL.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string           `json:"MerchantRequestID"`
	CheckoutRequestID string           `json:"CheckoutRequestID"`
	ResultCode        int              `json:"ResultCode"`
	ResultDesc        string           `json:"ResultDesc"`
	CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
}

type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Success reports whether the user completed the STK prompt and the
// payment went through. Any non-zero ResultCode (cancelled, timeout,
// insufficient funds) is a failure.
func (cb *StkCallback) Success() bool { return cb.ResultCode == 0 }

// Receipt returns the MpesaReceiptNumber metadata item, if present.
func (cb *StkCallback) Receipt() string {
	if v, ok := cb.item("MpesaReceiptNumber"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Amount returns the Amount metadata item as a decimal.
func (cb *StkCallback) Amount() decimal.Decimal {
	if v, ok := cb.item("Amount"); ok {
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n)
		case string:
			if d, err := decimal.NewFromString(n); err == nil {
				return d
			}
		}
	}
	return decimal.Zero
}

// Phone returns the PhoneNumber metadata item. The gateway sends it as a
// number, not a string.
func (cb *StkCallback) Phone() string {
	if v, ok := cb.item("PhoneNumber"); ok {
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n).String()
		case string:
			return n
		}
	}
	return ""
}

func (cb *StkCallback) item(name string) (interface{}, bool) {
	for _, it := range cb.CallbackMetadata.Item {
		if it.Name == name {
			return it.Value, true
		}
	}
	return nil, false
}
