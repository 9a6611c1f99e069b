package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenFetchAndCache(t *testing.T) {
	var tokenCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/v1/generate", r.URL.Path)
		require.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)
		require.Equal(t, "secret", pass)

		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-1",
			"expires_in":   "3599",
		})
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	client := NewClient(srv.URL, "key", "secret", "174379", "passkey", "https://example.com/cb",
		WithClock(fixedClock(now)))

	tok, err := client.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	// Second call inside the expiry window hits the cache.
	tok, err = client.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)
	require.Equal(t, 1, tokenCalls)
}

func TestTokenRefreshAfterExpiry(t *testing.T) {
	var tokenCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "3599"})
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	client := NewClient(srv.URL, "key", "secret", "174379", "passkey", "https://example.com/cb",
		WithClock(func() time.Time { return now }))

	_, err := client.Token(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = client.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, tokenCalls)
}

func TestTokenHonorsExpiresIn(t *testing.T) {
	var tokenCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "120"})
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	client := NewClient(srv.URL, "key", "secret", "174379", "passkey", "https://example.com/cb",
		WithClock(func() time.Time { return now }))

	_, err := client.Token(context.Background())
	require.NoError(t, err)

	// Well inside the 120s lifetime: cached.
	now = now.Add(30 * time.Second)
	_, err = client.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, tokenCalls)

	// Within a minute of expiry: refetched.
	now = now.Add(45 * time.Second)
	_, err = client.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, tokenCalls)
}

func TestPassword(t *testing.T) {
	client := NewClient("http://x", "k", "s", "174379", "bfb279f9aa9bdbcf", "https://example.com/cb")
	ts := "20260830100000"
	want := base64.StdEncoding.EncodeToString([]byte("174379" + "bfb279f9aa9bdbcf" + ts))
	require.Equal(t, want, client.Password(ts))
}

func TestTimestampFormat(t *testing.T) {
	ts := Timestamp(time.Date(2026, 8, 30, 9, 5, 7, 0, time.UTC))
	require.Equal(t, "20260830090507", ts)
}

func TestSTKPushSendsExpectedPayload(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth/v1/generate":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "3599"})
		case "/mpesa/stkpush/v1/processrequest":
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "174379", body["BusinessShortCode"])
			require.Equal(t, "20260830100000", body["Timestamp"])
			require.Equal(t, "CustomerPayBillOnline", body["TransactionType"])
			require.Equal(t, "200", body["Amount"], "amount must be whole shillings")
			require.Equal(t, "254712345678", body["PhoneNumber"])
			require.Equal(t, "254712345678", body["PartyA"])
			require.Equal(t, "174379", body["PartyB"])
			require.Equal(t, "https://example.com/cb", body["CallBackURL"])
			require.Equal(t, "NYB-9-abc", body["AccountReference"])

			wantPassword := base64.StdEncoding.EncodeToString([]byte("174379passkey20260830100000"))
			require.Equal(t, wantPassword, body["Password"])

			json.NewEncoder(w).Encode(map[string]string{
				"MerchantRequestID":   "m-1",
				"CheckoutRequestID":   "c-1",
				"ResponseCode":        "0",
				"ResponseDescription": "Success. Request accepted for processing",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "secret", "174379", "passkey", "https://example.com/cb",
		WithClock(fixedClock(now)))

	result, err := client.STKPush(context.Background(), "254712345678",
		decimal.RequireFromString("200.75"), "NYB-9-abc", "Contact unlock")
	require.NoError(t, err)
	require.Equal(t, "m-1", result.MerchantRequestID)
	require.Equal(t, "c-1", result.CheckoutRequestID)
}

func TestSTKPushGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "expires_in": "3599"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"errorCode":    "400.002.02",
			"errorMessage": "Bad Request - Invalid PhoneNumber",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "secret", "174379", "passkey", "https://example.com/cb")

	_, err := client.STKPush(context.Background(), "bad",
		decimal.NewFromInt(200), "NYB-1", "Contact unlock")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid PhoneNumber")
}

func TestCallbackParsing(t *testing.T) {
	payload := `{
	  "Body": {
	    "stkCallback": {
	      "MerchantRequestID": "29115-34620561-1",
	      "CheckoutRequestID": "ws_CO_191220191020363925",
	      "ResultCode": 0,
	      "ResultDesc": "The service request is processed successfully.",
	      "CallbackMetadata": {
	        "Item": [
	          {"Name": "Amount", "Value": 200.00},
	          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
	          {"Name": "TransactionDate", "Value": 20191219102115},
	          {"Name": "PhoneNumber", "Value": 254708374149}
	        ]
	      }
	    }
	  }
	}`

	var envelope CallbackEnvelope
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))

	cb := envelope.Body.StkCallback
	require.True(t, cb.Success())
	require.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	require.Equal(t, "NLJ7RT61SV", cb.Receipt())
	require.True(t, cb.Amount().Equal(decimal.NewFromInt(200)))
	require.Equal(t, "254708374149", cb.Phone())
}

func TestCallbackFailureParsing(t *testing.T) {
	payload := `{
	  "Body": {
	    "stkCallback": {
	      "MerchantRequestID": "29115-34620561-1",
	      "CheckoutRequestID": "ws_CO_191220191020363925",
	      "ResultCode": 1032,
	      "ResultDesc": "Request cancelled by user."
	    }
	  }
	}`

	var envelope CallbackEnvelope
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))

	cb := envelope.Body.StkCallback
	require.False(t, cb.Success())
	require.Empty(t, cb.Receipt())
	require.True(t, cb.Amount().IsZero())
}
