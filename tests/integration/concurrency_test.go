package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentChargesSameReference verifies exactly-once processing under
// contention: many requests racing on the same idempotency token must reach
// the provider once, persist one record, and move the merchant counters once.
func TestConcurrentChargesSameReference(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Hold each provider call open long enough that the remaining requests
	// all arrive while the first charge is still in flight.
	app.cardGateway.delay = 100 * time.Millisecond

	token := login(t, app, merchantEmail, testPassword)

	concurrency := 50
	payload, err := json.Marshal(chargePayload("RACE-0001", 200000))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var created atomic.Int64
	var failed atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/charges", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				failed.Add(1)
				return
			}
			resp.Body.Close()

			if resp.StatusCode == http.StatusCreated {
				created.Add(1)
			} else {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(concurrency), created.Load(), "every replay resolves to the same durable record")
	assert.Equal(t, int64(0), failed.Load())

	// The provider saw the charge exactly once.
	assert.Equal(t, int64(1), app.cardGateway.calls.Load())

	// One record, one counter movement.
	tx, err := app.txRepo.GetByReference(t.Context(), app.merchantID, "RACE-0001")
	require.NoError(t, err)
	require.NotNil(t, tx)

	_, stats := doJSON(t, app, http.MethodGet, "/api/v1/accounts/me/stats", token, nil)
	data := stats["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_transactions"])
	assert.Equal(t, float64(200000), data["total_volume_minor"])
}

// TestConcurrentChargesDistinctReferences verifies counter increments do not
// lose updates when independent charges complete at the same time.
func TestConcurrentChargesDistinctReferences(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := login(t, app, merchantEmail, testPassword)

	concurrency := 40
	amount := int64(10000)

	var wg sync.WaitGroup
	var created atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			payload, _ := json.Marshal(chargePayload(fmt.Sprintf("BULK-%04d", idx), amount))
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/charges", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), created.Load())
	assert.Equal(t, int64(concurrency), app.cardGateway.calls.Load())

	_, stats := doJSON(t, app, http.MethodGet, "/api/v1/accounts/me/stats", token, nil)
	data := stats["data"].(map[string]interface{})
	assert.Equal(t, float64(concurrency), data["total_transactions"])
	assert.Equal(t, float64(concurrency)*float64(amount), data["total_volume_minor"])
	// 70 bps of 10000, rounded half-up, is 70 per charge.
	assert.Equal(t, float64(concurrency)*70, data["total_commission_minor"])
}
