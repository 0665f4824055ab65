package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/tabled/internal/game"
)

func newTestAPI(t *testing.T) (*API, *httptest.Server) {
	t.Helper()
	svc := newTestService(t)
	api := NewAPI(svc, NewHub(quietLogger()), quietLogger())
	ts := httptest.NewServer(api.Routes())
	t.Cleanup(ts.Close)
	return api, ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	return resp, fields
}

func strField(t *testing.T, fields map[string]json.RawMessage, key string) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(fields[key], &s))
	return s
}

func createTableHTTP(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, fields := doJSON(t, http.MethodPost, ts.URL+"/api/tables/create", map[string]int{
		"small_blind":    5,
		"big_blind":      10,
		"starting_stack": 1000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return strField(t, fields, "table_id")
}

func joinHTTP(t *testing.T, ts *httptest.Server, tableID, name string) string {
	t.Helper()
	resp, fields := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/join", ts.URL, tableID),
		map[string]string{"name": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return strField(t, fields, "seat_id")
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestAPI(t)
	resp, fields := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", strField(t, fields, "status"))
}

func TestCreateTableEndpoint(t *testing.T) {
	_, ts := newTestAPI(t)
	tableID := createTableHTTP(t, ts)
	assert.NotEmpty(t, tableID)
}

func TestCreateTableRejectsBadBlinds(t *testing.T) {
	_, ts := newTestAPI(t)
	resp, fields := doJSON(t, http.MethodPost, ts.URL+"/api/tables/create", map[string]int{
		"small_blind":    0,
		"big_blind":      10,
		"starting_stack": 1000,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, strField(t, fields, "detail"), "small blind")
}

func TestTableStateEndpoint(t *testing.T) {
	_, ts := newTestAPI(t)
	tableID := createTableHTTP(t, ts)

	resp, _ := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/tables/%s/state", ts.URL, tableID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/tables/missing/state", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFullHandOverHTTP(t *testing.T) {
	_, ts := newTestAPI(t)
	tableID := createTableHTTP(t, ts)
	alice := joinHTTP(t, ts, tableID, "alice")
	bob := joinHTTP(t, ts, tableID, "bob")

	resp, fields := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/start", ts.URL, tableID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hand_started", strField(t, fields, "status"))

	var state game.Snapshot
	require.NoError(t, json.Unmarshal(fields["state"], &state))
	require.Equal(t, "preflop", state.Phase)
	require.NotEmpty(t, state.CurrentSeatID)

	// Out-of-turn action conflicts and changes nothing.
	other := alice
	if state.CurrentSeatID == alice {
		other = bob
	}
	resp, _ = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/action", ts.URL, tableID),
		map[string]any{"seat_id": other, "action": "call"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Fold from the current actor ends the hand.
	resp, fields = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/action", ts.URL, tableID),
		map[string]any{"seat_id": state.CurrentSeatID, "action": "fold"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(fields["state"], &state))
	assert.Equal(t, "finished", state.Phase)

	// The finished hand shows up in history.
	resp, fields = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/tables/%s/hands", ts.URL, tableID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hands []game.HandRecord
	require.NoError(t, json.Unmarshal(fields["hands"], &hands))
	require.Len(t, hands, 1)
}

func TestActionEndpointRejectsUnknownAction(t *testing.T) {
	_, ts := newTestAPI(t)
	tableID := createTableHTTP(t, ts)
	joinHTTP(t, ts, tableID, "alice")
	joinHTTP(t, ts, tableID, "bob")
	doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/tables/%s/start", ts.URL, tableID), nil)

	resp, fields := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/action", ts.URL, tableID),
		map[string]any{"seat_id": "whatever", "action": "limp"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, strField(t, fields, "detail"), "unknown action")
}

func TestJoinFullTable(t *testing.T) {
	_, ts := newTestAPI(t)
	tableID := createTableHTTP(t, ts)
	for i := 0; i < game.MaxSeats; i++ {
		joinHTTP(t, ts, tableID, fmt.Sprintf("p%d", i))
	}

	resp, _ := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/join", ts.URL, tableID),
		map[string]string{"name": "late"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeleteTableEndpoint(t *testing.T) {
	_, ts := newTestAPI(t)
	tableID := createTableHTTP(t, ts)

	resp, _ := doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/api/tables/%s", ts.URL, tableID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/api/tables/%s", ts.URL, tableID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddBotEndpoint(t *testing.T) {
	_, ts := newTestAPI(t)
	tableID := createTableHTTP(t, ts)

	resp, fields := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/bots", ts.URL, tableID),
		map[string]string{"name": "hal", "strategy": "call"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, strField(t, fields, "seat_id"))

	resp, _ = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/tables/%s/bots", ts.URL, tableID),
		map[string]string{"name": "hal", "strategy": "psychic"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
