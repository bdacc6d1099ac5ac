package trace

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	httperr "github.com/aevon-lab/tracelens/internal/core/errors"
	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, stores StoreProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	NewHandler(newTestService(stores, nil), 0).RegisterRoutes(r)
	return r
}

func postForm(r *gin.Engine, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/trace", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func plotValues() url.Values {
	return url.Values{
		"ip":          {"127.0.0.1"},
		"port":        {"5432"},
		"db":          {"ginan"},
		"type":        {"Line"},
		"fCoeff":      {"0.5"},
		"filter":      {"none"},
		"group":       {"site"},
		"datax":       {"residual"},
		"xaxis":       {"_time"},
		"yaxis":       {"y"},
		"match--site": {"ALIC"},
		"match--sat":  {"G01"},
		"plot":        {"Plot"},
	}
}

func cookieNamed(resp *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandler_FormUpdateSetsCookies(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	resp := postForm(r, url.Values{"ip": {"127.0.0.1"}, "db": {"ginan"}, "update": {"Update"}})
	require.Equal(t, http.StatusOK, resp.Code)

	var body Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, []string{"sat", "site", "time"}, body.Selection.IDKeys)

	for _, name := range []string{CookieIDKeys, CookieValueKeys, CookieIDKeyValues} {
		c := cookieNamed(resp, name)
		require.NotNil(t, c, name)
		assert.Equal(t, int(DefaultCookieMaxAge.Seconds()), c.MaxAge)
	}
	assert.Nil(t, cookieNamed(resp, CookieForm))
}

func TestHandler_FormPlot(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	idKeys := &http.Cookie{Name: CookieIDKeys, Value: url.QueryEscape(`["sat","site","time"]`)}
	resp := postForm(r, plotValues(), idKeys)
	require.Equal(t, http.StatusOK, resp.Code)

	var body Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Figures, 1)
	assert.Equal(t, "ALIC", body.Figures[0].Data[0].Name)
	assert.Equal(t, []string{"sat", "site", "time"}, body.Selection.IDKeys)
	require.NotNil(t, cookieNamed(resp, CookieForm))
}

func TestHandler_FormPlotStatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		stores         StoreProvider
		mutate         func(v url.Values)
		expectedStatus int
		wantMessage    string
	}{
		{
			name:           "bad fCoeff stays on page",
			stores:         staticStores{store: seededStore(t)},
			mutate:         func(v url.Values) { v.Set("fCoeff", "abc") },
			expectedStatus: http.StatusOK,
			wantMessage:    "fCoeff",
		},
		{
			name:           "no datax reports no data",
			stores:         staticStores{store: seededStore(t)},
			mutate:         func(v url.Values) { v.Del("datax") },
			expectedStatus: http.StatusOK,
			wantMessage:    NoDataMessage,
		},
		{
			name:           "unreachable store returns 503",
			stores:         staticStores{err: fmt.Errorf("%w: dial tcp", storage.ErrUnreachable)},
			mutate:         func(url.Values) {},
			expectedStatus: http.StatusServiceUnavailable,
			wantMessage:    httperr.HttpStoreUnreachableError,
		},
		{
			name:           "other store failure returns 500",
			stores:         staticStores{err: fmt.Errorf("bad dsn")},
			mutate:         func(url.Values) {},
			expectedStatus: http.StatusInternalServerError,
			wantMessage:    httperr.HttpInternalError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, tc.stores)
			values := plotValues()
			tc.mutate(values)

			resp := postForm(r, values)
			if resp.Code != tc.expectedStatus {
				t.Logf("unexpected response body: %s", resp.Body.String())
			}
			require.Equal(t, tc.expectedStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tc.wantMessage)
		})
	}
}

func TestHandler_JSONPlot(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	resp := postJSON(r, "/v1/trace/plot", plotForm())
	require.Equal(t, http.StatusOK, resp.Code)

	var body Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Figures, 1)
	assert.Equal(t, "%{x}<br>%{y:.4e}<br>ALIC", body.Figures[0].Data[0].HoverTemplate)
}

func TestHandler_JSONPlotMissingInputIs400(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})
	form := plotForm()
	form.FCoeff = "abc"

	resp := postJSON(r, "/v1/trace/plot", form)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, httperr.HttpMissingInputError, body.ErrorType)
}

func TestHandler_JSONUpdate(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	resp := postJSON(r, "/v1/trace/update", Form{DB: "ginan"})
	require.Equal(t, http.StatusOK, resp.Code)

	var sel Selection
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sel))
	assert.Equal(t, []string{"elev", "residual"}, sel.ValueKeys)
}

func TestHandler_InvalidJSON(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	req := httptest.NewRequest(http.MethodPost, "/v1/trace/plot", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), httperr.HttpInvalidJsonError)
}

func TestHandler_PlotPNG(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	resp := postJSON(r, "/v1/trace/plot.png?figure=0", plotForm())
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(resp.Body.String(), "\x89PNG"))

	resp = postJSON(r, "/v1/trace/plot.png?figure=3", plotForm())
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = postJSON(r, "/v1/trace/plot.png?figure=x", plotForm())
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandler_GetSelectionFromCookies(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	form, err := json.Marshal(plotForm())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/trace", nil)
	req.AddCookie(&http.Cookie{Name: CookieForm, Value: url.QueryEscape(string(form))})
	req.AddCookie(&http.Cookie{Name: CookieIDKeyValues, Value: "not-json"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var sel Selection
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sel))
	assert.Equal(t, "ginan", sel.Form.DB)
	assert.Empty(t, sel.IDKeyValues)
}

func TestHandler_Presets(t *testing.T) {
	r := newTestRouter(t, staticStores{store: seededStore(t)})

	req := httptest.NewRequest(http.MethodGet, "/v1/presets", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"presets":[]}`, resp.Body.String())

	resp = postJSON(r, "/v1/presets/missing/plot", Form{DB: "ginan"})
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), httperr.HttpPresetNotFoundError)
}
