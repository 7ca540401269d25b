package radiobrowser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/radiodir/pkg/httpclient"
)

type stubResponse struct {
	status int
	body   []byte
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.status }

// recordingTransport answers every request with a fixed response.
type recordingTransport struct {
	mu    sync.Mutex
	resp  httpclient.Response
	err   error
	calls []Request
}

func (r *recordingTransport) Send(_ context.Context, req Request) (httpclient.Response, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	return r.resp, r.err
}

func (r *recordingTransport) last() Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newStubClient(status int, body string) (*Client, *recordingTransport) {
	tr := &recordingTransport{resp: stubResponse{status: status, body: []byte(body)}}
	return New(WithTransport(tr)), tr
}

func TestClientDecodesTags(t *testing.T) {
	want := []StationTag{
		{Name: "jazz", StationCount: 10},
		{Name: "rock", StationCount: 20},
		{Name: "news", StationCount: 3},
	}
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	client, tr := newStubClient(http.StatusOK, string(raw))
	got, err := client.Tags(context.Background(), Page{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, want, got)

	req := tr.last()
	assert.Equal(t, MethodGet, req.Method())
	assert.Equal(t, "http://91.132.145.114/json/tags?offset=0&limit=20", req.URL())
	assert.Nil(t, req.Body())
	assert.Equal(t, "application/json", req.Headers()["Accept"])
	assert.Equal(t, defaultUserAgent, req.Headers()["User-Agent"])
}

func TestClientMapsStatusBeforeDecoding(t *testing.T) {
	tests := []struct {
		status int
		want   *Error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusMethodNotAllowed, ErrMethodNotAllowed},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusBadGateway, ErrServerError},
		{599, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			// A valid body must not be decoded when the status fails.
			client, _ := newStubClient(tt.status, `[{"name":"jazz","stationcount":1}]`)
			tags, err := client.Tags(context.Background(), Page{})
			require.Error(t, err)
			assert.Nil(t, tags)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var radioErr *Error
			require.True(t, errors.As(err, &radioErr))
			assert.Equal(t, KindHTTPStatus, radioErr.Kind)
			assert.Equal(t, tt.status, radioErr.StatusCode)
		})
	}
}

func TestClientNotFoundIgnoresBody(t *testing.T) {
	for _, body := range []string{"", "not json", `{"ok":true}`} {
		client, _ := newStubClient(http.StatusNotFound, body)
		_, err := client.Countries(context.Background(), Page{})
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestClientOtherStatusesProceedToDecoding(t *testing.T) {
	client, _ := newStubClient(http.StatusUnauthorized, `[{"name":"x","stationcount":1}]`)
	tags, err := client.Tags(context.Background(), Page{})
	require.NoError(t, err)
	assert.Equal(t, []StationTag{{Name: "x", StationCount: 1}}, tags)

	client, _ = newStubClient(http.StatusAccepted, `garbage`)
	_, err = client.Tags(context.Background(), Page{})
	var radioErr *Error
	require.ErrorAs(t, err, &radioErr)
	assert.Equal(t, KindDecode, radioErr.Kind)
}

func TestClientMalformedJSONIsDecodeFailure(t *testing.T) {
	client, _ := newStubClient(http.StatusOK, `[{"name": "jazz",`)
	_, err := client.Tags(context.Background(), Page{})

	var radioErr *Error
	require.ErrorAs(t, err, &radioErr)
	assert.True(t, radioErr.IsDecode())
	assert.False(t, radioErr.IsTransport())
}

func TestClientTransportFailure(t *testing.T) {
	cause := errors.New("connection refused")
	tr := &recordingTransport{err: cause}
	client := New(WithTransport(tr))

	_, err := client.TopVoteStations(context.Background(), Page{})
	var radioErr *Error
	require.ErrorAs(t, err, &radioErr)
	assert.Equal(t, KindTransport, radioErr.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestClientNilResponseIsTransportFailure(t *testing.T) {
	client := New(WithTransport(&recordingTransport{}))
	_, err := client.Tags(context.Background(), Page{})

	var radioErr *Error
	require.ErrorAs(t, err, &radioErr)
	assert.Equal(t, KindTransport, radioErr.Kind)
}

func TestClientCancellationIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(WithHost(strings.TrimPrefix(srv.URL, "http://")))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Tags(ctx, Page{})
	var radioErr *Error
	require.ErrorAs(t, err, &radioErr)
	assert.Equal(t, KindTransport, radioErr.Kind)
}

func TestClientStationReturnsFirstOrNil(t *testing.T) {
	client, tr := newStubClient(http.StatusOK, `[]`)
	id := uuid.New()

	st, err := client.Station(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.Equal(t, "http://91.132.145.114/json/stations/byuuid?uuids="+id.String(), tr.last().URL())

	client, _ = newStubClient(http.StatusOK, "["+sampleStationJSON+"]")
	st, err = client.Station(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Jazz Radio", st.Name)
}

func TestClientVoteAndClick(t *testing.T) {
	id := uuid.New()

	client, tr := newStubClient(http.StatusOK, `{"ok":true,"message":"voted for station successfully"}`)
	vote, err := client.Vote(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, VoteResult{OK: true, Message: "voted for station successfully"}, vote)
	assert.Equal(t, "http://91.132.145.114/json/vote/"+id.String(), tr.last().URL())

	body := `{"ok":true,"message":"retrieved station url","stationuuid":"` + id.String() + `","name":"X","url":"http://stream"}`
	client, tr = newStubClient(http.StatusOK, body)
	click, err := client.Click(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, click.StationUUID)
	assert.Equal(t, "http://stream", click.URL)
	assert.Equal(t, "http://91.132.145.114/json/url/"+id.String(), tr.last().URL())
}

func TestClientPageDefaults(t *testing.T) {
	client, tr := newStubClient(http.StatusOK, `[]`)

	_, err := client.SearchStations(context.Background(), "baz", Page{})
	require.NoError(t, err)
	assert.Equal(t, "http://91.132.145.114/json/stations/search?name=baz&hidebroken=true&offset=0&limit=20", tr.last().URL())

	_, err = client.AllStations(context.Background(), Page{Offset: 40, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "http://91.132.145.114/json/stations/search?hidebroken=true&offset=40&limit=10", tr.last().URL())
}

func TestPerformEncodesWriteBodies(t *testing.T) {
	client, tr := newStubClient(http.StatusOK, `{"ok":true,"message":""}`)
	payload := map[string]string{"name": "Jazz"}

	_, err := perform[VoteResult](context.Background(), client, MethodPost, Stations(), payload)
	require.NoError(t, err)
	req := tr.last()
	assert.Equal(t, MethodPost, req.Method())
	assert.JSONEq(t, `{"name":"Jazz"}`, string(req.Body()))
	assert.Equal(t, "application/json", req.Headers()["Content-Type"])
}

func TestPerformEncodeFailure(t *testing.T) {
	client, tr := newStubClient(http.StatusOK, `{}`)

	_, err := perform[VoteResult](context.Background(), client, MethodPut, Stations(), func() {})
	var radioErr *Error
	require.ErrorAs(t, err, &radioErr)
	assert.Equal(t, KindEncode, radioErr.Kind)
	assert.Empty(t, tr.calls, "nothing should be sent when encoding fails")
}

func TestClientOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json/countries":
			assert.Equal(t, "offset=0&limit=2", r.URL.RawQuery)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"name":"Germany","iso_3166_1":"DE","stationcount":5000},{"name":"France","iso_3166_1":"FR","stationcount":3000}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := New(
		WithHost(strings.TrimPrefix(srv.URL, "http://")),
		WithHTTPClient(httpclient.NewRestyClient(2*time.Second)),
	)

	countries, err := client.Countries(context.Background(), Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []Country{
		{Name: "Germany", ISO31661: "DE", StationCount: 5000},
		{Name: "France", ISO31661: "FR", StationCount: 3000},
	}, countries)

	_, err = client.Tags(context.Background(), Page{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientConcurrentCalls(t *testing.T) {
	client, tr := newStubClient(http.StatusOK, `[]`)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			_, err := client.Countries(context.Background(), Page{Offset: offset, Limit: 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, tr.calls, 16)
}

type recordingLogger struct {
	mu     sync.Mutex
	debugs []string
	errors []string
}

func (l *recordingLogger) DebugObj(msg, _ string, _ interface{}) {
	l.mu.Lock()
	l.debugs = append(l.debugs, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) ErrorObj(msg, _ string, _ interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func TestClientLogsRequestsAndFailures(t *testing.T) {
	log := &recordingLogger{}
	tr := &recordingTransport{resp: stubResponse{status: http.StatusInternalServerError}}
	client := New(WithTransport(tr), WithLogger(log))

	_, err := client.Tags(context.Background(), Page{})
	require.Error(t, err)
	assert.Equal(t, []string{"radio request"}, log.debugs)
	assert.Equal(t, []string{"radio request failed"}, log.errors)
}

type countingCodec struct {
	JSONCodec
	decodes int
}

func (c *countingCodec) Unmarshal(data []byte, v any) error {
	c.decodes++
	return c.JSONCodec.Unmarshal(data, v)
}

func TestClientWithCatalogCodecAndTransportFunc(t *testing.T) {
	var urls []string
	send := TransportFunc(func(_ context.Context, req Request) (httpclient.Response, error) {
		urls = append(urls, req.URL())
		return stubResponse{status: http.StatusOK, body: []byte(`[{"name":"jazz","stationcount":4}]`)}, nil
	})
	codec := &countingCodec{}
	catalog := NewCatalog(NewEndpoint(SchemeHTTPS, "de1.api.radio-browser.info", "/json"))

	client := New(WithTransport(send), WithCodec(codec), WithCatalog(catalog))
	tags, err := client.Tags(context.Background(), Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []StationTag{{Name: "jazz", StationCount: 4}}, tags)
	assert.Equal(t, []string{"https://de1.api.radio-browser.info/json/tags?offset=0&limit=1"}, urls)
	assert.Equal(t, 1, codec.decodes)
	assert.Equal(t, catalog, client.Catalog())
}

func TestClientNilOptionsKeepDefaults(t *testing.T) {
	client := New(WithTransport(nil), WithCodec(nil), WithHost("  "))
	assert.Equal(t, DefaultCatalog, client.Catalog())
	assert.NotNil(t, client.transport)
	assert.Equal(t, JSONCodec{}, client.codec)
}
