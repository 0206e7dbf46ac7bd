package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/artcheck/pkg/analysis"
	"github.com/codeGROOVE-dev/artcheck/pkg/dispatch"
	"github.com/codeGROOVE-dev/artcheck/pkg/loop"
	"github.com/codeGROOVE-dev/artcheck/pkg/profile"
	"github.com/codeGROOVE-dev/artcheck/pkg/relay"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type submission struct {
	Pseudo string
	Link   string
}

type fakeSubmitter struct {
	err error
	got []submission
	mu  sync.Mutex
}

func (f *fakeSubmitter) Submit(pseudo, link string) error {
	f.mu.Lock()
	f.got = append(f.got, submission{pseudo, link})
	f.mu.Unlock()
	return f.err
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func assertAck(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("response not JSON: %v (%q)", err, w.Body.String())
	}
	if diff := cmp.Diff(map[string]string{"status": "received"}, got); diff != "" {
		t.Errorf("ack mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name string
		body string
		want submission
	}{
		{"both fields", `{"pseudo":"jane","lien":"https://instagram.com/art_jane"}`, submission{"jane", "https://instagram.com/art_jane"}},
		{"missing lien", `{"pseudo":"jane"}`, submission{"jane", ""}},
		{"markup in pseudo", `{"pseudo":"<b>jane</b> & co<script>alert(1)</script>","lien":"x"}`, submission{"jane & co", "x"}},
		{"wrong types", `{"pseudo":42,"lien":["x"]}`, submission{"", ""}},
		{"empty object", `{}`, submission{"", ""}},
		{"malformed", `{"pseudo":`, submission{"", ""}},
		{"empty body", ``, submission{"", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSubmitter{}
			w := post(t, NewRouter(s, nil), tt.body)
			assertAck(t, w)
			if diff := cmp.Diff([]submission{tt.want}, s.got); diff != "" {
				t.Errorf("submissions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubmitAcksWhenSchedulingFails(t *testing.T) {
	s := &fakeSubmitter{err: loop.ErrQueueFull}
	assertAck(t, post(t, NewRouter(s, nil), `{"pseudo":"jane","lien":"x"}`))
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter(&fakeSubmitter{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("GET /healthz = %d %q", w.Code, w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/submit", http.NoBody)
	req.Header.Set("Origin", "https://gallery.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	NewRouter(&fakeSubmitter{}, nil).ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, profile.Identifier) *profile.Record {
	return &profile.Record{DisplayName: "Jane", Followers: profile.IntCount(120)}
}

// TestSubmitAckIndependentOfRelay drives the real dispatcher and event loop
// against a webhook that always fails.
func TestSubmitAckIndependentOfRelay(t *testing.T) {
	posted := make(chan string, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck // checked via content
		posted <- body.Content
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer webhook.Close()

	l := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx) //nolint:errcheck // returns nil on cancel
	}()
	defer func() {
		cancel()
		<-done
	}()

	d := dispatch.New(l, stubFetcher{}, analysis.Select(nil), relay.New(webhook.URL))
	router := NewRouter(d, nil)

	assertAck(t, post(t, router, `{"pseudo":"jane","lien":"https://site.example/art_jane"}`))

	select {
	case got := <-posted:
		if !strings.HasPrefix(got, "**jane** submitted https://site.example/art_jane\n") {
			t.Errorf("relayed content = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("relay was never attempted")
	}
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() //nolint:errcheck // freeing the port for Serve

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- Serve(ctx, addr, NewRouter(&fakeSubmitter{}, nil), nil) }()

	var resp *http.Response
	for range 50 {
		resp, err = http.Get("http://" + addr + "/healthz") //nolint:noctx // test
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close() //nolint:errcheck // test
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestServeListenError(t *testing.T) {
	err := Serve(context.Background(), "256.0.0.1:bad", http.NotFoundHandler(), nil)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Serve() error = %v, want listen failure", err)
	}
}
