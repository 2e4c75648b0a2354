package educabiz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	mu         sync.Mutex
	logins     int
	rejectNext bool
	requests   []string
}

func (p *fakePortal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "mom" || r.PostForm.Get("password") != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p.mu.Lock()
		p.logins++
		p.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p.mu.Lock()
			p.requests = append(p.requests, r.Method+" "+r.URL.Path)
			reject := p.rejectNext
			p.rejectNext = false
			p.mu.Unlock()

			if c, err := r.Cookie("session"); err != nil || c.Value != "ok" || reject {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/home", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"schoolname":"Sunny","children":{"42":{"name":"Ana","photo":"/photos/42.jpg"}}}`))
	}))
	mux.HandleFunc("/presence", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"children":{"42":{"presence":[{"id":"undefined"}]}}}`))
	}))
	mux.HandleFunc("/presence/checkin", authed(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "42", r.PostForm.Get("child"))
		_, _ = w.Write([]byte(`{"id":981,"isAbsent":false,"hasIn":true,"hasOut":false,` +
			`"in":{"time":"09:52","hour":"09","minutes":"52","fetcher":"Mom"},"out":{"time":"--:--"}}`))
	}))
	mux.HandleFunc("/presence/absent", authed(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "42", r.PostForm.Get("child"))
		require.Equal(t, "Fever", r.PostForm.Get("notes"))
		_, _ = w.Write([]byte(`{"id":"982","isAbsent":true,"notes":"Fever"}`))
	}))
	mux.HandleFunc("/presence/checkout", authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	mux.HandleFunc("/photos/42.jpg", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("JPEG"))
	}))
	return mux
}

func newTestClient(t *testing.T, p *fakePortal) *Client {
	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "mom", "pw")
	require.NoError(t, err)
	return c
}

func TestClient_LazyLoginAndHome(t *testing.T) {
	p := &fakePortal{}
	c := newTestClient(t, p)

	home, err := c.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sunny", home.SchoolName)
	assert.Equal(t, HomeChild{Name: "Ana", Photo: "/photos/42.jpg"}, home.Children["42"])

	presence, err := c.Presence(context.Background())
	require.NoError(t, err)
	records := presence.Children["42"].Presence
	require.Len(t, records, 1)
	require.NotNil(t, records[0].RecordID())
	assert.Equal(t, "undefined", *records[0].RecordID())

	assert.Equal(t, 1, p.logins)
}

func TestClient_CheckInAndAbsent(t *testing.T) {
	c := newTestClient(t, &fakePortal{})

	record, err := c.CheckIn(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "981", *record.RecordID())
	require.NotNil(t, record.HasIn)
	assert.True(t, *record.HasIn)
	assert.Equal(t, "09:52", record.In.Time)
	assert.Equal(t, "Mom", record.In.Fetcher)
	assert.Equal(t, "--:--", record.Out.Time)

	record, err = c.Absent(context.Background(), "42", "Fever")
	require.NoError(t, err)
	assert.True(t, *record.IsAbsent)
	assert.Equal(t, "Fever", record.Notes)
	assert.Nil(t, record.HasIn)
}

func TestClient_Non2xxIsStatusError(t *testing.T) {
	c := newTestClient(t, &fakePortal{})

	_, err := c.CheckOut(context.Background(), "42")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "/presence/checkout", statusErr.Path)
	assert.False(t, statusErr.Unauthenticated())
}

func TestClient_RejectedSessionLogsInOnNextCall(t *testing.T) {
	p := &fakePortal{}
	c := newTestClient(t, p)

	_, err := c.Home(context.Background())
	require.NoError(t, err)

	p.mu.Lock()
	p.rejectNext = true
	p.mu.Unlock()

	_, err = c.Home(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.Unauthenticated())
	assert.Equal(t, 1, p.logins)

	_, err = c.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, p.logins)
	assert.Len(t, p.requests, 3)
}

func TestClient_BadCredentials(t *testing.T) {
	p := &fakePortal{}
	srv := httptest.NewServer(p.handler(t))
	defer srv.Close()

	c, err := New(srv.URL, "mom", "wrong")
	require.NoError(t, err)

	_, err = c.Home(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "/login", statusErr.Path)
	assert.Empty(t, p.requests)
}

func TestClient_PhotoRelativeAndAbsolute(t *testing.T) {
	p := &fakePortal{}
	srv := httptest.NewServer(p.handler(t))
	defer srv.Close()

	c, err := New(srv.URL+"/", "mom", "pw")
	require.NoError(t, err)

	data, err := c.Photo(context.Background(), "/photos/42.jpg")
	require.NoError(t, err)
	assert.Equal(t, "JPEG", string(data))

	data, err = c.Photo(context.Background(), srv.URL+"/photos/42.jpg")
	require.NoError(t, err)
	assert.Equal(t, "JPEG", string(data))
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	_, err := New("portal.example", "u", "p")
	require.Error(t, err)
}
