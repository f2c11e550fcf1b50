package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// CatalogFixture describes how the stub catalog answers one product code.
type CatalogFixture struct {
	// Status defaults to 200.
	Status int `yaml:"status"`
	// Delay is applied before the response is written.
	Delay time.Duration `yaml:"delay"`
	// Result is encoded as the "result" member of the response document.
	Result map[string]any `yaml:"result"`
	// Body, when set, is sent verbatim instead of a document built from Result.
	Body string `yaml:"body"`
}

// CatalogFixtures maps product codes to their canned responses.
type CatalogFixtures struct {
	Products map[string]CatalogFixture `yaml:"products"`
}

// LoadCatalogFixtures reads catalog fixtures from a YAML file.
func LoadCatalogFixtures(t *testing.T, path string) CatalogFixtures {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read catalog fixtures %s", path)

	var fixtures CatalogFixtures
	require.NoError(t, yaml.Unmarshal(data, &fixtures), "failed to parse catalog fixtures %s", path)

	return fixtures
}

// DefaultCatalogFixtures loads the fixtures shipped with this package.
func DefaultCatalogFixtures(t *testing.T) CatalogFixtures {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "unable to locate testutil package")

	return LoadCatalogFixtures(t, filepath.Join(filepath.Dir(file), "testdata", "catalog.yaml"))
}

// StubCatalog is an httptest server speaking the catalog's product detail API.
// Unknown product codes get a successful response with a null result.
type StubCatalog struct {
	Server *httptest.Server

	fixtures   CatalogFixtures
	queryParam string

	mu         sync.Mutex
	hits       map[string]int
	userAgents []string
}

// NewStubCatalog starts a stub catalog and closes it when the test completes.
func NewStubCatalog(t *testing.T, fixtures CatalogFixtures) *StubCatalog {
	t.Helper()

	stub := &StubCatalog{
		fixtures:   fixtures,
		queryParam: "productCode",
		hits:       make(map[string]int),
	}
	stub.Server = httptest.NewServer(http.HandlerFunc(stub.serve))
	t.Cleanup(stub.Server.Close)

	return stub
}

// URL returns the product detail endpoint of the stub.
func (s *StubCatalog) URL() string {
	return s.Server.URL + "/ftps/wm/product/detail"
}

// Hits returns how many times code was requested.
func (s *StubCatalog) Hits(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[code]
}

// UserAgents returns the User-Agent header of every request received.
func (s *StubCatalog) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

func (s *StubCatalog) serve(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get(s.queryParam)

	s.mu.Lock()
	s.hits[code]++
	s.userAgents = append(s.userAgents, r.Header.Get("User-Agent"))
	s.mu.Unlock()

	fixture, ok := s.fixtures.Products[code]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"success":true,"result":null}`))
		return
	}

	if fixture.Delay > 0 {
		select {
		case <-time.After(fixture.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := fixture.Status
	if status == 0 {
		status = http.StatusOK
	}

	body := []byte(fixture.Body)
	if fixture.Body == "" {
		var err error
		body, err = json.Marshal(map[string]any{
			"code":    status,
			"success": status < 300,
			"result":  fixture.Result,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
