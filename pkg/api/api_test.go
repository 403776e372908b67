package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lc/ruleconf/internal/baseline"
	"github.com/lc/ruleconf/internal/config"
	"github.com/lc/ruleconf/internal/filesys"
	"github.com/lc/ruleconf/internal/mount"
	"github.com/lc/ruleconf/internal/resolve"
	"github.com/lc/ruleconf/internal/resource"
	"github.com/lc/ruleconf/pkg/api"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(opts resolve.Options) (config.Config, error) {
	args := m.Called(opts)
	var c config.Config
	if args.Get(0) != nil {
		c = args.Get(0).(config.Config)
	}
	return c, args.Error(1)
}

type ServerTestSuite struct {
	suite.Suite
	resolver *mockResolver
	handler  http.Handler
	resolved config.Config
}

func (s *ServerTestSuite) SetupTest() {
	var err error
	s.resolved, err = config.Parse("detekt.yml", []byte(`
style:
  MagicNumber:
    active: false
    ignoreNumbers: ['0']
complexity:
  LongMethod:
    threshold: 30
`))
	s.Require().NoError(err)

	s.resolver = new(mockResolver)
	s.handler = api.New(s.resolver, mount.NewTable(mount.ZipOpener{})).Handler()
}

func (s *ServerTestSuite) TearDownTest() {
	s.resolver.AssertExpectations(s.T())
}

func (s *ServerTestSuite) post(req api.ResolveRequest) *httptest.ResponseRecorder {
	body, err := json.Marshal(req)
	s.Require().NoError(err)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewReader(body)))
	return rec
}

func (s *ServerTestSuite) TestResolveAllValues() {
	// Given a resolver producing a configuration
	req := api.ResolveRequest{ConfigPaths: []string{"/etc/detekt.yml"}, FailFast: true}
	s.resolver.On("Resolve", resolve.Options{
		ConfigPaths: []string{"/etc/detekt.yml"},
		FailFast:    true,
	}).Return(s.resolved, nil).Once()

	// When resolving through the API
	rec := s.post(req)

	// Then every leaf is returned with the fingerprint
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))

	var resp api.ResolveResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(map[string]any{
		"style>MagicNumber>active":        false,
		"style>MagicNumber>ignoreNumbers": []any{"0"},
		"complexity>LongMethod>threshold": float64(30),
	}, resp.Values)
	s.Equal(config.Fingerprint(s.resolved), resp.Fingerprint)
}

func (s *ServerTestSuite) TestResolveSelectedKeys() {
	s.resolver.On("Resolve", mock.Anything).Return(s.resolved, nil).Once()

	rec := s.post(api.ResolveRequest{Keys: []string{"complexity>LongMethod>threshold", "naming>active"}})

	s.Require().Equal(http.StatusOK, rec.Code)
	var resp api.ResolveResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(map[string]any{"complexity>LongMethod>threshold": float64(30)}, resp.Values)
}

func (s *ServerTestSuite) TestResolveErrorStatus() {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "missing source", err: fmt.Errorf("%w: a.yml", config.ErrSourceNotFound), status: http.StatusNotFound},
		{name: "unknown resource", err: fmt.Errorf("%w: a.yml", resource.ErrEmptyResourceSet), status: http.StatusNotFound},
		{name: "invalid document", err: fmt.Errorf("%w: decoding a.yml", config.ErrInvalidConfig), status: http.StatusUnprocessableEntity},
		{name: "broken baseline", err: baseline.ErrBaselineLoad, status: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.resolver.On("Resolve", mock.Anything).Return(nil, tc.err).Once()

			rec := s.post(api.ResolveRequest{ConfigPaths: []string{"a.yml"}})

			s.Equal(tc.status, rec.Code)
			s.Contains(rec.Body.String(), tc.err.Error())
		})
	}
}

func (s *ServerTestSuite) TestResolveRejectsBadRequests() {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/resolve", nil))
	s.Equal(http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewBufferString("{")))
	s.Equal(http.StatusBadRequest, rec.Code)

	s.resolver.AssertNotCalled(s.T(), "Resolve", mock.Anything)
}

func (s *ServerTestSuite) TestStatus() {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	s.Require().Equal(http.StatusOK, rec.Code)
	var st api.StatusResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &st))
	s.Equal(baseline.Version, st.BaselineVersion)
	s.Equal(mount.Stats{}, st.Mounts)
	s.NotEmpty(st.Version)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/status", nil))
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (s *ServerTestSuite) TestRequestOptions() {
	req := api.ResolveRequest{
		ConfigPaths:            []string{"a.yml"},
		ConfigResources:        []string{"b.yml"},
		Classpath:              []string{"/lib/rules.jar"},
		BuildUponDefaultConfig: true,
		AutoCorrect:            true,
	}

	s.Equal(resolve.Options{
		ConfigPaths:       []string{"a.yml"},
		ConfigResources:   []string{"b.yml"},
		Classpath:         []string{"/lib/rules.jar"},
		BuildUponBaseline: true,
		AutoCorrect:       true,
	}, req.Options())
}

func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestResolveUsesRequestClasspath(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "rules.jar")
	writeArchive(t, jar, map[string]string{"detekt.yml": "style:\n  MagicNumber:\n    active: false\n"})

	// The daemon's own classpath is empty; only the request names the archive.
	osfs := filesys.OS()
	mounts := mount.NewTable(mount.ZipOpener{})
	t.Cleanup(func() { _ = mounts.Close() })
	res := resolve.New(
		resolve.WithBaseline(baseline.FromBytes([]byte("style:\n  active: true\n"))),
		resolve.WithResources(resource.NewLocator(osfs), resource.NewLoader(mounts, osfs)),
	)
	handler := api.New(res, mounts).Handler()

	resolveOnce := func(req api.ResolveRequest) *httptest.ResponseRecorder {
		body, err := json.Marshal(req)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewReader(body)))
		return rec
	}

	rec := resolveOnce(api.ResolveRequest{
		ConfigResources: []string{"detekt.yml"},
		Classpath:       []string{jar},
		AutoCorrect:     true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.ResolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, map[string]any{"style>MagicNumber>active": false}, resp.Values)

	// Mounts made for one request serve the next.
	rec = resolveOnce(api.ResolveRequest{ConfigResources: []string{"detekt.yml"}, Classpath: []string{jar}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, mount.Stats{Mounts: 1, Created: 1, Reused: 1}, mounts.Stats())

	rec = resolveOnce(api.ResolveRequest{ConfigResources: []string{"detekt.yml"}})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
