package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"tenancy/internal/tenant/models"
	"tenancy/internal/tenant/service"
	tenantstore "tenancy/internal/tenant/store/tenant"
	"tenancy/pkg/platform/httputil"
	"tenancy/pkg/platform/middleware/auth"
	"tenancy/pkg/testutil"
)

const signingKey = "handler-test-signing-key"

type capturingPublisher struct {
	mu     sync.Mutex
	events []models.TenantMemberInvited
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, event models.TenantMemberInvited) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// brokenAppendStore fails every append the way a lost database connection does.
type brokenAppendStore struct {
	*tenantstore.InMemory
	err error
}

func (s brokenAppendStore) AppendMember(context.Context, models.AppendCondition, *models.TenantMember) error {
	return s.err
}

type HandlerSuite struct {
	suite.Suite
	store     *tenantstore.InMemory
	publisher *capturingPublisher
	router    http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = tenantstore.NewInMemory()
	s.publisher = &capturingPublisher{}
	s.Require().NoError(s.store.CreateTenant(context.Background(), testutil.NewTenantBuilder().
		WithAcceptedMember(testutil.TestIDs.OwnerID, models.RoleOwner).
		WithAcceptedMember(testutil.TestIDs.DeveloperID, models.RoleDeveloper).
		Build()))

	s.router = s.newRouter(s.store)
}

func (s *HandlerSuite) newRouter(store service.TenantStore) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	inviter := service.NewInviteMemberHandler(store, s.publisher,
		service.WithLogger(logger),
		service.WithClock(func() time.Time { return testutil.FixedTime }),
	)

	r := chi.NewRouter()
	r.Use(auth.RequireAuth(auth.NewHS256Validator(signingKey), logger))
	New(inviter, logger).Register(r)
	return r
}

func (s *HandlerSuite) token(subject string) string {
	token, err := auth.Sign(signingKey, auth.NewClaims(subject, "Ada", "Lovelace", time.Now(), time.Hour))
	s.Require().NoError(err)
	return token
}

func (s *HandlerSuite) invite(tenant, subject, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tenants/"+tenant+"/members/invitations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(subject))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var resp httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func (s *HandlerSuite) TestInviteCreatesPendingMember() {
	w := s.invite("acme", string(testutil.TestIDs.OwnerID), `{"email":"New@X.com","role":"member","user_id":"auth0|new"}`)

	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp InvitedMemberResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.NotEmpty(resp.ID)
	s.Equal("new@x.com", resp.Email)
	s.Equal("MEMBER", resp.Role)
	s.Equal("PENDING", resp.Status)
	s.Equal("auth0|new", resp.UserID)
	s.Equal(string(testutil.TestIDs.OwnerID), resp.InvitedBy.ID)
	s.Equal("Ada", resp.InvitedBy.FirstName)
	s.Equal(testutil.FixedTime, resp.CreatedAt)

	s.Require().Len(s.publisher.events, 1)
	s.Equal("acme", s.publisher.events[0].TenantName)

	tenant, err := s.store.FindByNormalizedName(context.Background(), "acme", false)
	s.Require().NoError(err)
	s.Len(tenant.Members, 3)
}

func (s *HandlerSuite) TestTenantPathIsCaseInsensitive() {
	w := s.invite("ACME", string(testutil.TestIDs.OwnerID), `{"email":"new@x.com","role":"ADMIN"}`)
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (s *HandlerSuite) TestMissingTokenIs401() {
	w := s.invite("acme", "", `{"email":"new@x.com","role":"MEMBER"}`)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Empty(s.publisher.events)
}

func (s *HandlerSuite) TestBadRequests() {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing email", `{"role":"MEMBER"}`},
		{"malformed email", `{"email":"not-an-email","role":"MEMBER"}`},
		{"missing role", `{"email":"new@x.com"}`},
		{"unknown role", `{"email":"new@x.com","role":"SUPERUSER"}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.invite("acme", string(testutil.TestIDs.OwnerID), tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal("invalid_input", s.errorCode(w))
		})
	}
	s.Empty(s.publisher.events)
}

func (s *HandlerSuite) TestDeveloperIsForbidden() {
	w := s.invite("acme", string(testutil.TestIDs.DeveloperID), `{"email":"new@x.com","role":"MEMBER"}`)

	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("unauthorized", s.errorCode(w))
}

func (s *HandlerSuite) TestNonMemberIsForbidden() {
	w := s.invite("acme", "auth0|stranger", `{"email":"new@x.com","role":"MEMBER"}`)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerSuite) TestUnknownTenantIs404() {
	w := s.invite("globex", string(testutil.TestIDs.OwnerID), `{"email":"new@x.com","role":"MEMBER"}`)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", s.errorCode(w))
}

func (s *HandlerSuite) TestDuplicateIs409() {
	body := `{"email":"dup@x.com","role":"MEMBER"}`
	s.Require().Equal(http.StatusCreated, s.invite("acme", string(testutil.TestIDs.OwnerID), body).Code)

	w := s.invite("acme", string(testutil.TestIDs.OwnerID), body)

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("conflict", s.errorCode(w))
	s.Len(s.publisher.events, 1)
}

func (s *HandlerSuite) TestPublishFailureIs502() {
	s.publisher.err = errors.New("kafka: broker kafka-0.internal:9092 SASL auth failed")

	w := s.invite("acme", string(testutil.TestIDs.OwnerID), `{"email":"new@x.com","role":"MEMBER"}`)

	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("publish_failure", s.errorCode(w))
	s.NotContains(w.Body.String(), "kafka-0.internal")
	s.NotContains(w.Body.String(), "SASL")

	exists, err := s.store.MemberExists(context.Background(), models.MemberFilter{TenantName: "acme", Email: "new@x.com"})
	s.Require().NoError(err)
	s.True(exists, "member stays persisted when publication fails")
}

func (s *HandlerSuite) TestStorageFailureIs503WithoutCause() {
	s.router = s.newRouter(brokenAppendStore{
		InMemory: s.store,
		err:      errors.New(`append member: dial tcp 10.0.3.7:5432: password authentication failed for user "tenancy_rw"`),
	})

	w := s.invite("acme", string(testutil.TestIDs.OwnerID), `{"email":"new@x.com","role":"MEMBER"}`)

	s.Equal(http.StatusServiceUnavailable, w.Code)
	var resp httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("storage_failure", resp.Error)
	s.Equal("failed to append member", resp.ErrorDescription)
	s.NotContains(w.Body.String(), "10.0.3.7")
	s.NotContains(w.Body.String(), "tenancy_rw")
	s.Empty(s.publisher.events)
}
