package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"tenancy/pkg/requestcontext"
)

const testSigningKey = "test-signing-key-0123456789"

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingHandler struct {
	called  bool
	context context.Context
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareSuite struct {
	suite.Suite
	validator *MockTokenValidator
	next      *recordingHandler
	handler   http.Handler
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.validator = new(MockTokenValidator)
	s.next = &recordingHandler{}
	s.handler = RequireAuth(s.validator, slog.New(slog.DiscardHandler))(s.next)
}

func (s *AuthMiddlewareSuite) serve(header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tenants/acme/members/invitations", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) TestMissingHeader() {
	w := s.serve("")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"error":"unauthenticated","error_description":"Missing or invalid Authorization header"}`, w.Body.String())
	s.Equal(`Bearer realm="tenancy"`, w.Header().Get("WWW-Authenticate"))
	s.False(s.next.called)
}

func (s *AuthMiddlewareSuite) TestNonBearerScheme() {
	w := s.serve("Basic dXNlcjpwYXNz")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.next.called)
}

func (s *AuthMiddlewareSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "bad").Return(nil, errors.New("signature is invalid"))

	w := s.serve("Bearer bad")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.next.called)
	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareSuite) TestValidTokenPopulatesPrincipal() {
	claims := NewClaims("auth0|owner", "Ada", "Lovelace", time.Now(), time.Minute)
	s.validator.On("ValidateToken", "good").Return(&claims, nil)

	w := s.serve("Bearer good")

	s.Equal(http.StatusOK, w.Code)
	s.Require().True(s.next.called)
	p, ok := requestcontext.PrincipalFrom(s.next.context)
	s.Require().True(ok)
	s.Equal("auth0|owner", string(p.UserID))
	s.Equal("Ada", p.FirstName)
	s.Equal("Lovelace", p.LastName)
}

type HS256ValidatorSuite struct {
	suite.Suite
	now time.Time
}

func TestHS256ValidatorSuite(t *testing.T) {
	suite.Run(t, new(HS256ValidatorSuite))
}

func (s *HS256ValidatorSuite) SetupTest() {
	s.now = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func (s *HS256ValidatorSuite) validator(opts ...ValidatorOption) *HS256Validator {
	opts = append([]ValidatorOption{WithClock(func() time.Time { return s.now })}, opts...)
	return NewHS256Validator(testSigningKey, opts...)
}

func (s *HS256ValidatorSuite) sign(key string, claims Claims) string {
	token, err := Sign(key, claims)
	s.Require().NoError(err)
	return token
}

func (s *HS256ValidatorSuite) TestRoundTrip() {
	token := s.sign(testSigningKey, NewClaims("u1", "Ada", "Lovelace", s.now, time.Hour))

	claims, err := s.validator().ValidateToken(token)

	s.Require().NoError(err)
	s.Equal("u1", claims.Subject)
	s.Equal("Ada", claims.GivenName)
}

func (s *HS256ValidatorSuite) TestWrongKey() {
	token := s.sign("another-key-0123456789", NewClaims("u1", "", "", s.now, time.Hour))

	_, err := s.validator().ValidateToken(token)
	s.Error(err)
}

func (s *HS256ValidatorSuite) TestExpired() {
	token := s.sign(testSigningKey, NewClaims("u1", "", "", s.now.Add(-2*time.Hour), time.Hour))

	_, err := s.validator().ValidateToken(token)
	s.Error(err)
}

func (s *HS256ValidatorSuite) TestMissingSubject() {
	token := s.sign(testSigningKey, NewClaims("", "", "", s.now, time.Hour))

	_, err := s.validator().ValidateToken(token)
	s.ErrorContains(err, "no subject")
}

func (s *HS256ValidatorSuite) TestAudienceMismatch() {
	token := s.sign(testSigningKey, NewClaims("u1", "", "", s.now, time.Hour))

	_, err := s.validator(WithAudience("tenancy-api")).ValidateToken(token)
	s.Error(err)
}
