package tenant

import (
	"context"
	"fmt"
	"sync"

	"tenancy/internal/sentinel"
	"tenancy/internal/tenant/models"
)

// InMemory stores tenants in memory for tests and the demo environment.
// Tenants are keyed by normalized name.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[string]*models.Tenant
}

// NewInMemory creates an in-memory tenant store.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[string]*models.Tenant),
	}
}

// CreateTenant stores t, including any members it already carries.
func (s *InMemory) CreateTenant(_ context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tenants[t.NormalizedName]; exists {
		return fmt.Errorf("tenant name must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	s.tenants[t.NormalizedName] = cloneTenant(t, false)
	return nil
}

// MemberExists reports whether any member matches filter.
func (s *InMemory) MemberExists(_ context.Context, filter models.MemberFilter) (bool, error) {
	if filter.IsEmpty() {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if filter.TenantName != "" {
		t, ok := s.tenants[filter.TenantName]
		return ok && t.HasMember(filter.UserID, filter.Email), nil
	}
	for _, t := range s.tenants {
		if t.HasMember(filter.UserID, filter.Email) {
			return true, nil
		}
	}
	return false, nil
}

// FindByNormalizedName returns a copy of the tenant. A lazy load leaves
// Members nil.
func (s *InMemory) FindByNormalizedName(_ context.Context, name string, lazy bool) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTenant(t, lazy), nil
}

// AppendMember adds member to the end of the roster. The uniqueness check
// and the append happen under one lock.
func (s *InMemory) AppendMember(_ context.Context, cond models.AppendCondition, member *models.TenantMember) error {
	if member == nil {
		return fmt.Errorf("member is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[cond.TenantName]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.HasMember(member.UserID, member.Email) {
		return fmt.Errorf("member must be unique within tenant: %w", sentinel.ErrAlreadyUsed)
	}
	m := *member
	t.Members = append(t.Members, &m)
	t.UpdatedAt = member.UpdatedAt
	return nil
}

func cloneTenant(t *models.Tenant, lazy bool) *models.Tenant {
	out := *t
	out.Members = nil
	if lazy {
		return &out
	}
	out.Members = make([]*models.TenantMember, 0, len(t.Members))
	for _, m := range t.Members {
		cp := *m
		out.Members = append(out.Members, &cp)
	}
	return &out
}
