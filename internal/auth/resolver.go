package auth

import (
	"context"
	"sort"

	groupentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// GroupSource lists the groups of a user with their permissions attached.
type GroupSource interface {
	ListForUser(ctx context.Context, userID int64) ([]groupentity.Group, error)
}

// PermissionSet is a set of permission codes.
type PermissionSet map[string]struct{}

func NewPermissionSet(codes ...string) PermissionSet {
	s := make(PermissionSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Contains reports whether every code of required is in s.
func (s PermissionSet) Contains(required PermissionSet) bool {
	for code := range required {
		if !s.Has(code) {
			return false
		}
	}
	return true
}

func (s PermissionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Resolver computes effective permission sets from group membership. Nothing
// is cached; every call reads the store.
type Resolver struct {
	groups GroupSource
}

func NewResolver(groups GroupSource) *Resolver { return &Resolver{groups: groups} }

// Resolve returns the union of permission codes over all groups of u.
func (r *Resolver) Resolve(ctx context.Context, u *entity.User) (PermissionSet, error) {
	groups, err := r.groups.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	set := PermissionSet{}
	for _, g := range groups {
		for _, p := range g.Permissions {
			set[p.Code] = struct{}{}
		}
	}
	return set, nil
}

// IsAuthorized is true for admins and for an empty required set without
// touching the store; otherwise required must be a subset of Resolve(u).
func (r *Resolver) IsAuthorized(ctx context.Context, u *entity.User, required PermissionSet) (bool, error) {
	if u.Admin || len(required) == 0 {
		return true, nil
	}
	have, err := r.Resolve(ctx, u)
	if err != nil {
		return false, err
	}
	return have.Contains(required), nil
}
