package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tanmaysahni/splitbook/internal/activity"
	"github.com/tanmaysahni/splitbook/internal/notification"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
	ErrUnknownUser         = errors.New("user does not exist")
	ErrLastAdmin           = errors.New("cannot remove the last admin of a group")
	ErrAdminMustPromote    = errors.New("last admin must promote another member before leaving")
)

// Users answers user existence questions. Satisfied by the user repository.
type Users interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service handles group business logic
type Service struct {
	repo            *Repository
	users           Users
	activities      *activity.Service
	notifications   *notification.Service
	defaultCurrency string
}

// NewService creates a new group service
func NewService(repo *Repository, users Users, activities *activity.Service, notifications *notification.Service, defaultCurrency string) *Service {
	return &Service{
		repo:            repo,
		users:           users,
		activities:      activities,
		notifications:   notifications,
		defaultCurrency: defaultCurrency,
	}
}

// Create creates a new group with the creator as admin plus any listed members
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("group name is required")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	for _, id := range req.MemberIDs {
		exists, err := s.users.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %d", ErrUnknownUser, id)
		}
	}

	group, err := s.repo.Create(ctx, creatorID, req.Name, req.Description, currency, req.MemberIDs)
	if err != nil {
		return nil, err
	}

	s.activities.LogGroupCreated(ctx, creatorID, group.ID, group.Name, derefOrEmpty(group.Description), group.Currency)
	for _, id := range req.MemberIDs {
		if id != creatorID {
			s.activities.LogMemberAdded(ctx, creatorID, id, group.ID)
			s.notifications.NotifyAddedToGroup(ctx, id, group.Name, group.ID)
		}
	}

	return group, nil
}

// GetByID retrieves a group. Only members may see it.
func (s *Service) GetByID(ctx context.Context, id, callerID int64) (*Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	isMember, err := s.repo.IsMember(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAuthorized
	}

	return group, nil
}

// GetByIDWithMembers retrieves a group with all its members
func (s *Service) GetByIDWithMembers(ctx context.Context, id, callerID int64) (*Group, []*GroupMember, error) {
	group, err := s.GetByID(ctx, id, callerID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// Update modifies a group. Admins only.
func (s *Service) Update(ctx context.Context, id, callerID int64, req *UpdateGroupRequest) (*Group, error) {
	if err := s.requireAdmin(ctx, id, callerID); err != nil {
		return nil, err
	}

	group, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	s.activities.LogGroupUpdated(ctx, callerID, group.ID, group.Name)
	return group, nil
}

// Delete removes a group and all its expenses. Admins only.
func (s *Service) Delete(ctx context.Context, id, callerID int64) error {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}

	if err := s.requireAdmin(ctx, id, callerID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.activities.LogGroupDeleted(ctx, callerID, group.Name)
	return nil
}

// AddMember adds a user to a group. Admins only; no duplicates.
func (s *Service) AddMember(ctx context.Context, groupID, callerID int64, req *AddMemberRequest) (*GroupMember, error) {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, req.UserID)
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	member, err := s.repo.AddMember(ctx, groupID, req.UserID, false)
	if err != nil {
		return nil, err
	}

	s.activities.LogMemberAdded(ctx, callerID, req.UserID, groupID)
	if g, err := s.repo.GetByID(ctx, groupID); err == nil && g != nil {
		s.notifications.NotifyAddedToGroup(ctx, req.UserID, g.Name, groupID)
	}
	return member, nil
}

// GetMembers retrieves all members of a group. Members only.
func (s *Service) GetMembers(ctx context.Context, groupID, callerID int64) ([]*GroupMember, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	isMember, err := s.repo.IsMember(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAuthorized
	}

	return s.repo.GetMembers(ctx, groupID)
}

// RemoveMember removes a user from a group. Admins only, and the last admin
// can never be removed.
func (s *Service) RemoveMember(ctx context.Context, groupID, callerID, userID int64) error {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}

	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}

	if member.IsAdmin {
		admins, err := s.repo.CountAdmins(ctx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.activities.LogMemberRemoved(ctx, callerID, userID, groupID)
	if g, err := s.repo.GetByID(ctx, groupID); err == nil && g != nil {
		s.notifications.NotifyRemovedFromGroup(ctx, userID, g.Name, groupID)
	}
	return nil
}

// Leave removes the caller from a group. The last admin may only leave by
// deleting a group they are the sole member of; otherwise they must promote
// someone else first.
func (s *Service) Leave(ctx context.Context, groupID, userID int64) error {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}

	if member.IsAdmin {
		admins, err := s.repo.CountAdmins(ctx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			members, err := s.repo.CountMembers(ctx, groupID)
			if err != nil {
				return err
			}
			if members > 1 {
				return ErrAdminMustPromote
			}
			// Sole member leaving dissolves the group.
			group, err := s.repo.GetByID(ctx, groupID)
			if err != nil {
				return err
			}
			if group == nil {
				return ErrGroupNotFound
			}
			if err := s.repo.Delete(ctx, groupID); err != nil {
				return err
			}
			s.activities.LogGroupDeleted(ctx, userID, group.Name)
			return nil
		}
	}

	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.activities.LogMemberLeft(ctx, userID, groupID)
	return nil
}

// PromoteAdmin grants admin to an existing member. Admins only.
func (s *Service) PromoteAdmin(ctx context.Context, groupID, callerID, userID int64) (*GroupMember, error) {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	member, err := s.repo.SetAdmin(ctx, groupID, userID, true)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	s.activities.LogAdminChanged(ctx, callerID, userID, groupID)
	return member, nil
}

// IsMember reports whether a user belongs to a group
func (s *Service) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.repo.IsMember(ctx, groupID, userID)
}

// IsAdmin reports whether a user is an admin of a group
func (s *Service) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.repo.IsAdmin(ctx, groupID, userID)
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID int64) error {
	isAdmin, err := s.repo.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAuthorized
	}
	return nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
