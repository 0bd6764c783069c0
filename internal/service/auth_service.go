package service

import (
	"context"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/pkg/log"
)

// AuthService 定义了基于团队归属的授权解析接口。
// 规则：节点自身没有 "team" 元数据时对所有人开放；有一个或多个 team 值时，
// 仅对属于其中至少一个组的用户开放。目录故障一律按拒绝处理（fail closed）。
type AuthService interface {
	HasFunctionAccess(ctx context.Context, userID string, functionID uint) bool
	HasMetadataAccess(ctx context.Context, userID string, metadataID uint) bool
	HasSuperUserAccess(ctx context.Context, userID string) bool
}

type authService struct {
	superUserGroupID string
	metadata         MetadataService
	microsoft        MicrosoftService
}

// NewAuthService 创建一个新的 AuthService。
// superUserGroupID 为空字符串时，超级用户旁路永远不生效。
func NewAuthService(superUserGroupID string, metadata MetadataService, microsoft MicrosoftService) AuthService {
	return &authService{
		superUserGroupID: superUserGroupID,
		metadata:         metadata,
		microsoft:        microsoft,
	}
}

// HasFunctionAccess 判断用户能否修改指定功能节点。
// 只看节点自身的 team 元数据，不沿祖先链继承。
func (s *authService) HasFunctionAccess(ctx context.Context, userID string, functionID uint) bool {
	if userID == "" {
		return false
	}

	key := model.TeamMetadataKey
	teams, err := s.metadata.GetMetadata(&functionID, &key, nil)
	if err != nil {
		log.Warnf("denying access to function %d: metadata lookup failed: %v", functionID, err)
		return false
	}
	if len(teams) == 0 {
		return true
	}

	for _, team := range teams {
		if s.hasTeamAccess(ctx, userID, team.Value) {
			return true
		}
	}
	return false
}

// HasMetadataAccess 解析元数据所属的功能节点后委托给 HasFunctionAccess。
func (s *authService) HasMetadataAccess(ctx context.Context, userID string, metadataID uint) bool {
	entry, err := s.metadata.GetMetadataByID(metadataID)
	if err != nil {
		return false
	}
	return s.HasFunctionAccess(ctx, userID, entry.FunctionID)
}

// HasSuperUserAccess 检查用户是否属于配置的超级用户组。
func (s *authService) HasSuperUserAccess(ctx context.Context, userID string) bool {
	if s.superUserGroupID == "" || userID == "" {
		return false
	}
	return s.hasTeamAccess(ctx, userID, s.superUserGroupID)
}

// hasTeamAccess 判断用户的组成员关系中是否包含 teamID。
func (s *authService) hasTeamAccess(ctx context.Context, userID, teamID string) bool {
	userTeams, err := s.microsoft.GetMemberGroups(ctx, userID)
	if err != nil {
		log.Warnf("denying access for user %s: directory lookup failed: %v", userID, err)
		return false
	}
	for _, team := range userTeams {
		if team.ID == teamID {
			return true
		}
	}
	return false
}
