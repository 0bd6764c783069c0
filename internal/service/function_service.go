package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/internal/repository"
	"github.com/kartverket/frisk-backend/pkg/log"
)

// FunctionService 定义了功能树业务逻辑的接口。
// 物化路径与同级序号这两个不变量由这里维护：任何节点的 path 恒等于
// 父节点 path 加 "." 加自身 ID；一次移动操作内兄弟序号不产生重复。
type FunctionService interface {
	GetFunctions(search string) ([]model.Function, error)
	GetFunction(id uint) (*model.Function, error)
	GetChildren(id uint) ([]model.Function, error)
	CreateFunction(req model.CreateFunctionRequest) (*model.Function, error)
	UpdateFunction(id uint, req model.UpdateFunctionRequest) (*model.Function, error)
	DeleteFunction(id uint) (bool, error)
	CleanupHistory(olderThanDays int) (int64, error)
}

type functionService struct {
	repo repository.FunctionRepository
}

// NewFunctionService 创建一个新的 FunctionService。
func NewFunctionService(repo repository.FunctionRepository) FunctionService {
	return &functionService{repo: repo}
}

// GetFunctions 检索功能节点，search 非空时按名称做子串过滤。
func (s *functionService) GetFunctions(search string) ([]model.Function, error) {
	return s.repo.FindAll(search)
}

// GetFunction 获取单个功能节点，不存在时返回 ErrNotFound。
func (s *functionService) GetFunction(id uint) (*model.Function, error) {
	f, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return f, nil
}

// GetChildren 返回直接子节点，按 orderIndex 升序。
func (s *functionService) GetChildren(id uint) ([]model.Function, error) {
	return s.repo.FindChildren(id)
}

// CreateFunction 把新节点追加为 parentId 的最后一个子节点。
// orderIndex = 现有子节点数，path = 父路径 + "." + 新 ID。
func (s *functionService) CreateFunction(req model.CreateFunctionRequest) (*model.Function, error) {
	if strings.TrimSpace(req.Name) == "" || req.ParentID == 0 {
		return nil, fmt.Errorf("%w: function name and parent id are required", ErrValidation)
	}

	var created *model.Function
	err := s.repo.WithTx(func(tx repository.FunctionRepository) error {
		parent, err := tx.FindByID(req.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("%w: parent function %d does not exist", ErrValidation, req.ParentID)
		}

		siblingCount, err := tx.CountChildren(req.ParentID)
		if err != nil {
			return err
		}

		parentID := req.ParentID
		f := model.Function{
			Name:        req.Name,
			Description: req.Description,
			ParentID:    &parentID,
			OrderIndex:  int(siblingCount),
		}
		if err := tx.Create(&f); err != nil {
			return err
		}

		// path 依赖服务端分配的 ID，插入后补写
		f.Path = childPath(parent.Path, f.ID)
		if err := tx.Save(&f); err != nil {
			return err
		}

		created = &f
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infow("function created", "id", created.ID, "parentId", req.ParentID, "path", created.Path)
	return created, nil
}

// UpdateFunction 更新节点的标量字段并执行重排/换父。
// 整个操作在一个事务里完成，避免并发重排下的半更新状态。
func (s *functionService) UpdateFunction(id uint, req model.UpdateFunctionRequest) (*model.Function, error) {
	var updated *model.Function
	err := s.repo.WithTx(func(tx repository.FunctionRepository) error {
		f, err := tx.FindByID(id)
		if err != nil {
			return err
		}
		if f == nil {
			return ErrNotFound
		}

		// 变更前的状态进历史表
		if err := tx.RecordHistory(f); err != nil {
			return err
		}

		switch {
		case req.ParentID != nil && f.ParentID == nil:
			// 根节点不可移动
			return fmt.Errorf("%w: the root function cannot be reparented", ErrValidation)

		case req.ParentID != nil && *req.ParentID != *f.ParentID:
			if err := s.reparent(tx, f, *req.ParentID, req.OrderIndex); err != nil {
				return err
			}

		case f.ParentID != nil && req.OrderIndex != f.OrderIndex:
			if err := s.reorder(tx, f, req.OrderIndex); err != nil {
				return err
			}
		}

		f.Name = req.Name
		f.Description = req.Description
		if err := tx.Save(f); err != nil {
			return err
		}

		updated = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// reorder 在同一父节点下移动：新旧序号之间的兄弟整体让位，
// 被移动的节点取请求的序号原值，越界序号不做收紧（last-write-wins）。
func (s *functionService) reorder(tx repository.FunctionRepository, f *model.Function, newIndex int) error {
	oldIndex := f.OrderIndex
	parentID := *f.ParentID

	if newIndex < oldIndex {
		if err := tx.ShiftSiblings(parentID, newIndex, oldIndex-1, +1); err != nil {
			return err
		}
	} else {
		if err := tx.ShiftSiblings(parentID, oldIndex+1, newIndex, -1); err != nil {
			return err
		}
	}

	f.OrderIndex = newIndex
	return nil
}

// reparent 把节点连同整个子树挂到新的父节点下。
// 旧兄弟组收拢空位；新兄弟组不做移动，节点直接取请求的序号。
func (s *functionService) reparent(tx repository.FunctionRepository, f *model.Function, newParentID uint, newIndex int) error {
	newParent, err := tx.FindByID(newParentID)
	if err != nil {
		return err
	}
	if newParent == nil {
		return fmt.Errorf("%w: parent function %d does not exist", ErrValidation, newParentID)
	}

	// 环检测：新父节点不能位于被移动节点的子树内
	if newParent.Path == f.Path || strings.HasPrefix(newParent.Path, f.Path+".") {
		return fmt.Errorf("%w: a function cannot be moved into its own subtree", ErrValidation)
	}

	if err := tx.ShiftSiblings(*f.ParentID, f.OrderIndex+1, -1, -1); err != nil {
		return err
	}

	oldPath := f.Path
	f.ParentID = &newParentID
	f.OrderIndex = newIndex
	f.Path = childPath(newParent.Path, f.ID)

	// 子树路径整体换前缀
	return tx.RebaseDescendantPaths(oldPath, f.Path)
}

// DeleteFunction 硬删除节点及其子树，返回目标节点是否存在。
// 剩余兄弟的序号不做重排，空洞是允许的。
func (s *functionService) DeleteFunction(id uint) (bool, error) {
	var deleted bool
	err := s.repo.WithTx(func(tx repository.FunctionRepository) error {
		f, err := tx.FindByID(id)
		if err != nil {
			return err
		}
		if f == nil {
			return nil
		}

		if err := tx.RecordHistory(f); err != nil {
			return err
		}

		deleted, err = tx.Delete(id)
		return err
	})
	return deleted, err
}

// CleanupHistory 删除早于保留期的历史记录，返回删除的行数。
func (s *functionService) CleanupHistory(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	return s.repo.DeleteHistoryOlderThan(cutoff)
}

// childPath 由父路径和子节点 ID 构造物化路径。
func childPath(parentPath string, id uint) string {
	return parentPath + "." + strconv.FormatUint(uint64(id), 10)
}
