// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kartverket/frisk-backend/internal/model"
)

// FunctionRepository 接口定义了功能树的数据操作方法。
// 树结构的业务算法（插入、重排、换父）在 service 层实现，这里只提供
// 原子化的行级操作；WithTx 保证一次移动中的多条语句落在同一个事务里。
type FunctionRepository interface {
	// WithTx 在一个数据库事务中执行 fn，fn 返回错误时整体回滚。
	WithTx(fn func(FunctionRepository) error) error

	FindAll(search string) ([]model.Function, error)
	FindByID(id uint) (*model.Function, error)
	FindChildren(parentID uint) ([]model.Function, error)
	CountChildren(parentID uint) (int64, error)
	FindDescendants(path string) ([]model.Function, error)

	Create(f *model.Function) error
	Save(f *model.Function) error
	// Delete 删除节点及其整个子树（含元数据、依赖边和历史记录），
	// 返回目标节点本身是否存在。
	Delete(id uint) (bool, error)

	// ShiftSiblings 将 parentID 下 orderIndex 在 [from, to] 闭区间内的兄弟
	// 节点整体偏移 delta；to 为负表示不设上界。
	ShiftSiblings(parentID uint, from, to, delta int) error
	// RebaseDescendantPaths 将所有以 oldPath 为祖先的节点路径前缀替换为 newPath。
	RebaseDescendantPaths(oldPath, newPath string) error

	RecordHistory(f *model.Function) error
	DeleteHistoryOlderThan(cutoff time.Time) (int64, error)
}

type functionRepository struct {
	db *gorm.DB
}

// NewFunctionRepository 创建一个新的 FunctionRepository 实例。
func NewFunctionRepository(db *gorm.DB) FunctionRepository {
	return &functionRepository{db: db}
}

// WithTx 在事务中执行 fn，传入一个绑定到该事务的仓储。
func (r *functionRepository) WithTx(fn func(FunctionRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&functionRepository{db: tx})
	})
}

// FindAll 检索所有功能节点；search 非空时对 name 做大小写不敏感的子串匹配。
func (r *functionRepository) FindAll(search string) ([]model.Function, error) {
	var functions []model.Function
	query := r.db
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	err := query.Find(&functions).Error
	return functions, err
}

// FindByID 根据 ID 查找一个功能节点，不存在时返回 (nil, nil)。
func (r *functionRepository) FindByID(id uint) (*model.Function, error) {
	var f model.Function
	err := r.db.First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindChildren 返回 parentID 的直接子节点，按 orderIndex 升序。
func (r *functionRepository) FindChildren(parentID uint) ([]model.Function, error) {
	var children []model.Function
	err := r.db.
		Where("parent_id = ?", parentID).
		Order("order_index ASC").
		Find(&children).Error
	return children, err
}

// CountChildren 返回 parentID 的直接子节点数量。
func (r *functionRepository) CountChildren(parentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Function{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error
	return count, err
}

// FindDescendants 返回 path 的所有后代节点（不含自身）。
func (r *functionRepository) FindDescendants(path string) ([]model.Function, error) {
	var descendants []model.Function
	err := r.db.
		Where("path LIKE ?", path+".%").
		Find(&descendants).Error
	return descendants, err
}

// Create 在数据库中插入一个新的功能节点记录。
func (r *functionRepository) Create(f *model.Function) error {
	return r.db.Create(f).Error
}

// Save 更新数据库中一个已存在的功能节点记录。
func (r *functionRepository) Save(f *model.Function) error {
	return r.db.Save(f).Error
}

// Delete 删除节点及其整个子树，连带清理附属数据。
// 兄弟节点的 orderIndex 不做重排，留下的空洞是允许的。
func (r *functionRepository) Delete(id uint) (bool, error) {
	var deleted bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var target model.Function
		if err := tx.First(&target, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var subtree []model.Function
		if err := tx.Where("path = ? OR path LIKE ?", target.Path, target.Path+".%").
			Find(&subtree).Error; err != nil {
			return err
		}

		ids := make([]uint, 0, len(subtree))
		for _, f := range subtree {
			ids = append(ids, f.ID)
		}

		if err := tx.Where("function_id IN ?", ids).
			Delete(&model.FunctionMetadata{}).Error; err != nil {
			return err
		}
		if err := tx.Where("function_id IN ? OR dependency_function_id IN ?", ids, ids).
			Delete(&model.FunctionDependency{}).Error; err != nil {
			return err
		}
		if err := tx.Where("function_id IN ?", ids).
			Delete(&model.FunctionHistory{}).Error; err != nil {
			return err
		}

		result := tx.Where("id IN ?", ids).Delete(&model.Function{})
		if result.Error != nil {
			return result.Error
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// ShiftSiblings 对一段兄弟区间做 orderIndex 偏移。
func (r *functionRepository) ShiftSiblings(parentID uint, from, to, delta int) error {
	query := r.db.Model(&model.Function{}).
		Where("parent_id = ? AND order_index >= ?", parentID, from)
	if to >= 0 {
		query = query.Where("order_index <= ?", to)
	}
	return query.Update("order_index", gorm.Expr("order_index + ?", delta)).Error
}

// RebaseDescendantPaths 用一条 UPDATE 重写整个子树的路径前缀。
func (r *functionRepository) RebaseDescendantPaths(oldPath, newPath string) error {
	return r.db.Model(&model.Function{}).
		Where("path LIKE ?", oldPath+".%").
		Update("path", gorm.Expr("CONCAT(?, SUBSTRING(path, ?))", newPath, len(oldPath)+1)).
		Error
}

// RecordHistory 把节点当前状态写入 functions_history。
func (r *functionRepository) RecordHistory(f *model.Function) error {
	entry := model.FunctionHistory{
		FunctionID:  f.ID,
		Name:        f.Name,
		Description: f.Description,
		ParentID:    f.ParentID,
		Path:        f.Path,
		OrderIndex:  f.OrderIndex,
		ValidFrom:   time.Now(),
	}
	return r.db.Create(&entry).Error
}

// DeleteHistoryOlderThan 删除早于 cutoff 的历史记录，返回删除的行数。
func (r *functionRepository) DeleteHistoryOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("valid_from < ?", cutoff).Delete(&model.FunctionHistory{})
	return result.RowsAffected, result.Error
}
