package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/kartverket/frisk-backend/internal/model"
)

// MetadataRepository 接口定义了功能元数据的数据操作方法。
// 注意 'key' 在 MySQL 中是保留字，相关查询一律使用反引号。
type MetadataRepository interface {
	// WithTx 在一个数据库事务中执行 fn，fn 返回错误时整体回滚。
	WithTx(fn func(MetadataRepository) error) error

	FindByID(id uint) (*model.FunctionMetadataEntry, error)
	// Find 按给定的过滤条件检索元数据，条件之间为 AND 关系；
	// 过滤条件是否齐全由 service 层校验。
	Find(functionID *uint, key, value *string) ([]model.FunctionMetadataEntry, error)
	FindAllEntries() ([]model.FunctionMetadataEntry, error)
	FindKeys(search string) ([]string, error)

	// EnsureKey 在键词表中注册 key（已存在则复用），返回键的 ID。
	EnsureKey(key string) (uint, error)
	Create(m *model.FunctionMetadata) error
	UpdateValue(id uint, value string) (bool, error)
	Delete(id uint) (bool, error)

	// FindIndicators 返回路径与 path 互为祖先或后代（含相等）、
	// 且带有匹配元数据的功能节点。
	FindIndicators(key string, value *string, path string) ([]model.Function, error)
}

type metadataRepository struct {
	db *gorm.DB
}

// NewMetadataRepository 创建一个新的 MetadataRepository 实例。
func NewMetadataRepository(db *gorm.DB) MetadataRepository {
	return &metadataRepository{db: db}
}

// WithTx 在事务中执行 fn，传入一个绑定到该事务的仓储。
func (r *metadataRepository) WithTx(fn func(MetadataRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&metadataRepository{db: tx})
	})
}

// entryQuery 构造连接键词表之后的元数据视图查询。
func (r *metadataRepository) entryQuery() *gorm.DB {
	return r.db.
		Table("function_metadata AS fm").
		Select("fm.id, fm.function_id, fmk.`key` AS `key`, fm.value").
		Joins("INNER JOIN function_metadata_keys AS fmk ON fm.key_id = fmk.id")
}

// FindByID 根据 ID 查找一条元数据，不存在时返回 (nil, nil)。
func (r *metadataRepository) FindByID(id uint) (*model.FunctionMetadataEntry, error) {
	var entry model.FunctionMetadataEntry
	err := r.entryQuery().Where("fm.id = ?", id).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Find 按过滤条件检索元数据。
func (r *metadataRepository) Find(functionID *uint, key, value *string) ([]model.FunctionMetadataEntry, error) {
	query := r.entryQuery()
	if functionID != nil {
		query = query.Where("fm.function_id = ?", *functionID)
	}
	if key != nil {
		query = query.Where("fmk.`key` = ?", strings.ToLower(*key))
	}
	if value != nil {
		query = query.Where("fm.value = ?", *value)
	}

	var entries []model.FunctionMetadataEntry
	err := query.Scan(&entries).Error
	return entries, err
}

// FindAllEntries 返回全部元数据条目，供数据导出使用。
func (r *metadataRepository) FindAllEntries() ([]model.FunctionMetadataEntry, error) {
	var entries []model.FunctionMetadataEntry
	err := r.entryQuery().Scan(&entries).Error
	return entries, err
}

// FindKeys 返回已注册的键；search 非空时做大小写不敏感的子串匹配。
func (r *metadataRepository) FindKeys(search string) ([]string, error) {
	query := r.db.Model(&model.MetadataKey{})
	if search != "" {
		query = query.Where("LOWER(`key`) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var keys []string
	err := query.Pluck("`key`", &keys).Error
	return keys, err
}

// EnsureKey 注册（或复用）一个元数据键。
func (r *metadataRepository) EnsureKey(key string) (uint, error) {
	metadataKey := model.MetadataKey{Key: key}
	err := r.db.Where("`key` = ?", key).FirstOrCreate(&metadataKey).Error
	if err != nil {
		return 0, err
	}
	return metadataKey.ID, nil
}

// Create 插入一条元数据记录。
func (r *metadataRepository) Create(m *model.FunctionMetadata) error {
	return r.db.Create(m).Error
}

// UpdateValue 只更新元数据的值，返回是否有行受影响。
func (r *metadataRepository) UpdateValue(id uint, value string) (bool, error) {
	result := r.db.Model(&model.FunctionMetadata{}).
		Where("id = ?", id).
		Update("value", value)
	return result.RowsAffected > 0, result.Error
}

// Delete 根据 ID 删除一条元数据记录。
func (r *metadataRepository) Delete(id uint) (bool, error) {
	result := r.db.Delete(&model.FunctionMetadata{}, id)
	return result.RowsAffected > 0, result.Error
}

// FindIndicators 沿祖先或后代方向查找带有指定元数据的功能节点。
// 路径包含测试：f.path 等于 path、是 path 的前缀（祖先）或以 path 为前缀（后代）。
func (r *metadataRepository) FindIndicators(key string, value *string, path string) ([]model.Function, error) {
	query := r.db.
		Table("functions AS f").
		Select("DISTINCT f.*").
		Joins("INNER JOIN function_metadata AS fm ON f.id = fm.function_id").
		Joins("INNER JOIN function_metadata_keys AS fmk ON fm.key_id = fmk.id").
		Where("fmk.`key` = ?", strings.ToLower(key)).
		Where("(f.path = ? OR f.path LIKE ? OR ? LIKE CONCAT(f.path, '.%'))", path, path+".%", path)
	if value != nil {
		query = query.Where("fm.value = ?", *value)
	}

	var functions []model.Function
	err := query.Scan(&functions).Error
	return functions, err
}
