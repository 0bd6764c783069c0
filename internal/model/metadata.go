package model

// TeamMetadataKey 是唯一带有特殊语义的元数据键：
// 它的值必须是外部目录中存在的组 ID，并参与访问控制。
const TeamMetadataKey = "team"

// MetadataKey 对应于 'function_metadata_keys' 表。
// 键词表是开放的：首次使用时注册，冲突时复用。
type MetadataKey struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	Key string `gorm:"type:varchar(255);not null;uniqueIndex" json:"key"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (MetadataKey) TableName() string {
	return "function_metadata_keys"
}

// FunctionMetadata 对应于 'function_metadata' 表，
// 是附着在某个功能节点上的一条键值对（键以外键引用键词表）。
type FunctionMetadata struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	FunctionID uint   `gorm:"index;not null" json:"functionId"`
	KeyID      uint   `gorm:"index;not null" json:"keyId"`
	Value      string `gorm:"type:text;not null" json:"value"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FunctionMetadata) TableName() string {
	return "function_metadata"
}

// FunctionMetadataEntry 是元数据的对外视图，已将 key_id 连接为键名。
type FunctionMetadataEntry struct {
	ID         uint   `json:"id"`
	FunctionID uint   `json:"functionId"`
	Key        string `json:"key"`
	Value      string `json:"value"`
}

// CreateMetadataRequest 是为功能添加元数据的请求体。
type CreateMetadataRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UpdateMetadataRequest 是更新元数据值的请求体，只允许改值。
type UpdateMetadataRequest struct {
	Value string `json:"value"`
}
