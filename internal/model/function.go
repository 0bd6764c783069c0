// Package model 定义了与数据库表对应的 Go 结构体以及对外的 DTO。
package model

import "time"

// Function 对应于数据库中的 'functions' 表。
// 它是组织功能树中的一个节点，位置由物化路径 Path 和同级序号 OrderIndex 共同决定。
type Function struct {
	// ID 是功能节点的唯一标识符，由服务端分配，创建后不可变。
	ID uint `gorm:"primaryKey" json:"id"`
	// Name 是功能的显示名称，不允许为空。
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	// Description 提供了对该功能更详细的描述。
	Description *string `gorm:"type:text" json:"description"`
	// ParentID 指向父节点的 ID。使用指针以接受 NULL 值，只有隐式根节点为 NULL。
	ParentID *uint `gorm:"index" json:"parentId"`
	// Path 是物化的祖先路径，形如 "1.3.7"，由仓储层维护，客户端不可直接设置。
	Path string `gorm:"type:varchar(1024);not null;index" json:"path"`
	// OrderIndex 是节点在同一父节点下的展示顺序，从 0 开始。
	OrderIndex int `gorm:"not null;default:0" json:"orderIndex"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Function) TableName() string {
	return "functions"
}

// FunctionHistory 对应于 'functions_history' 表，记录功能节点变更前的快照。
// 由定时任务按保留期清理。
type FunctionHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FunctionID  uint      `gorm:"index;not null" json:"functionId"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	ParentID    *uint     `json:"parentId"`
	Path        string    `gorm:"type:varchar(1024);not null" json:"path"`
	OrderIndex  int       `gorm:"not null" json:"orderIndex"`
	ValidFrom   time.Time `gorm:"index;autoCreateTime" json:"validFrom"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FunctionHistory) TableName() string {
	return "functions_history"
}

// RootFunctionID 是隐式根节点的固定 ID，由启动时的种子数据保证存在。
const RootFunctionID uint = 1

// CreateFunctionRequest 是创建功能节点的请求体。
type CreateFunctionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentID    uint    `json:"parentId"`
}

// CreateFunctionWithMetadataRequest 允许在创建功能的同时附带一组元数据。
type CreateFunctionWithMetadataRequest struct {
	Function CreateFunctionRequest   `json:"function"`
	Metadata []CreateMetadataRequest `json:"metadata"`
}

// UpdateFunctionRequest 是更新/移动功能节点的请求体。
// ParentID 为 nil 表示停留在原父节点下（仅同级重排）。
type UpdateFunctionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentID    *uint   `json:"parentId"`
	Path        string  `json:"path"`
	OrderIndex  int     `json:"orderIndex"`
}
