// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（默认）, repository/（postgres、sqlite）
//   - 初始化时通过 driver.Open 按配置选择实现并注入
package storage

import (
	"context"

	"bloodbank-admin/internal/shared/model"
)

// UserStore 用户存储接口
//
// GetUserByEmail / GetUserByID 在用户不存在时返回 (nil, nil)。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUsersByIDs 批量查询，结果顺序不保证，不存在的 ID 被忽略
	GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error)
}

// InventoryStore 库存流水存储接口（只读报表 + 种子数据写入）
type InventoryStore interface {
	CreateInventoryEntry(ctx context.Context, entry *model.InventoryEntry) error
	// DistinctCounterparties 返回去重后的对手方 ID
	// 缺失对手方字段的流水归为一个 nil 分组；排序：nil 在前，其余按 ID 升序
	DistinctCounterparties(ctx context.Context, q model.DistinctQuery) ([]*string, error)
}

// PersistentStore 持久化存储完整接口
type PersistentStore interface {
	UserStore
	InventoryStore

	Ping(ctx context.Context) error
	Close() error
}
