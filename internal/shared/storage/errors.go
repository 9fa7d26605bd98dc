// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（repository/mongostore）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows / mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（重复 ID 或重复 email）
	ErrDuplicate = errors.New("duplicate: entity already exists")

	// ErrConstraint 其他约束校验失败（NOT NULL、CHECK、文档校验等）
	ErrConstraint = errors.New("constraint violation")
)
