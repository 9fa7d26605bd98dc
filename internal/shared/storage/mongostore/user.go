package mongostore

import (
	"context"

	"bloodbank-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// userDocument users 集合中的文档
//
// Profile 以内联字段存储；保留字段在写入前已由 model.SanitizeProfile 剔除。
func userDocument(u *model.User) bson.D {
	doc := bson.D{
		{Key: "_id", Value: u.ID},
		{Key: "email", Value: u.Email},
		{Key: "password", Value: u.PasswordHash},
		{Key: "userType", Value: string(u.UserType)},
	}
	for k, v := range model.SanitizeProfile(u.Profile) {
		doc = append(doc, bson.E{Key: k, Value: v})
	}
	return append(doc,
		bson.E{Key: "createdAt", Value: u.CreatedAt},
		bson.E{Key: "updatedAt", Value: u.UpdatedAt},
	)
}

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), userDocument(user))
}

// GetUserByEmail 通过邮箱查找用户（区分大小写）
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// GetUsersByIDs 批量查询用户
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	return findMany[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}
