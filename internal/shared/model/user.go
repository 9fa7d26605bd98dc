package model

import (
	"encoding/json"
	"time"
)

// UserType 用户类型（角色分类）
type UserType string

const (
	UserTypeAdmin        UserType = "Admin"
	UserTypeOrganization UserType = "Organization"
	UserTypeDonor        UserType = "Donor"
	UserTypeHospital     UserType = "Hospital"
)

// ParseUserType 校验并返回用户类型，区分大小写
func ParseUserType(s string) (UserType, bool) {
	switch t := UserType(s); t {
	case UserTypeAdmin, UserTypeOrganization, UserTypeDonor, UserTypeHospital:
		return t, true
	}
	return "", false
}

// 保留字段：注册时提交的同名 profile 字段会被丢弃
var reservedFields = map[string]bool{
	"_id":       true,
	"email":     true,
	"password":  true,
	"userType":  true,
	"createdAt": true,
	"updatedAt": true,
}

// IsReservedField 是否为 User 的保留字段
func IsReservedField(key string) bool {
	return reservedFields[key]
}

// User 用户
//
// Profile 保存注册时提交的其余字段（name、phone、address、website 等），
// JSON 序列化时平铺到顶层，MongoDB 中以内联字段存储。
type User struct {
	ID           string         `json:"_id" bson:"_id"`
	Email        string         `json:"email" bson:"email"`
	PasswordHash string         `json:"-" bson:"password"` // never expose in JSON
	UserType     UserType       `json:"userType" bson:"userType"`
	Profile      map[string]any `json:"-" bson:",inline"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// SanitizeProfile 去掉保留字段，空结果返回 nil
func SanitizeProfile(fields map[string]any) map[string]any {
	var out map[string]any
	for k, v := range fields {
		if IsReservedField(k) {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(fields))
		}
		out[k] = v
	}
	return out
}

// MarshalJSON 平铺 Profile，密码哈希永不输出
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Profile)+5)
	for k, v := range u.Profile {
		if !IsReservedField(k) {
			out[k] = v
		}
	}
	out["_id"] = u.ID
	out["email"] = u.Email
	out["userType"] = u.UserType
	out["createdAt"] = u.CreatedAt
	out["updatedAt"] = u.UpdatedAt
	return json.Marshal(out)
}

// UnmarshalJSON 与 MarshalJSON 对称：未知字段收集进 Profile
func (u *User) UnmarshalJSON(data []byte) error {
	var known struct {
		ID        string    `json:"_id"`
		Email     string    `json:"email"`
		UserType  UserType  `json:"userType"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User{
		ID:        known.ID,
		Email:     known.Email,
		UserType:  known.UserType,
		Profile:   SanitizeProfile(raw),
		CreatedAt: known.CreatedAt,
		UpdatedAt: known.UpdatedAt,
	}
	return nil
}
