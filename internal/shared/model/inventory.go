package model

import (
	"fmt"
	"time"
)

// InventoryType 库存流水类型
type InventoryType string

const (
	InventoryTypeDonationIn  InventoryType = "Donation-In"
	InventoryTypeDonationOut InventoryType = "Donation-Out"
)

// InventoryField 库存流水中可用于过滤/分组的引用字段
// 取值同时是 BSON 字段名与 SQL 列名
type InventoryField string

const (
	InventoryFieldOrganization InventoryField = "organization"
	InventoryFieldDonor        InventoryField = "donor"
	InventoryFieldHospital     InventoryField = "hospital"
)

// Valid 是否为已知字段
func (f InventoryField) Valid() bool {
	switch f {
	case InventoryFieldOrganization, InventoryFieldDonor, InventoryFieldHospital:
		return true
	}
	return false
}

// InventoryEntry 库存流水（由库存子系统写入，本服务只读）
//
// Donation-In 记录 Donor，Donation-Out 记录 Hospital。
type InventoryEntry struct {
	ID            string        `json:"_id" bson:"_id"`
	InventoryType InventoryType `json:"inventoryType" bson:"inventoryType"`
	BloodGroup    string        `json:"bloodGroup,omitempty" bson:"bloodGroup,omitempty"`
	Quantity      int           `json:"quantity" bson:"quantity"`
	Organization  string        `json:"organization" bson:"organization"`
	Donor         *string       `json:"donor,omitempty" bson:"donor,omitempty"`
	Hospital      *string       `json:"hospital,omitempty" bson:"hospital,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// DistinctQuery 去重对手方查询
//
// 过滤 InventoryType 且 MatchField = MatchValue 的流水，按 GroupField 去重。
type DistinctQuery struct {
	InventoryType InventoryType
	MatchField    InventoryField
	MatchValue    string
	GroupField    InventoryField
}

// Validate 校验查询字段，防止非法列名拼入 SQL
func (q DistinctQuery) Validate() error {
	if !q.MatchField.Valid() {
		return fmt.Errorf("invalid match field %q", q.MatchField)
	}
	if !q.GroupField.Valid() {
		return fmt.Errorf("invalid group field %q", q.GroupField)
	}
	if q.InventoryType == "" {
		return fmt.Errorf("inventory type is required")
	}
	return nil
}

// CounterpartyEntry 报表结果行
// ID 为 nil 表示历史数据缺失对手方字段；User 为 nil 表示该 ID 未能解析到用户
type CounterpartyEntry struct {
	ID   *string `json:"_id"`
	User *User   `json:"user"`
}
