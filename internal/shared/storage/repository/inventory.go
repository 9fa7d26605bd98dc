package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bloodbank-admin/internal/shared/model"
)

// CreateInventoryEntry 写入库存流水
func (s *Store) CreateInventoryEntry(ctx context.Context, e *model.InventoryEntry) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO inventories (id, inventory_type, blood_group, quantity, organization, donor, hospital, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		e.ID, string(e.InventoryType), e.BloodGroup, e.Quantity, e.Organization,
		e.Donor, e.Hospital, e.CreatedAt, e.UpdatedAt,
	)
	return s.wrapError(err)
}

// DistinctCounterparties 按 GroupField 分组返回去重后的对手方 ID
//
// 列名来自 model.InventoryField 白名单（Validate 已校验），可安全拼接。
func (s *Store) DistinctCounterparties(ctx context.Context, q model.DistinctQuery) ([]*string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	group := string(q.GroupField)
	query := fmt.Sprintf(
		`SELECT %[1]s FROM inventories
		 WHERE inventory_type = $1 AND %[2]s = $2
		 GROUP BY %[1]s
		 ORDER BY CASE WHEN %[1]s IS NULL THEN 0 ELSE 1 END, %[1]s`,
		group, string(q.MatchField))

	rows, err := s.db.QueryContext(ctx, s.rebind(query), string(q.InventoryType), q.MatchValue)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	ids := []*string{}
	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id.Valid {
			v := id.String
			ids = append(ids, &v)
		} else {
			ids = append(ids, nil)
		}
	}
	return ids, rows.Err()
}
