package mongostore

import (
	"context"
	"time"

	"bloodbank-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CreateInventoryEntry 写入库存流水
func (s *Store) CreateInventoryEntry(ctx context.Context, e *model.InventoryEntry) error {
	return insertOne(ctx, s.col(ColInventories), e)
}

// DistinctCounterparties 去重对手方 ID
//
// $match → $group(_id: "$<group>") → $sort(_id: 1)
// 缺失分组字段的文档归入 _id: null，升序排序时 null 排在最前。
func (s *Store) DistinctCounterparties(ctx context.Context, q model.DistinctQuery) ([]*string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "inventoryType", Value: string(q.InventoryType)},
			{Key: string(q.MatchField), Value: q.MatchValue},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + string(q.GroupField)},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	start := time.Now()
	cursor, err := s.col(ColInventories).Aggregate(ctx, pipeline)
	s.log.DBQueryLog("aggregate", ColInventories, time.Since(start), err)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	ids := []*string{}
	for cursor.Next(ctx) {
		var row struct {
			ID *string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cursor.Err()
}
