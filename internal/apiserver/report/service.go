// Package report 去重对手方报表：捐献者、医院、机构
//
// 流水按类型和调用方过滤后按对手方分组，
// 再批量解析用户并按 page/limit 切片返回分页结果。
package report

import (
	"context"
	"time"

	"bloodbank-admin/internal/apiserver/response"
	"bloodbank-admin/internal/shared/model"
	"bloodbank-admin/internal/shared/storage"
	"bloodbank-admin/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Kind 报表类型
type Kind string

const (
	KindDonors                Kind = "donors"
	KindHospitals             Kind = "hospitals"
	KindOrganizationsForDonor Kind = "organizations-for-donor"
)

// definition 报表定义：流水类型 + 调用方绑定字段 + 分组字段
type definition struct {
	inventoryType model.InventoryType
	matchField    model.InventoryField
	groupField    model.InventoryField
	message       string
}

var definitions = map[Kind]definition{
	KindDonors: {
		inventoryType: model.InventoryTypeDonationIn,
		matchField:    model.InventoryFieldOrganization,
		groupField:    model.InventoryFieldDonor,
		message:       "Donors Data Fetched Successfully",
	},
	KindHospitals: {
		inventoryType: model.InventoryTypeDonationOut,
		matchField:    model.InventoryFieldOrganization,
		groupField:    model.InventoryFieldHospital,
		message:       "Hospitals Data Fetched Successfully",
	},
	KindOrganizationsForDonor: {
		inventoryType: model.InventoryTypeDonationIn,
		matchField:    model.InventoryFieldDonor,
		groupField:    model.InventoryFieldOrganization,
		message:       "Organizations Data Fetched Successfully",
	},
}

var (
	reportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_reports_total",
			Help: "Report requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	reportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bloodbank_report_duration_seconds",
			Help:    "Report pipeline duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// Store 报表所需的存储能力
type Store interface {
	storage.InventoryStore
	storage.UserStore
}

// Result 报表结果
type Result struct {
	Message string
	Page    model.Page[model.CounterpartyEntry]
}

// Service 报表服务
type Service struct {
	store Store
	log   *logging.Logger
}

// NewService 创建报表服务
func NewService(store Store, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{store: store, log: log}
}

// Run 执行报表
//
// callerID 为认证用户 ID，按报表定义绑定到 organization 或 donor 字段。
// 任一存储步骤失败则整体失败，不返回部分结果。
func (s *Service) Run(ctx context.Context, kind Kind, callerID string, page, limit int) (res *Result, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(response.KindOf(err))
		}
		reportsTotal.WithLabelValues(string(kind), outcome).Inc()
		reportDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	def, ok := definitions[kind]
	if !ok {
		return nil, response.Validation("unknown report %q", kind)
	}
	if page < 1 {
		return nil, response.Validation("page must be a positive integer")
	}
	if limit < 1 {
		return nil, response.Validation("limit must be a positive integer")
	}

	ids, err := s.store.DistinctCounterparties(ctx, model.DistinctQuery{
		InventoryType: def.inventoryType,
		MatchField:    def.matchField,
		MatchValue:    callerID,
		GroupField:    def.groupField,
	})
	if err != nil {
		s.log.WithContext(ctx).Error("distinct counterparties failed", "kind", string(kind), "error", err.Error())
		return nil, response.Store(err)
	}

	startIdx, endIdx := model.PageBounds(len(ids), page, limit)
	pageIDs := ids[startIdx:endIdx]

	users, err := s.resolveUsers(ctx, pageIDs)
	if err != nil {
		s.log.WithContext(ctx).Error("resolve users failed", "kind", string(kind), "error", err.Error())
		return nil, response.Store(err)
	}

	rows := make([]model.CounterpartyEntry, 0, len(pageIDs))
	for _, id := range pageIDs {
		row := model.CounterpartyEntry{ID: id}
		if id != nil {
			if u, ok := users[*id]; ok {
				u.PasswordHash = ""
				row.User = u
			}
		}
		rows = append(rows, row)
	}

	return &Result{
		Message: def.message,
		Page:    model.NewPage(rows, len(ids), page, limit),
	}, nil
}

// resolveUsers 批量查询非空 ID 对应的用户
func (s *Service) resolveUsers(ctx context.Context, ids []*string) (map[string]*model.User, error) {
	lookup := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != nil {
			lookup = append(lookup, *id)
		}
	}
	if len(lookup) == 0 {
		return map[string]*model.User{}, nil
	}

	users, err := s.store.GetUsersByIDs(ctx, lookup)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
