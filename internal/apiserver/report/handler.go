package report

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"bloodbank-admin/internal/apiserver/auth"
	"bloodbank-admin/internal/apiserver/response"
)

// maxBodyBytes 报表请求体上限，{page, limit} 足够
const maxBodyBytes = 4 << 10

// Handler 报表 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建报表处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册报表路由，prefix 为挂载前缀（可为空）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/get-all-donors", h.serve(KindDonors))
	mux.HandleFunc("POST "+prefix+"/get-all-hospitals", h.serve(KindHospitals))
	mux.HandleFunc("POST "+prefix+"/get-all-org-for-donor", h.serve(KindOrganizationsForDonor))
}

// pageRequest 请求体；page/limit 接受数字或数字字符串，body 中的 userID 被忽略
type pageRequest struct {
	Page  json.RawMessage `json:"page"`
	Limit json.RawMessage `json:"limit"`
}

func (h *Handler) serve(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			response.WriteError(w, response.New(response.KindUnauthorized, "not authenticated"))
			return
		}

		var req pageRequest
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			response.WriteError(w, response.Validation("invalid request body"))
			return
		}
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				response.WriteError(w, response.Validation("invalid request body"))
				return
			}
		}

		page, err := parseInt(req.Page)
		if err != nil {
			response.WriteError(w, response.Validation("page must be a positive integer"))
			return
		}
		limit, err := parseInt(req.Limit)
		if err != nil {
			response.WriteError(w, response.Validation("limit must be a positive integer"))
			return
		}

		res, err := h.svc.Run(r.Context(), kind, callerID, page, limit)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteOK(w, response.Body{Message: res.Message, Data: res.Page})
	}
}

// parseInt 解析 JSON 数字或数字字符串；带小数的数字按整数部分截断
func parseInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, strconv.ErrSyntax
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}
