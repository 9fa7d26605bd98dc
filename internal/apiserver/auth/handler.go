package auth

import (
	"encoding/json"
	"net/http"

	"bloodbank-admin/internal/apiserver/response"
)

// maxBodyBytes 注册/登录请求体上限
const maxBodyBytes = 64 << 10

// Handler 认证 HTTP 处理器
type Handler struct {
	svc *Service
}

// NewHandler 创建认证处理器
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册认证相关路由，prefix 为挂载前缀（可为空）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/register", h.Register)
	mux.HandleFunc("POST "+prefix+"/login", h.Login)
	mux.HandleFunc("GET "+prefix+"/get-current-user", h.CurrentUser)
}

// ============================================================================
// 请求类型
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
// 请求体为任意 JSON 对象：email/password/userType 之外的字段作为 profile 保存
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body == nil {
		response.WriteError(w, response.Validation("invalid request body"))
		return
	}

	in := RegisterInput{Profile: make(map[string]any, len(body))}
	for k, v := range body {
		switch k {
		case "email", "password", "userType":
			s, ok := v.(string)
			if !ok {
				response.WriteError(w, response.Validation("%s must be a string", k))
				return
			}
			switch k {
			case "email":
				in.Email = s
			case "password":
				in.Password = s
			default:
				in.UserType = s
			}
		default:
			in.Profile[k] = v
		}
	}

	if err := h.svc.Register(r.Context(), in); err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteOK(w, response.Body{Message: "user has been registered successfully"})
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.WriteError(w, response.Validation("invalid request body"))
		return
	}

	res, err := h.svc.Login(r.Context(), LoginInput(req))
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteOK(w, response.Body{
		Message: "User logged in successfully",
		User:    res.User,
		Token:   res.Token,
	})
}

// CurrentUser 获取当前登录用户
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, response.New(response.KindUnauthorized, "not authenticated"))
		return
	}

	user, err := h.svc.GetCurrentUser(r.Context(), userID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteOK(w, response.Body{Message: "User fetched successfully", Data: user})
}
