package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kickfinder/backend/internal/model/catalog"
	"github.com/kickfinder/backend/pkg/utils"
)

// Lister 返回完整的商品目录。
type Lister interface {
	List() []catalog.Item
}

// Handler 目录浏览的HTTP处理器
type Handler struct {
	items Lister
}

// New 创建目录处理器
func New(items Lister) *Handler {
	return &Handler{items: items}
}

// RegisterRoutes 注册目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sneakers", h.handleList)
	r.Get("/sneakers/attributes", h.handleAttributes)
}

// handleList 列出目录中的所有球鞋
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.items.List())
}

// handleAttributes 列出可用于筛选的属性与比较符
func (h *Handler) handleAttributes(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"attributes": catalog.Attributes,
		"operators":  catalog.Operators,
	})
}
