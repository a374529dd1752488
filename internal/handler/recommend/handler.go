package recommend

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kickfinder/backend/internal/model/catalog"
	"github.com/kickfinder/backend/internal/model/questionnaire"
	"github.com/kickfinder/backend/internal/service/criteria"
	"github.com/kickfinder/backend/pkg/utils"
)

// Searcher derives criteria and runs them against the catalog.
type Searcher interface {
	Search(ctx context.Context, answers questionnaire.Answers) (catalog.Filter, []catalog.Match, error)
}

// Handler 推荐接口的HTTP处理器
type Handler struct {
	searcher Searcher
}

// New 创建推荐处理器
func New(searcher Searcher) *Handler {
	return &Handler{searcher: searcher}
}

// RegisterRoutes 注册推荐相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/recommendations", h.handleRecommend)
}

type request struct {
	Metrics     string `json:"metrics"`
	Environment string `json:"environment"`
	Position    string `json:"position"`
	Budget      string `json:"budget"`
}

type response struct {
	Criteria []catalog.Constraint `json:"criteria"`
	Items    []catalog.Match      `json:"items"`
	Text     string               `json:"text"`
}

// handleRecommend 一次性提交全部答案并返回推荐结果
func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var payload request
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answers, err := payload.answers()
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, matches, err := h.searcher.Search(r.Context(), answers)
	if err != nil {
		log.Printf("[recommend] search failed: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, criteria.ErrIncompleteAnswers) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, criteria.TextFailure)
		return
	}

	if matches == nil {
		matches = []catalog.Match{}
	}
	utils.RespondJSON(w, http.StatusOK, response{
		Criteria: filter,
		Items:    matches,
		Text:     criteria.Render(matches),
	})
}

// answers validates the payload with the same rules the questionnaire applies.
func (p request) answers() (questionnaire.Answers, error) {
	var a questionnaire.Answers

	height, weight, err := questionnaire.ParseMetrics(p.Metrics)
	if err != nil {
		return a, errors.New("metrics must be height/weight, e.g. 180/75")
	}
	env, err := questionnaire.ParseEnvironment(p.Environment)
	if err != nil {
		return a, errors.New("environment must be one of indoor, outdoor, both")
	}
	pos, err := questionnaire.ParsePosition(p.Position)
	if err != nil {
		return a, errors.New("position must be one of frontcourt, backcourt")
	}
	budget, err := questionnaire.ParseBudget(p.Budget)
	if err != nil {
		return a, errors.New("budget must be one of low, mid, high")
	}

	_ = a.SetMetrics(height, weight)
	_ = a.SetEnvironment(env)
	_ = a.SetPosition(pos)
	_ = a.SetBudget(budget)
	return a, nil
}
