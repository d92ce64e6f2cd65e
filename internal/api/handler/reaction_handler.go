package handler

import (
	"Murmur/internal/api/dto"
	"Murmur/internal/model"
	"Murmur/internal/pkg/response"
	"Murmur/internal/service"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactionSvc service.ReactionService
}

func NewReactionHandler(reactionSvc service.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactionSvc: reactionSvc}
}

func (h *ReactionHandler) subject(c *gin.Context) (service.Subject, bool) {
	st := model.SubjectType(c.Param("subject_type"))
	if !st.Valid() {
		response.Error(c, service.ErrSubjectTypeInvalid)
		return service.Subject{}, false
	}
	id, ok := paramID(c, "subject_id")
	if !ok {
		return service.Subject{}, false
	}
	return service.Subject{Type: st, ID: id}, true
}

func toAggregateDTO(subject service.Subject, agg *service.Aggregate, mine *model.ReactionKind) *dto.ReactionAggregateDTO {
	out := &dto.ReactionAggregateDTO{
		SubjectType: string(subject.Type),
		SubjectID:   subject.ID,
		Counts:      make(map[string]int),
	}
	if agg != nil {
		for k, n := range agg.Counts {
			if n > 0 {
				out.Counts[string(k)] = n
			}
		}
		out.Total = agg.Total
	}
	if mine != nil {
		k := string(*mine)
		out.Mine = &k
	}
	return out
}

// GetReactions 汇总与当前用户的回应
func (h *ReactionHandler) GetReactions(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	agg, err := h.reactionSvc.GetAggregate(c.Request.Context(), subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	mine, err := h.reactionSvc.GetUserReaction(c.Request.Context(), subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toAggregateDTO(subject, agg, mine))
}

// GetBatchReactions 列表页批量汇总，不含当前用户回应
func (h *ReactionHandler) GetBatchReactions(c *gin.Context) {
	st := model.SubjectType(c.Param("subject_type"))
	if !st.Valid() {
		response.Error(c, service.ErrSubjectTypeInvalid)
		return
	}
	ids, ok := queryIDs(c, "ids")
	if !ok {
		return
	}
	aggs, err := h.reactionSvc.GetAggregates(c.Request.Context(), st, ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]*dto.ReactionAggregateDTO, 0, len(ids))
	for _, id := range ids {
		out = append(out, toAggregateDTO(service.Subject{Type: st, ID: id}, aggs[id], nil))
	}
	response.Success(c, out)
}

// ToggleReaction current 为客户端当前展示的回应
func (h *ReactionHandler) ToggleReaction(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	var req dto.ToggleReactionDTO
	if !bindJSON(c, &req) {
		return
	}
	var current *model.ReactionKind
	if req.Current != nil {
		k := model.ReactionKind(*req.Current)
		current = &k
	}

	res, err := h.reactionSvc.Toggle(c.Request.Context(), subject, model.ReactionKind(req.Kind), current)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := &dto.ToggleReactionResultDTO{SubjectType: string(subject.Type), SubjectID: subject.ID}
	if res.Kind != nil {
		k := string(*res.Kind)
		out.Kind = &k
	}
	response.Success(c, out)
}
