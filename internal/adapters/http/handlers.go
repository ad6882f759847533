package http

import (
	"net/http"
	"strconv"

	"github.com/dkeye/Conf/internal/app/orch"
	"github.com/dkeye/Conf/internal/domain"
	"github.com/gin-gonic/gin"
)

type RoomHandlers struct {
	Orch *orch.Orchestrator
}

func slugOf(c *gin.Context) domain.RoomSlug { return domain.RoomSlug(c.Param("slug")) }

func targetOf(c *gin.Context) (domain.UserID, bool) {
	n, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return domain.UserID(n), true
}

func (h *RoomHandlers) State(c *gin.Context) {
	snap, err := h.Orch.Snapshot(c.Request.Context(), slugOf(c), currentUser(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *RoomHandlers) Participants(c *gin.Context) {
	parts, err := h.Orch.Participants(c.Request.Context(), slugOf(c), currentUser(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": parts})
}

type HistoryQuery struct {
	Limit    int   `form:"limit" binding:"omitempty,min=1"`
	BeforeID int64 `form:"before_id" binding:"omitempty,min=1"`
}

func (h *RoomHandlers) Messages(c *gin.Context) {
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, domain.ErrBadPayload)
		return
	}
	page, err := h.Orch.History(c.Request.Context(), slugOf(c), currentUser(c), q.Limit, q.BeforeID)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RoomHandlers) DeleteMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, domain.ErrBadPayload)
		return
	}
	ev, err := h.Orch.DeleteMessage(c.Request.Context(), slugOf(c), currentUser(c), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "seq": ev.Seq})
}

type SyncQuery struct {
	AfterSeq int64 `form:"after_seq" binding:"omitempty,min=0"`
	Limit    int   `form:"limit" binding:"omitempty,min=1"`
}

func (h *RoomHandlers) Events(c *gin.Context) {
	var q SyncQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, domain.ErrBadPayload)
		return
	}
	evs, next, err := h.Orch.SyncAfter(c.Request.Context(), slugOf(c), currentUser(c), q.AfterSeq, q.Limit)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": orch.SyncItems(evs), "next_seq": next})
}

type RoleRequest struct {
	Role domain.Role `json:"role" binding:"required,oneof=admin guest"`
}

func (h *RoomHandlers) SetRole(c *gin.Context) {
	target, ok := targetOf(c)
	var req RoleRequest
	if !ok || c.ShouldBindJSON(&req) != nil {
		abort(c, domain.ErrBadPayload)
		return
	}
	ev, err := h.Orch.SetRole(c.Request.Context(), slugOf(c), currentUser(c), target, req.Role)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": target, "role": req.Role, "seq": ev.Seq})
}

type ForceMediaRequest struct {
	Mute     *bool `json:"mute"`
	VideoOff *bool `json:"video_off"`
}

func (h *RoomHandlers) ForceMedia(c *gin.Context) {
	target, ok := targetOf(c)
	var req ForceMediaRequest
	if !ok || c.ShouldBindJSON(&req) != nil {
		abort(c, domain.ErrBadPayload)
		return
	}
	ev, err := h.Orch.ForceMedia(c.Request.Context(), slugOf(c), currentUser(c), target, req.Mute, req.VideoOff)
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(ev.Payload))
}

type SpeakRequest struct {
	CanSpeak *bool `json:"can_speak" binding:"required"`
}

func (h *RoomHandlers) SetCanSpeak(c *gin.Context) {
	target, ok := targetOf(c)
	var req SpeakRequest
	if !ok || c.ShouldBindJSON(&req) != nil {
		abort(c, domain.ErrBadPayload)
		return
	}
	ev, err := h.Orch.SetCanSpeak(c.Request.Context(), slugOf(c), currentUser(c), target, *req.CanSpeak)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": target, "can_speak": *req.CanSpeak, "seq": ev.Seq})
}

func (h *RoomHandlers) Kick(c *gin.Context) {
	target, ok := targetOf(c)
	if !ok {
		abort(c, domain.ErrBadPayload)
		return
	}
	ev, err := h.Orch.Kick(c.Request.Context(), slugOf(c), currentUser(c), target)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": target, "seq": ev.Seq})
}

type PublicKeyRequest struct {
	PublicKey string `json:"public_key" binding:"required"`
}

func (h *RoomHandlers) PutPublicKey(c *gin.Context) {
	var req PublicKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, domain.ErrBadPayload)
		return
	}
	algo, err := h.Orch.Keys.RegisterPublicKey(c.Request.Context(), currentUser(c), req.PublicKey)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": currentUser(c), "wrap_algo": algo})
}

func (h *RoomHandlers) InitRoomKey(c *gin.Context) {
	res, err := h.Orch.InitRoomKey(c.Request.Context(), slugOf(c), currentUser(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *RoomHandlers) MyShare(c *gin.Context) {
	key, sh, err := h.Orch.Keys.CurrentShare(c.Request.Context(), slugOf(c), currentUser(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"key_id":      sh.RoomKeyID,
		"algo":        key.Algo,
		"fingerprint": key.Fingerprint,
		"wrap_algo":   sh.WrapAlgo,
		"wrapped_key": sh.WrappedKey,
	})
}
