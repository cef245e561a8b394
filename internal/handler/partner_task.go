package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/duet-app/duet/internal/aggregate"
	"github.com/duet-app/duet/internal/auth"
	"github.com/duet-app/duet/internal/habit"
	"github.com/duet-app/duet/internal/model"
	"github.com/duet-app/duet/internal/photo"
	"github.com/duet-app/duet/internal/push"
	"github.com/duet-app/duet/internal/store"
	"github.com/duet-app/duet/internal/websocket"
)

type PartnerTaskHandler struct {
	partnerStore    *store.PartnerTaskStore
	profileStore    *store.ProfileStore
	friendshipStore *store.FriendshipStore
	photos          *photo.Store
	hub             *websocket.Hub
	notifier        *push.Notifier
	logger          *slog.Logger
}

func NewPartnerTaskHandler(pts *store.PartnerTaskStore, ps *store.ProfileStore, fs *store.FriendshipStore, photos *photo.Store, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *PartnerTaskHandler {
	return &PartnerTaskHandler{
		partnerStore:    pts,
		profileStore:    ps,
		friendshipStore: fs,
		photos:          photos,
		hub:             hub,
		notifier:        notifier,
		logger:          logger,
	}
}

func (h *PartnerTaskHandler) broadcast(task *model.PartnerTask, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Send([]int64{task.CreatorID, task.PartnerID}, msg)
	}
}

func (h *PartnerTaskHandler) notify(profileID int64, payload push.Payload) {
	if h.notifier != nil {
		h.notifier.NotifyProfile(profileID, payload)
	}
}

type partnerTaskRequest struct {
	PartnerUsername string `json:"partner_username"`
	Title           string `json:"title"`
	Description     string `json:"description"`
}

// Create invites a confirmed friend to a partner task. The task starts
// pending until the invitee accepts or declines.
func (h *PartnerTaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req partnerTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.PartnerUsername = strings.TrimSpace(req.PartnerUsername)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if req.PartnerUsername == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "partner_username is required"})
		return
	}

	creatorID := auth.ProfileID(r.Context())
	partner, err := h.profileStore.GetByUsername(req.PartnerUsername)
	if err != nil {
		h.logger.Error("partner lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create partner task"})
		return
	}
	if partner == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "partner not found"})
		return
	}
	if partner.ID == creatorID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot partner with yourself"})
		return
	}

	friends, err := h.friendshipStore.AreFriends(creatorID, partner.ID)
	if err != nil {
		h.logger.Error("friendship check", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create partner task"})
		return
	}
	if !friends {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "partner must be a confirmed friend"})
		return
	}

	task, err := h.partnerStore.Create(creatorID, partner.ID, req.Title, req.Description)
	if err != nil {
		h.logger.Error("create partner task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create partner task"})
		return
	}

	h.broadcast(task, websocket.NewMessage("partner_task", "created", task.ID, nil))
	if creator, err := h.profileStore.GetByID(creatorID); err == nil && creator != nil {
		h.notify(partner.ID, push.Payload{
			Title: "Partner task invite",
			Body:  fmt.Sprintf("%s invited you to %q", displayName(creator), task.Title),
			Tag:   fmt.Sprintf("partner-task-%d", task.ID),
		})
	}

	writeJSON(w, http.StatusCreated, task)
}

// List returns every partner task the caller participates in, joined with
// the joint projection from the caller's perspective.
func (h *PartnerTaskHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	today := time.Now()

	tasks, err := h.partnerStore.ListForProfile(profileID)
	if err != nil {
		h.logger.Error("list partner tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list partner tasks"})
		return
	}

	views := make([]aggregate.PartnerTaskView, 0, len(tasks))
	for _, t := range tasks {
		completions, err := h.partnerStore.ListCompletions(t.ID)
		if err != nil {
			h.logger.Error("list partner completions", "partner_task_id", t.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list partner tasks"})
			return
		}
		var yours, partners []model.PartnerTaskCompletion
		for _, c := range completions {
			if c.ProfileID == profileID {
				yours = append(yours, c)
			} else {
				partners = append(partners, c)
			}
		}
		views = append(views, aggregate.PartnerTaskView{
			PartnerTask:   t,
			PartnerStatus: habit.ProjectPartner(t, yours, partners, today),
		})
	}

	writeJSON(w, http.StatusOK, views)
}

// Accept resolves a pending invite. Only the invitee may accept.
func (h *PartnerTaskHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, model.PartnerStatusAccepted)
}

// Decline resolves a pending invite. Only the invitee may decline.
func (h *PartnerTaskHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, model.PartnerStatusDeclined)
}

func (h *PartnerTaskHandler) resolve(w http.ResponseWriter, r *http.Request, status string) {
	task, ok := h.participantTask(w, r)
	if !ok {
		return
	}

	profileID := auth.ProfileID(r.Context())
	transitioned, err := h.partnerStore.Resolve(task.ID, profileID, status)
	if err != nil {
		h.logger.Error("resolve partner task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update partner task"})
		return
	}
	if !transitioned {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "invite is not pending for you"})
		return
	}

	updated, err := h.partnerStore.GetByID(task.ID)
	if err != nil || updated == nil {
		h.logger.Error("get partner task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update partner task"})
		return
	}

	h.broadcast(updated, websocket.NewMessage("partner_task", status, updated.ID, nil))
	if status == model.PartnerStatusAccepted {
		if invitee, err := h.profileStore.GetByID(profileID); err == nil && invitee != nil {
			h.notify(updated.CreatorID, push.Payload{
				Title: "Partner task accepted",
				Body:  fmt.Sprintf("%s accepted %q", displayName(invitee), updated.Title),
				Tag:   fmt.Sprintf("partner-task-%d", updated.ID),
			})
		}
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a partner task. Either participant may delete; completions
// and their photos go with it.
func (h *PartnerTaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.participantTask(w, r)
	if !ok {
		return
	}

	completions, err := h.partnerStore.ListCompletions(task.ID)
	if err != nil {
		h.logger.Error("list partner completions for delete", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete partner task"})
		return
	}

	if err := h.partnerStore.Delete(task.ID); err != nil {
		h.logger.Error("delete partner task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete partner task"})
		return
	}

	if h.photos.Enabled() {
		urls := make([]string, 0, len(completions))
		for _, c := range completions {
			urls = append(urls, c.PhotoURL)
		}
		if err := h.photos.RemoveAllByURL(r.Context(), urls); err != nil {
			h.logger.Warn("remove partner task photos", "partner_task_id", task.ID, "error", err)
		}
	}

	h.broadcast(task, websocket.NewMessage("partner_task", "deleted", task.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Complete records the caller's completion for today. Partner tasks always
// require a photo; the day only counts toward the joint streak once the
// other participant completes it too.
func (h *PartnerTaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.participantTask(w, r)
	if !ok {
		return
	}
	if task.Status != model.PartnerStatusAccepted {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "partner task is not accepted"})
		return
	}
	profileID := auth.ProfileID(r.Context())

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil && err != http.ErrNotMultipart {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}

	day := habit.Day(time.Now())
	if v := r.FormValue("date"); v != "" {
		normalized, err := habit.Normalize(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
			return
		}
		day = normalized
	}

	if existing, err := h.partnerStore.GetCompletionForDay(task.ID, profileID, day); err != nil {
		h.logger.Error("check partner completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete partner task"})
		return
	} else if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already completed for this day"})
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo is required"})
		return
	}
	defer file.Close()
	if !h.photos.Enabled() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo storage not configured"})
		return
	}

	key, url, err := h.photos.Upload(r.Context(), profileID, path.Ext(header.Filename), header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("upload photo", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to upload photo"})
		return
	}

	completion, err := h.partnerStore.CreateCompletion(task.ID, profileID, day, url)
	if err != nil {
		err = multierr.Append(err, h.photos.Remove(r.Context(), key))
		h.logger.Error("create partner completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete partner task"})
		return
	}

	h.broadcast(task, websocket.NewMessage("partner_task", "completed", task.ID, map[string]any{"profile_id": profileID}))

	other := task.CreatorID
	if profileID == task.CreatorID {
		other = task.PartnerID
	}
	if actor, err := h.profileStore.GetByID(profileID); err == nil && actor != nil {
		h.notify(other, push.Payload{
			Title: "Partner completed",
			Body:  fmt.Sprintf("%s completed %q today", displayName(actor), task.Title),
			Tag:   fmt.Sprintf("partner-task-%d", task.ID),
		})
	}

	writeJSON(w, http.StatusCreated, completion)
}

// UndoComplete removes the caller's completion for today and best-effort
// removes its photo.
func (h *PartnerTaskHandler) UndoComplete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.participantTask(w, r)
	if !ok {
		return
	}
	profileID := auth.ProfileID(r.Context())

	day := habit.Day(time.Now())
	if v := r.URL.Query().Get("date"); v != "" {
		normalized, err := habit.Normalize(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
			return
		}
		day = normalized
	}

	completion, err := h.partnerStore.GetCompletionForDay(task.ID, profileID, day)
	if err != nil {
		h.logger.Error("get partner completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to undo completion"})
		return
	}
	if completion == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "completion not found"})
		return
	}

	if err := h.partnerStore.DeleteCompletion(completion.ID); err != nil {
		h.logger.Error("delete partner completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to undo completion"})
		return
	}

	if h.photos.Enabled() {
		if err := h.photos.RemoveByURL(r.Context(), completion.PhotoURL); err != nil {
			h.logger.Warn("remove photo", "completion_id", completion.ID, "error", err)
		}
	}

	h.broadcast(task, websocket.NewMessage("partner_task", "completion_undone", task.ID, map[string]any{"profile_id": profileID}))
	w.WriteHeader(http.StatusNoContent)
}

// participantTask resolves the {id} path param to a partner task the caller
// participates in. Other tasks read as not found.
func (h *PartnerTaskHandler) participantTask(w http.ResponseWriter, r *http.Request) (*model.PartnerTask, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	task, err := h.partnerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get partner task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get partner task"})
		return nil, false
	}
	profileID := auth.ProfileID(r.Context())
	if task == nil || (task.CreatorID != profileID && task.PartnerID != profileID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "partner task not found"})
		return nil, false
	}
	return task, true
}

func displayName(p *model.Profile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}
