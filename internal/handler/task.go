package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/duet-app/duet/internal/aggregate"
	"github.com/duet-app/duet/internal/auth"
	"github.com/duet-app/duet/internal/habit"
	"github.com/duet-app/duet/internal/model"
	"github.com/duet-app/duet/internal/photo"
	"github.com/duet-app/duet/internal/store"
	"github.com/duet-app/duet/internal/websocket"
)

const maxPhotoBytes = 10 << 20

type TaskHandler struct {
	taskStore       *store.TaskStore
	friendshipStore *store.FriendshipStore
	photos          *photo.Store
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, fs *store.FriendshipStore, photos *photo.Store, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, friendshipStore: fs, photos: photos, hub: hub, logger: logger}
}

// feedAudience returns the profiles that should hear about a feed-visible
// change: the actor plus their confirmed friends.
func feedAudience(fs *store.FriendshipStore, profileID int64) []int64 {
	ids, err := fs.ListConfirmedFriendIDs(profileID)
	if err != nil {
		ids = nil
	}
	return append(ids, profileID)
}

func (h *TaskHandler) broadcast(profileID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Send(feedAudience(h.friendshipStore, profileID), msg)
	}
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	profileID := auth.ProfileID(r.Context())
	task, err := h.taskStore.Create(profileID, req.Title, req.Description)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.broadcast(profileID, websocket.NewMessage("task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, task)
}

// List returns the owner's tasks joined with their projected completion state.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	today := time.Now()

	tasks, err := h.taskStore.ListByOwner(profileID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}

	views := make([]aggregate.TaskView, 0, len(tasks))
	for _, t := range tasks {
		completions, err := h.taskStore.ListCompletionsByTask(t.ID)
		if err != nil {
			h.logger.Error("list completions", "task_id", t.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
			return
		}
		views = append(views, aggregate.TaskView{
			Task:       t,
			TaskStatus: habit.ProjectTask(completions, today),
		})
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	updated, err := h.taskStore.Update(task.ID, req.Title, req.Description)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.broadcast(task.OwnerID, websocket.NewMessage("task", "updated", task.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	// Collect photo URLs before the cascade removes the rows.
	completions, err := h.taskStore.ListCompletionsByTask(task.ID)
	if err != nil {
		h.logger.Error("list completions for delete", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	if err := h.taskStore.Delete(task.ID); err != nil {
		h.logger.Error("delete task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	if h.photos.Enabled() {
		var urls []string
		for _, c := range completions {
			if c.PhotoURL != nil {
				urls = append(urls, *c.PhotoURL)
			}
		}
		if err := h.photos.RemoveAllByURL(r.Context(), urls); err != nil {
			h.logger.Warn("remove task photos", "task_id", task.ID, "error", err)
		}
	}

	h.broadcast(task.OwnerID, websocket.NewMessage("task", "deleted", task.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Complete records today's completion with an optional caption and photo.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
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

	if existing, err := h.taskStore.GetCompletionForDay(task.ID, profileID, day); err != nil {
		h.logger.Error("check completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete task"})
		return
	} else if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already completed for this day"})
		return
	}

	var photoURL *string
	var photoKey string
	if file, header, err := r.FormFile("photo"); err == nil {
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
		photoKey = key
		photoURL = &url
	}

	completion, err := h.taskStore.CreateCompletion(task.ID, profileID, day, strings.TrimSpace(r.FormValue("caption")), photoURL, task.Title)
	if err != nil {
		// The photo is already in object storage; remove the orphan
		// best-effort and report both outcomes together.
		if photoKey != "" {
			err = multierr.Append(err, h.photos.Remove(r.Context(), photoKey))
		}
		h.logger.Error("create completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete task"})
		return
	}

	h.broadcast(profileID, websocket.NewMessage("task", "completed", task.ID, map[string]any{"completion_id": completion.ID}))
	writeJSON(w, http.StatusCreated, completion)
}

// UndoComplete deletes a completion row and best-effort removes its photo.
func (h *TaskHandler) UndoComplete(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	completionID, err := strconv.ParseInt(r.PathValue("completion_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid completion_id"})
		return
	}

	completion, err := h.taskStore.GetCompletionByID(completionID)
	if err != nil {
		h.logger.Error("get completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to undo completion"})
		return
	}
	if completion == nil || completion.TaskID != task.ID || completion.ProfileID != auth.ProfileID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "completion not found"})
		return
	}

	if err := h.taskStore.DeleteCompletion(completionID); err != nil {
		h.logger.Error("delete completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to undo completion"})
		return
	}

	if completion.PhotoURL != nil && h.photos.Enabled() {
		if err := h.photos.RemoveByURL(r.Context(), *completion.PhotoURL); err != nil {
			h.logger.Warn("remove photo", "completion_id", completionID, "error", err)
		}
	}

	h.broadcast(task.OwnerID, websocket.NewMessage("task", "completion_undone", task.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// ownedTask resolves the {id} path param to a task owned by the caller.
// Tasks owned by someone else read as not found.
func (h *TaskHandler) ownedTask(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	task, err := h.taskStore.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return nil, false
	}
	if task == nil || task.OwnerID != auth.ProfileID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return nil, false
	}
	return task, true
}
