// Package admin holds the role-gated operations that cut across all users
// and records. Routes in this package must be mounted behind
// middleware.RequireAdmin.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/services/mediastore"
	"github.com/cloudvid/transcriber-service/internal/storage"
	"github.com/cloudvid/transcriber-service/internal/types"
	"github.com/cloudvid/transcriber-service/internal/utils/response"
)

type Handlers struct {
	storage storage.Storage
	stores  *mediastore.Router
}

func NewHandlers(storage storage.Storage, stores *mediastore.Router) *Handlers {
	return &Handlers{storage: storage, stores: stores}
}

// AllUsers lists every registered user
// @Summary List all users
// @Description List all users, credentials excluded
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Users"
// @Failure 403 {object} response.Response "Admin role required"
// @Security BearerAuth
// @Router /videos/admin/allUsers [get]
func (h *Handlers) AllUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.storage.ListUsers()
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to fetch users")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
	}
}

// AllVideos lists every record with its owner joined
// @Summary List all videos
// @Description List all video records with owner name and email
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Videos"
// @Failure 403 {object} response.Response "Admin role required"
// @Security BearerAuth
// @Router /videos/admin/videos [get]
func (h *Handlers) AllVideos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := h.storage.ListAllVideos()
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to fetch videos")))
			return
		}
		if videos == nil {
			videos = []types.VideoWithOwner{}
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
	}
}

// UserVideos lists one user's records
// @Summary List a user's videos
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{} "Videos, newest first"
// @Failure 403 {object} response.Response "Admin role required"
// @Security BearerAuth
// @Router /videos/admin/user-videos/{id} [get]
func (h *Handlers) UserVideos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := h.storage.ListVideosByUser(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to fetch videos")))
			return
		}
		if videos == nil {
			videos = []types.Video{}
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
	}
}

// DeleteVideo removes any record and its stored file
// @Summary Delete any video
// @Description Delete a video record regardless of owner; the storage object is removed best-effort first
// @Tags admin
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 403 {object} response.Response "Admin role required"
// @Failure 404 {object} response.Response "Video not found"
// @Security BearerAuth
// @Router /videos/admin/delete-video/{id} [delete]
func (h *Handlers) DeleteVideo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := h.storage.GetVideoByID(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("video not found")))
			return
		}

		h.removeObject(r.Context(), video)

		if err := h.storage.DeleteVideo(video.ID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("failed to delete the video")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
	}
}

// DeleteUser removes a user, all owned records and their storage objects
// @Summary Delete a user and everything they own
// @Description Best-effort delete of every owned storage object, then a transactional delete of the user and their records
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 403 {object} response.Response "Admin role required"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /videos/admin/deleteUserAllInfo/{id} [delete]
func (h *Handlers) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("id")

		if _, err := h.storage.GetUserByID(userID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("user not found")))
			return
		}

		videos, err := h.storage.ListVideosByUser(userID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to fetch user's videos")))
			return
		}

		// Storage objects go first, best-effort. The record delete below is
		// transactional via the FK cascade; a failed object delete is logged
		// and accepted as lost.
		for i := range videos {
			h.removeObject(r.Context(), &videos[i])
		}

		if err := h.storage.DeleteUser(userID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("failed to delete user")))
			return
		}
		slog.Info("User deleted with all videos",
			slog.String("user_id", userID),
			slog.Int("video_count", len(videos)))

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "User and all associated videos deleted successfully",
		})
	}
}

func (h *Handlers) removeObject(ctx context.Context, video *types.Video) {
	store, err := h.stores.ByBackend(video.StorageBackend)
	if err != nil {
		slog.Error("Unknown storage backend",
			slog.String("video_id", video.ID),
			slog.String("backend", video.StorageBackend))
		return
	}

	if err := store.Remove(ctx, video.ObjectKey); err != nil {
		slog.Error("Failed to delete storage object",
			slog.String("video_id", video.ID),
			slog.String("object_key", video.ObjectKey),
			slog.String("error", err.Error()))
	}
}
