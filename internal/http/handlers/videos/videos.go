package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/http/middleware"
	"github.com/cloudvid/transcriber-service/internal/services/mediastore"
	"github.com/cloudvid/transcriber-service/internal/services/summarize"
	"github.com/cloudvid/transcriber-service/internal/services/transcribe"
	"github.com/cloudvid/transcriber-service/internal/storage"
	"github.com/cloudvid/transcriber-service/internal/types"
	"github.com/cloudvid/transcriber-service/internal/utils/response"
)

// Lister is the cached video listing, satisfied by cache.VideoCache.
type Lister interface {
	ListVideosByUser(ctx context.Context, userID string) ([]types.Video, error)
	InvalidateUserVideos(ctx context.Context, userID string)
}

// Tracker hands a started batch job to the background poll runner.
type Tracker interface {
	Track(videoID, userID, jobID string)
}

// Publisher pushes status events to the owning user's connection.
type Publisher interface {
	PublishVideoStatus(userID, videoID string, status types.Status)
}

type Handlers struct {
	storage       storage.Storage
	lister        Lister
	stores        *mediastore.Router
	callback      transcribe.CallbackProvider
	polled        transcribe.PolledProvider
	tracker       Tracker
	summarizer    summarize.Summarizer
	publisher     Publisher
	baseURL       string
	maxUploadSize int64
}

func NewHandlers(
	storage storage.Storage,
	lister Lister,
	stores *mediastore.Router,
	callback transcribe.CallbackProvider,
	polled transcribe.PolledProvider,
	tracker Tracker,
	summarizer summarize.Summarizer,
	publisher Publisher,
	baseURL string,
	maxUploadSize int64,
) *Handlers {
	return &Handlers{
		storage:       storage,
		lister:        lister,
		stores:        stores,
		callback:      callback,
		polled:        polled,
		tracker:       tracker,
		summarizer:    summarizer,
		publisher:     publisher,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		maxUploadSize: maxUploadSize,
	}
}

// authorize enforces the ownership rule shared by every per-record
// operation: the requester must own the record or hold the admin role.
func authorize(identity middleware.Identity, ownerID string) error {
	if identity.UserID == ownerID || identity.IsAdmin() {
		return nil
	}
	return apperr.ErrForbidden
}

// Upload stores an incoming video file
// @Summary Upload a video
// @Description Upload a video file; free plans go to the streaming host, paid plans to the bucket
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "Video file"
// @Success 200 {object} map[string]string "Uploaded"
// @Failure 400 {object} response.Response "No file or invalid plan"
// @Security BearerAuth
// @Router /videos/upload [post]
func (h *Handlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentity(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("no file uploaded")))
			return
		}

		file, header, err := r.FormFile("video")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("no file uploaded")))
			return
		}
		defer file.Close()

		store, err := h.stores.ForPlan(identity.Plan)
		if err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(err))
			return
		}

		contentType := header.Header.Get("Content-Type")
		object, err := store.Put(r.Context(), file, header.Filename, contentType, header.Size)
		if err != nil {
			slog.Error("Upload failed",
				slog.String("user_id", identity.UserID),
				slog.String("error", err.Error()))
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("upload failed")))
			return
		}

		video := &types.Video{
			OriginalName:   header.Filename,
			URL:            object.URL,
			ObjectKey:      object.Key,
			StorageBackend: store.Backend(),
			UserID:         identity.UserID,
		}

		videoID, err := h.storage.CreateVideo(video)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to save video record")))
			return
		}
		slog.Info("Video uploaded",
			slog.String("video_id", videoID),
			slog.String("backend", store.Backend()))

		h.lister.InvalidateUserVideos(r.Context(), identity.UserID)

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "File uploaded successfully",
			"url":     object.URL,
		})
	}
}

// MyVideos lists the caller's videos
// @Summary List my videos
// @Tags videos
// @Produce json
// @Success 200 {array} types.Video "Videos, newest first"
// @Security BearerAuth
// @Router /videos/my-videos [get]
func (h *Handlers) MyVideos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentity(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		videos, err := h.lister.ListVideosByUser(r.Context(), identity.UserID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to fetch videos")))
			return
		}
		if videos == nil {
			videos = []types.Video{}
		}

		response.WriteJSON(w, http.StatusOK, videos)
	}
}

// Delete removes a video and its stored file
// @Summary Delete a video
// @Description Delete a video owned by the caller (admins may delete any)
// @Tags videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Video not found"
// @Security BearerAuth
// @Router /videos/delete/{id} [delete]
func (h *Handlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentity(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		video, err := h.storage.GetVideoByID(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("video not found")))
			return
		}

		if err := authorize(identity, video.UserID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("not authorized to delete this video")))
			return
		}

		h.removeObject(r.Context(), video)

		if err := h.storage.DeleteVideo(video.ID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("failed to delete the video")))
			return
		}

		h.lister.InvalidateUserVideos(r.Context(), video.UserID)

		response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
	}
}

// removeObject deletes the backing storage object, resolved by the record's
// own backend. Failures are logged and swallowed: losing the object is
// preferable to a record that can never be deleted.
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

// Transcribe starts transcription of an uploaded video
// @Summary Start transcription
// @Description Submit the video to the speech-to-text provider selected by the owner's plan
// @Tags videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} map[string]string "Transcription started"
// @Failure 400 {object} response.Response "Video not in uploaded state"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Video not found"
// @Failure 502 {object} response.Response "Provider rejected the job"
// @Security BearerAuth
// @Router /videos/transcribe/{id} [post]
func (h *Handlers) Transcribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentity(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		video, err := h.storage.GetVideoByID(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("video not found")))
			return
		}

		if err := authorize(identity, video.UserID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("not authorized to transcribe this video")))
			return
		}

		// The provider follows the owner's plan, not the requester's: an
		// admin starting a job for a free user still uses the free path.
		owner, err := h.storage.GetUserByID(video.UserID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to resolve video owner")))
			return
		}

		// Claim the record before talking to any provider. Losing this
		// compare-and-set means someone else already started a job.
		if err := h.storage.MarkProcessing(video.ID, ""); err != nil {
			if errors.Is(err, apperr.ErrInvalidState) {
				response.WriteJSON(w, apperr.Status(err), response.GeneralError(
					fmt.Errorf("video is not in uploaded state: %s", video.Status)))
				return
			}
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(err))
			return
		}

		jobID, err := h.submit(r.Context(), video, owner.Plan)
		if err != nil {
			if failErr := h.storage.FailTranscription(video.ID); failErr != nil {
				slog.Error("Failed to mark transcription failed",
					slog.String("video_id", video.ID),
					slog.String("error", failErr.Error()))
			}
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("failed to start transcription")))
			return
		}

		if err := h.storage.SetTranscriptionJob(video.ID, jobID); err != nil {
			slog.Error("Failed to record transcription job",
				slog.String("video_id", video.ID),
				slog.String("error", err.Error()))
		}

		if owner.Plan == types.PlanPaid {
			h.tracker.Track(video.ID, video.UserID, jobID)
		}

		h.lister.InvalidateUserVideos(r.Context(), video.UserID)
		h.publisher.PublishVideoStatus(video.UserID, video.ID, types.StatusProcessing)
		slog.Info("Transcription started",
			slog.String("video_id", video.ID),
			slog.String("job_id", jobID),
			slog.String("plan", string(owner.Plan)))

		response.WriteJSON(w, http.StatusOK, map[string]string{"message": "Transcription started"})
	}
}

// submit dispatches to the provider strategy for the owner's plan. The two
// paths stay separate: free jobs report back through the webhook, paid jobs
// are polled by the runner.
func (h *Handlers) submit(ctx context.Context, video *types.Video, plan types.Plan) (string, error) {
	switch plan {
	case types.PlanFree:
		webhookURL := fmt.Sprintf("%s/api/videos/webhook?videoId=%s", h.baseURL, video.ID)
		return h.callback.Submit(ctx, video.URL, webhookURL)
	case types.PlanPaid:
		return h.polled.Start(ctx, video.ObjectKey)
	default:
		return "", apperr.ErrInvalidPlan
	}
}

type webhookRequest struct {
	Status       string `json:"status"`
	TranscriptID string `json:"transcript_id"`
}

// Webhook receives the callback provider's job outcome
// @Summary Transcription webhook
// @Description Provider-originated callback carrying the transcription job outcome
// @Tags videos
// @Accept json
// @Produce json
// @Param videoId query string true "Video ID"
// @Success 200 {object} map[string]string "Webhook processed"
// @Failure 404 {object} response.Response "Video not found"
// @Router /videos/webhook [post]
func (h *Handlers) Webhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := r.URL.Query().Get("videoId")
		if videoID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("videoId is required")))
			return
		}

		var req webhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid webhook payload")))
			return
		}

		video, err := h.storage.GetVideoByID(videoID)
		if err != nil {
			// The record may have been deleted while the job ran; answer
			// not-found and move on.
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("video not found")))
			return
		}

		switch req.Status {
		case "completed":
			transcript, err := h.callback.FetchTranscript(r.Context(), req.TranscriptID)
			if err != nil {
				slog.Error("Failed to fetch transcript",
					slog.String("video_id", videoID),
					slog.String("error", err.Error()))
				response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("failed to fetch transcript")))
				return
			}

			err = h.storage.CompleteTranscription(videoID, transcript)
			if err != nil && !errors.Is(err, apperr.ErrInvalidState) {
				response.WriteJSON(w, apperr.Status(err), response.GeneralError(err))
				return
			}
			// ErrInvalidState means a repeated callback already settled the
			// record; treat it as done.
			if err == nil {
				h.publisher.PublishVideoStatus(video.UserID, videoID, types.StatusTranscribed)
				h.lister.InvalidateUserVideos(r.Context(), video.UserID)
			}

		case "failed":
			err = h.storage.FailTranscription(videoID)
			if err != nil && !errors.Is(err, apperr.ErrInvalidState) {
				response.WriteJSON(w, apperr.Status(err), response.GeneralError(err))
				return
			}
			if err == nil {
				h.publisher.PublishVideoStatus(video.UserID, videoID, types.StatusFailed)
				h.lister.InvalidateUserVideos(r.Context(), video.UserID)
			}
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Webhook received successfully",
			"status":  req.Status,
		})
	}
}

// DownloadTranscript serves the transcript as a text attachment
// @Summary Download transcript
// @Tags videos
// @Produce plain
// @Param id path string true "Video ID"
// @Success 200 {string} string "Transcript text"
// @Failure 404 {object} response.Response "Video or transcript not available"
// @Security BearerAuth
// @Router /videos/download-transcript/{id} [get]
func (h *Handlers) DownloadTranscript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentity(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		video, err := h.storage.GetVideoByID(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("video or transcript is not available")))
			return
		}
		if strings.TrimSpace(video.Transcript) == "" {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("video or transcript is not available")))
			return
		}

		if err := authorize(identity, video.UserID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("not authorized")))
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.txt", video.OriginalName))
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(video.Transcript))
	}
}

// Summarize generates and persists a summary of the transcript
// @Summary Summarize transcript
// @Description Send the transcript to the text-generation provider and persist the summary
// @Tags videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} map[string]string "Summary generated"
// @Failure 400 {object} response.Response "Transcript is empty"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Video not found"
// @Failure 502 {object} response.Response "Provider failure"
// @Security BearerAuth
// @Router /videos/summarize/{id} [post]
func (h *Handlers) Summarize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.GetIdentity(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		video, err := h.storage.GetVideoByID(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("video not found")))
			return
		}

		if err := authorize(identity, video.UserID); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("not authorized")))
			return
		}

		if strings.TrimSpace(video.Transcript) == "" {
			response.WriteJSON(w, apperr.Status(apperr.ErrInvalidState), response.GeneralError(
				errors.New("transcript is empty, cannot summarize")))
			return
		}

		summary, err := h.summarizer.Summarize(r.Context(), video.Transcript)
		if err != nil {
			slog.Error("Summarization failed",
				slog.String("video_id", video.ID),
				slog.String("error", err.Error()))
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("failed to generate summary")))
			return
		}

		if err := h.storage.SetSummary(video.ID, summary); err != nil {
			response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("failed to save summary")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Summary generated successfully",
			"summary": summary,
		})
	}
}
