package videos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/http/middleware"
	"github.com/cloudvid/transcriber-service/internal/services/mediastore"
	"github.com/cloudvid/transcriber-service/internal/services/transcribe"
	"github.com/cloudvid/transcriber-service/internal/types"
	"github.com/cloudvid/transcriber-service/internal/types/users"
)

// fakeStorage is an in-memory Storage with the same compare-and-set
// transition semantics as the Postgres implementation.
type fakeStorage struct {
	mu     sync.Mutex
	users  map[string]*users.User
	videos map[string]*types.Video
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:  make(map[string]*users.User),
		videos: make(map[string]*types.Video),
	}
}

func (f *fakeStorage) CreateUser(name, email, hashedPassword, plan string) (string, error) {
	return "", nil
}

func (f *fakeStorage) GetUserByEmail(email string) (*users.User, error) { return nil, apperr.ErrNotFound }

func (f *fakeStorage) GetUserByID(id string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStorage) ListUsers() ([]users.User, error) { return nil, nil }
func (f *fakeStorage) DeleteUser(id string) error       { return nil }

func (f *fakeStorage) CreateVideo(v *types.Video) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("v%d", len(f.videos)+1)
	copied := *v
	copied.ID = id
	copied.Status = types.StatusUploaded
	f.videos[id] = &copied
	return id, nil
}

func (f *fakeStorage) GetVideoByID(id string) (*types.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *video
	return &copied, nil
}

func (f *fakeStorage) ListVideosByUser(userID string) ([]types.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Video
	for _, v := range f.videos {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeStorage) ListAllVideos() ([]types.VideoWithOwner, error) { return nil, nil }

func (f *fakeStorage) DeleteVideo(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.videos[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeStorage) transition(id string, from, to types.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if video.Status != from {
		return apperr.ErrInvalidState
	}
	video.Status = to
	return nil
}

func (f *fakeStorage) MarkProcessing(id, jobRef string) error {
	if err := f.transition(id, types.StatusUploaded, types.StatusProcessing); err != nil {
		return err
	}
	f.mu.Lock()
	f.videos[id].TranscriptionJob = jobRef
	f.mu.Unlock()
	return nil
}

func (f *fakeStorage) SetTranscriptionJob(id, jobRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return apperr.ErrNotFound
	}
	video.TranscriptionJob = jobRef
	return nil
}

func (f *fakeStorage) CompleteTranscription(id, transcript string) error {
	if err := f.transition(id, types.StatusProcessing, types.StatusTranscribed); err != nil {
		return err
	}
	f.mu.Lock()
	f.videos[id].Transcript = transcript
	f.mu.Unlock()
	return nil
}

func (f *fakeStorage) FailTranscription(id string) error {
	return f.transition(id, types.StatusProcessing, types.StatusFailed)
}

func (f *fakeStorage) SetSummary(id, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return apperr.ErrNotFound
	}
	video.Summary = summary
	return nil
}

func (f *fakeStorage) FailStaleProcessing(olderThan time.Duration) (int64, error) { return 0, nil }

type fakeStore struct {
	backend string
	puts    int
	removed []string
}

func (s *fakeStore) Put(ctx context.Context, r io.Reader, filename, contentType string, size int64) (*mediastore.Object, error) {
	s.puts++
	return &mediastore.Object{
		URL: "http://" + s.backend + ".example.com/" + filename,
		Key: s.backend + "/" + filename,
	}, nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.removed = append(s.removed, key)
	return nil
}

func (s *fakeStore) Backend() string { return s.backend }

type fakeLister struct {
	storage       *fakeStorage
	invalidations int
}

func (l *fakeLister) ListVideosByUser(ctx context.Context, userID string) ([]types.Video, error) {
	return l.storage.ListVideosByUser(userID)
}

func (l *fakeLister) InvalidateUserVideos(ctx context.Context, userID string) {
	l.invalidations++
}

type fakeTracker struct {
	tracked []string
}

func (t *fakeTracker) Track(videoID, userID, jobID string) {
	t.tracked = append(t.tracked, videoID)
}

type fakePublisher struct {
	events []types.Status
}

func (p *fakePublisher) PublishVideoStatus(userID, videoID string, status types.Status) {
	p.events = append(p.events, status)
}

type fakeCallback struct {
	submitErr   error
	webhookURLs []string
	transcript  string
	fetched     []string
}

func (c *fakeCallback) Submit(ctx context.Context, mediaURL, webhookURL string) (string, error) {
	if c.submitErr != nil {
		return "", c.submitErr
	}
	c.webhookURLs = append(c.webhookURLs, webhookURL)
	return "cb-job-1", nil
}

func (c *fakeCallback) FetchTranscript(ctx context.Context, jobID string) (string, error) {
	c.fetched = append(c.fetched, jobID)
	return c.transcript, nil
}

type fakePolled struct {
	startErr error
	started  []string
}

func (p *fakePolled) Start(ctx context.Context, objectKey string) (string, error) {
	if p.startErr != nil {
		return "", p.startErr
	}
	p.started = append(p.started, objectKey)
	return "batch-job-1", nil
}

func (p *fakePolled) Poll(ctx context.Context, jobID string) (*transcribe.Result, error) {
	return &transcribe.Result{State: transcribe.JobRunning}, nil
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (s *fakeSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

type fixture struct {
	handlers   *Handlers
	storage    *fakeStorage
	stream     *fakeStore
	bucket     *fakeStore
	lister     *fakeLister
	tracker    *fakeTracker
	publisher  *fakePublisher
	callback   *fakeCallback
	polled     *fakePolled
	summarizer *fakeSummarizer
}

func newFixture() *fixture {
	storage := newFakeStorage()
	stream := &fakeStore{backend: types.BackendStream}
	bucket := &fakeStore{backend: types.BackendBucket}
	lister := &fakeLister{storage: storage}
	tracker := &fakeTracker{}
	publisher := &fakePublisher{}
	callback := &fakeCallback{transcript: "hello transcript"}
	polled := &fakePolled{}
	summarizer := &fakeSummarizer{summary: "short summary"}

	handlers := NewHandlers(storage, lister, mediastore.NewRouter(stream, bucket),
		callback, polled, tracker, summarizer, publisher,
		"http://localhost:8080", 32<<20)

	return &fixture{
		handlers:   handlers,
		storage:    storage,
		stream:     stream,
		bucket:     bucket,
		lister:     lister,
		tracker:    tracker,
		publisher:  publisher,
		callback:   callback,
		polled:     polled,
		summarizer: summarizer,
	}
}

func (f *fixture) addUser(id string, plan types.Plan, role types.Role) {
	f.storage.users[id] = &users.User{ID: id, Plan: plan, Role: role}
}

func (f *fixture) addVideo(id, userID, backend string, status types.Status, transcript string) {
	f.storage.videos[id] = &types.Video{
		ID:             id,
		OriginalName:   "talk.mp4",
		URL:            "http://" + backend + ".example.com/talk.mp4",
		ObjectKey:      backend + "/talk.mp4",
		StorageBackend: backend,
		Status:         status,
		Transcript:     transcript,
		UserID:         userID,
	}
}

func authedRequest(method, target, videoID string, body io.Reader, identity middleware.Identity) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	if videoID != "" {
		req.SetPathValue("id", videoID)
	}
	return req
}

func multipartVideo(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("video", filename)
	if err != nil {
		t.Fatalf("Failed to build multipart body: %v", err)
	}
	part.Write([]byte("fake video bytes"))
	writer.Close()
	return &body, writer.FormDataContentType()
}

func TestUpload_PlanRouting(t *testing.T) {
	cases := []struct {
		name        string
		plan        types.Plan
		wantBackend string
	}{
		{"free plan uses stream host", types.PlanFree, types.BackendStream},
		{"paid plan uses bucket", types.PlanPaid, types.BackendBucket},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture()
			body, contentType := multipartVideo(t, "talk.mp4")

			req := authedRequest(http.MethodPost, "/api/videos/upload", "", body,
				middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: tc.plan})
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			fx.handlers.Upload()(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			var resp map[string]string
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp["message"] != "File uploaded successfully" || resp["url"] == "" {
				t.Errorf("Unexpected response: %v", resp)
			}

			videos, _ := fx.storage.ListVideosByUser("u1")
			if len(videos) != 1 {
				t.Fatalf("Expected one record, got %d", len(videos))
			}
			if videos[0].StorageBackend != tc.wantBackend {
				t.Errorf("Expected backend %s, got %s", tc.wantBackend, videos[0].StorageBackend)
			}
			if videos[0].Status != types.StatusUploaded {
				t.Errorf("Expected status uploaded, got %s", videos[0].Status)
			}
			if fx.lister.invalidations != 1 {
				t.Errorf("Expected the listing cache to be invalidated")
			}
		})
	}
}

func TestUpload_NoFile(t *testing.T) {
	fx := newFixture()

	req := authedRequest(http.MethodPost, "/api/videos/upload", "", strings.NewReader(""),
		middleware.Identity{UserID: "u1", Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Upload()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestMyVideos_EmptyIsNotNull(t *testing.T) {
	fx := newFixture()

	req := authedRequest(http.MethodGet, "/api/videos/my-videos", "", nil,
		middleware.Identity{UserID: "u1", Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.MyVideos()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("Expected empty JSON array, got %s", got)
	}
}

func TestDelete(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendBucket, types.StatusUploaded, "")

	req := authedRequest(http.MethodDelete, "/api/videos/delete/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanPaid})
	rec := httptest.NewRecorder()

	fx.handlers.Delete()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := fx.storage.GetVideoByID("v1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatal("Expected record to be deleted")
	}
	if len(fx.bucket.removed) != 1 || fx.bucket.removed[0] != "bucket/talk.mp4" {
		t.Errorf("Expected bucket object removal, got %v", fx.bucket.removed)
	}
	if len(fx.stream.removed) != 0 {
		t.Errorf("Stream store must not be touched, got %v", fx.stream.removed)
	}
}

func TestDelete_NotOwner(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "")

	req := authedRequest(http.MethodDelete, "/api/videos/delete/v1", "v1", nil,
		middleware.Identity{UserID: "u2", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Delete()(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
	if _, err := fx.storage.GetVideoByID("v1"); err != nil {
		t.Fatal("Record must not be deleted")
	}
}

func TestDelete_AdminMayDeleteAny(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "")

	req := authedRequest(http.MethodDelete, "/api/videos/delete/v1", "v1", nil,
		middleware.Identity{UserID: "admin1", Role: types.RoleAdmin, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Delete()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestTranscribe_FreePlan(t *testing.T) {
	fx := newFixture()
	fx.addUser("u1", types.PlanFree, types.RoleUser)
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "")

	req := authedRequest(http.MethodPost, "/api/videos/transcribe/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Transcribe()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	video, _ := fx.storage.GetVideoByID("v1")
	if video.Status != types.StatusProcessing {
		t.Errorf("Expected status processing, got %s", video.Status)
	}
	if video.TranscriptionJob != "cb-job-1" {
		t.Errorf("Expected job reference to be recorded, got %q", video.TranscriptionJob)
	}

	if len(fx.callback.webhookURLs) != 1 {
		t.Fatalf("Expected one callback submission, got %d", len(fx.callback.webhookURLs))
	}
	want := "http://localhost:8080/api/videos/webhook?videoId=v1"
	if fx.callback.webhookURLs[0] != want {
		t.Errorf("Unexpected webhook URL: %s", fx.callback.webhookURLs[0])
	}

	if len(fx.polled.started) != 0 {
		t.Error("Batch provider must not be used for free plan")
	}
	if len(fx.tracker.tracked) != 0 {
		t.Error("Callback jobs must not be tracked by the poll runner")
	}
	if len(fx.publisher.events) != 1 || fx.publisher.events[0] != types.StatusProcessing {
		t.Errorf("Expected a processing event, got %v", fx.publisher.events)
	}
}

func TestTranscribe_PaidPlan(t *testing.T) {
	fx := newFixture()
	fx.addUser("u1", types.PlanPaid, types.RoleUser)
	fx.addVideo("v1", "u1", types.BackendBucket, types.StatusUploaded, "")

	req := authedRequest(http.MethodPost, "/api/videos/transcribe/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanPaid})
	rec := httptest.NewRecorder()

	fx.handlers.Transcribe()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(fx.polled.started) != 1 || fx.polled.started[0] != "bucket/talk.mp4" {
		t.Fatalf("Expected batch job for the bucket object, got %v", fx.polled.started)
	}
	if len(fx.callback.webhookURLs) != 0 {
		t.Error("Callback provider must not be used for paid plan")
	}
	if len(fx.tracker.tracked) != 1 || fx.tracker.tracked[0] != "v1" {
		t.Fatalf("Expected the job to be handed to the poll runner, got %v", fx.tracker.tracked)
	}
}

// The provider follows the owner's plan even when an admin starts the job.
func TestTranscribe_AdminUsesOwnerPlan(t *testing.T) {
	fx := newFixture()
	fx.addUser("u1", types.PlanFree, types.RoleUser)
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "")

	req := authedRequest(http.MethodPost, "/api/videos/transcribe/v1", "v1", nil,
		middleware.Identity{UserID: "admin1", Role: types.RoleAdmin, Plan: types.PlanPaid})
	rec := httptest.NewRecorder()

	fx.handlers.Transcribe()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(fx.callback.webhookURLs) != 1 {
		t.Error("Expected the free-plan callback path for a free owner")
	}
	if len(fx.polled.started) != 0 {
		t.Error("Batch provider must not be used for a free owner")
	}
}

func TestTranscribe_NotOwner(t *testing.T) {
	fx := newFixture()
	fx.addUser("u1", types.PlanFree, types.RoleUser)
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "")

	req := authedRequest(http.MethodPost, "/api/videos/transcribe/v1", "v1", nil,
		middleware.Identity{UserID: "u2", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Transcribe()(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}

	video, _ := fx.storage.GetVideoByID("v1")
	if video.Status != types.StatusUploaded {
		t.Errorf("Record must be untouched, got status %s", video.Status)
	}
}

func TestTranscribe_WrongState(t *testing.T) {
	fx := newFixture()
	fx.addUser("u1", types.PlanFree, types.RoleUser)

	for _, status := range []types.Status{types.StatusProcessing, types.StatusTranscribed, types.StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			fx.addVideo("v1", "u1", types.BackendStream, status, "")

			req := authedRequest(http.MethodPost, "/api/videos/transcribe/v1", "v1", nil,
				middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
			rec := httptest.NewRecorder()

			fx.handlers.Transcribe()(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400 for status %s, got %d", status, rec.Code)
			}
		})
	}

	if len(fx.callback.webhookURLs) != 0 {
		t.Error("No provider submission may happen from a non-uploaded state")
	}
}

func TestTranscribe_ProviderRejection(t *testing.T) {
	fx := newFixture()
	fx.addUser("u1", types.PlanFree, types.RoleUser)
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "")
	fx.callback.submitErr = fmt.Errorf("%w: service down", apperr.ErrUpstream)

	req := authedRequest(http.MethodPost, "/api/videos/transcribe/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Transcribe()(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}

	video, _ := fx.storage.GetVideoByID("v1")
	if video.Status != types.StatusFailed {
		t.Errorf("Expected the claimed record to be failed, got %s", video.Status)
	}
}

func webhookRequestFor(videoID, status, transcriptID string) *http.Request {
	payload, _ := json.Marshal(map[string]string{
		"status":        status,
		"transcript_id": transcriptID,
	})
	return httptest.NewRequest(http.MethodPost,
		"/api/videos/webhook?videoId="+videoID, bytes.NewReader(payload))
}

func TestWebhook_Completed(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusProcessing, "")

	rec := httptest.NewRecorder()
	fx.handlers.Webhook()(rec, webhookRequestFor("v1", "completed", "cb-job-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	video, _ := fx.storage.GetVideoByID("v1")
	if video.Status != types.StatusTranscribed {
		t.Errorf("Expected status transcribed, got %s", video.Status)
	}
	if video.Transcript != "hello transcript" {
		t.Errorf("Expected transcript to be persisted, got %q", video.Transcript)
	}
	if len(fx.callback.fetched) != 1 || fx.callback.fetched[0] != "cb-job-1" {
		t.Errorf("Expected transcript fetch for cb-job-1, got %v", fx.callback.fetched)
	}
	if len(fx.publisher.events) != 1 || fx.publisher.events[0] != types.StatusTranscribed {
		t.Errorf("Expected a transcribed event, got %v", fx.publisher.events)
	}
}

func TestWebhook_Failed(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusProcessing, "")

	rec := httptest.NewRecorder()
	fx.handlers.Webhook()(rec, webhookRequestFor("v1", "failed", "cb-job-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	video, _ := fx.storage.GetVideoByID("v1")
	if video.Status != types.StatusFailed {
		t.Errorf("Expected status failed, got %s", video.Status)
	}
}

// A repeated callback for an already settled record answers 200 without
// changing anything.
func TestWebhook_Idempotent(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusProcessing, "")

	rec := httptest.NewRecorder()
	fx.handlers.Webhook()(rec, webhookRequestFor("v1", "completed", "cb-job-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("First webhook failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	fx.handlers.Webhook()(rec, webhookRequestFor("v1", "completed", "cb-job-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected repeated webhook to answer 200, got %d", rec.Code)
	}

	video, _ := fx.storage.GetVideoByID("v1")
	if video.Status != types.StatusTranscribed {
		t.Errorf("Expected status to stay transcribed, got %s", video.Status)
	}
	if len(fx.publisher.events) != 1 {
		t.Errorf("Repeated webhook must not publish again, got %v", fx.publisher.events)
	}
}

func TestWebhook_DeletedRecord(t *testing.T) {
	fx := newFixture()

	rec := httptest.NewRecorder()
	fx.handlers.Webhook()(rec, webhookRequestFor("gone", "completed", "cb-job-1"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for a deleted record, got %d", rec.Code)
	}
}

func TestWebhook_MissingVideoID(t *testing.T) {
	fx := newFixture()

	payload, _ := json.Marshal(map[string]string{"status": "completed"})
	req := httptest.NewRequest(http.MethodPost, "/api/videos/webhook", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	fx.handlers.Webhook()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestDownloadTranscript(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusTranscribed, "the transcript text")

	req := authedRequest(http.MethodGet, "/api/videos/download-transcript/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.DownloadTranscript()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "the transcript text" {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=talk.mp4.txt" {
		t.Errorf("Unexpected content disposition: %s", got)
	}
}

func TestDownloadTranscript_NotAvailable(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "")

	req := authedRequest(http.MethodGet, "/api/videos/download-transcript/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.DownloadTranscript()(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 without transcript, got %d", rec.Code)
	}
}

func TestSummarize(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusTranscribed, "a transcript")

	req := authedRequest(http.MethodPost, "/api/videos/summarize/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Summarize()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["summary"] != "short summary" {
		t.Errorf("Unexpected response: %v", resp)
	}

	video, _ := fx.storage.GetVideoByID("v1")
	if video.Summary != "short summary" {
		t.Errorf("Expected summary to be persisted, got %q", video.Summary)
	}
}

func TestSummarize_EmptyTranscript(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusUploaded, "   ")

	req := authedRequest(http.MethodPost, "/api/videos/summarize/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Summarize()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestSummarize_ProviderFailure(t *testing.T) {
	fx := newFixture()
	fx.addVideo("v1", "u1", types.BackendStream, types.StatusTranscribed, "a transcript")
	fx.summarizer.err = fmt.Errorf("%w: rate limited", apperr.ErrUpstream)

	req := authedRequest(http.MethodPost, "/api/videos/summarize/v1", "v1", nil,
		middleware.Identity{UserID: "u1", Role: types.RoleUser, Plan: types.PlanFree})
	rec := httptest.NewRecorder()

	fx.handlers.Summarize()(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
}
