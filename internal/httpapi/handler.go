package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/lecture-notes/internal/intake"
	"github.com/nguyentantai21042004/lecture-notes/internal/lecture"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/runs"
)

const (
	maxUploadBytes = 512 << 20
	maxFrameBytes  = 1 << 20
)

var errRecordingNotFound = errors.New("recording not found")

// Handler implements the lecture API routes.
type Handler struct {
	service    lecture.Service
	store      *runs.Store
	stager     intake.Stager
	recordings *intake.Recordings
	tempDir    string
	logger     logger.Logger
}

func NewHandler(svc lecture.Service, store *runs.Store, stager intake.Stager, recordings *intake.Recordings, tempDir string, log logger.Logger) *Handler {
	return &Handler{
		service:    svc,
		store:      store,
		stager:     stager,
		recordings: recordings,
		tempDir:    tempDir,
		logger:     log,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.POST("/lectures", h.uploadLecture)
	api.GET("/runs", h.listRuns)
	api.GET("/runs/:id", h.getRun)
	api.GET("/runs/:id/audio", h.runAudio)
	api.GET("/events", h.events)

	api.POST("/recordings", h.createRecording)
	api.POST("/recordings/:id/frames", h.pushFrame)
	api.POST("/recordings/:id/save", h.saveRecording)
	api.DELETE("/recordings/:id", h.discardRecording)
}

func (h *Handler) health(c *gin.Context) {
	active, capacity := h.service.Active()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"active":     active,
		"capacity":   capacity,
		"recordings": h.recordings.Len(),
	})
}

// uploadLecture stages the multipart field "audio" and submits it.
func (h *Handler) uploadLecture(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fh, err := c.FormFile("audio")
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("multipart field \"audio\" is required: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	audio, err := h.stager.Stage(ctx, fh.Filename, f)
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}

	run, err := h.service.Submit(ctx, runs.SourceUpload, audio)
	if err != nil {
		_ = audio.Remove()
		respondError(c, statusFor(err), err)
		return
	}
	respond(c, http.StatusAccepted, run)
}

func (h *Handler) listRuns(c *gin.Context) {
	respond(c, http.StatusOK, h.store.List())
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	respond(c, http.StatusOK, run)
}

// runAudio streams the audio of a run for playback.
func (h *Handler) runAudio(c *gin.Context) {
	run, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	if run.AudioPath == "" {
		respondError(c, http.StatusNotFound, errors.New("run has no audio"))
		return
	}
	if _, err := os.Stat(run.AudioPath); err != nil {
		respondError(c, http.StatusNotFound, errors.New("audio no longer available"))
		return
	}
	c.File(run.AudioPath)
}

func (h *Handler) events(c *gin.Context) {
	var since int64
	if s := c.Query("since"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			respondError(c, http.StatusBadRequest, fmt.Errorf("invalid since %q", s))
			return
		}
		since = v
	}
	respond(c, http.StatusOK, h.store.Events(since))
}

func (h *Handler) createRecording(c *gin.Context) {
	id, err := h.recordings.Create()
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	rec, _ := h.recordings.Get(id)
	respond(c, http.StatusCreated, gin.H{"id": id, "sampleRate": rec.SampleRate()})
}

// pushFrame appends the raw little-endian PCM16 request body as one frame.
func (h *Handler) pushFrame(c *gin.Context) {
	rec, ok := h.recordings.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, errRecordingNotFound)
		return
	}

	frame, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes))
	if err != nil {
		respondError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("read frame: %w", err))
		return
	}
	if err := rec.Push(frame); err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"frames": rec.Len(), "dropped": rec.Dropped()})
}

// saveRecording seals the recorder, writes its WAV file and submits it.
func (h *Handler) saveRecording(c *gin.Context) {
	id := c.Param("id")
	rec, ok := h.recordings.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, errRecordingNotFound)
		return
	}

	audio, err := rec.SaveFile(h.tempDir, c.Query("name"))
	if err != nil {
		respondError(c, statusFor(err), err)
		return
	}
	h.recordings.Remove(id)
	if rec.Dropped() > 0 {
		h.logger.Warn(c.Request.Context(), "Recording %s dropped %d frames", id, rec.Dropped())
	}

	run, err := h.service.Submit(c.Request.Context(), runs.SourceRecording, audio)
	if err != nil {
		_ = audio.Remove()
		respondError(c, statusFor(err), err)
		return
	}
	respond(c, http.StatusAccepted, run)
}

func (h *Handler) discardRecording(c *gin.Context) {
	if !h.recordings.Remove(c.Param("id")) {
		respondError(c, http.StatusNotFound, errRecordingNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}
