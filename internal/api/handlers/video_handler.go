package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/storage"
	"github.com/hirevid/hirevid/internal/utils"
)

const maxUploadBytes = 500 << 20

type VideoHandler struct {
	svc    services.VideoService
	links  services.LinkService
	ranges storage.RangeReader
}

func NewVideoHandler(svc services.VideoService, links services.LinkService, ranges storage.RangeReader) *VideoHandler {
	return &VideoHandler{svc: svc, links: links, ranges: ranges}
}

// SubmitAnswer accepts a multipart upload with fields question_id,
// candidate_email, recording_duration and file part "video".
func (h *VideoHandler) SubmitAnswer(c *gin.Context) {
	const op = "VideoHandler.SubmitAnswer"

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	questionID, err := strconv.ParseInt(c.PostForm("question_id"), 10, 64)
	if err != nil || questionID <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "question_id is required", err))
		return
	}

	var duration *float64
	if raw := c.PostForm("recording_duration"); raw != "" {
		if d, perr := strconv.ParseFloat(raw, 64); perr == nil && d >= 0 {
			duration = &d
		}
	}

	fh, err := c.FormFile("video")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "video file is required", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}
	defer f.Close()
	video, err := io.ReadAll(f)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}

	answer, err := h.svc.SubmitAnswer(c.Request.Context(), services.SubmitAnswerInput{
		Token:             c.Param("token"),
		QuestionID:        questionID,
		CandidateEmail:    c.PostForm("candidate_email"),
		Video:             video,
		ContentType:       fh.Header.Get("Content-Type"),
		Filename:          fh.Filename,
		RecordingDuration: duration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, answer)
}

func (h *VideoHandler) ListAnswers(c *gin.Context) {
	link, answers, err := h.svc.ListAnswers(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidate_email": link.CandidateEmail,
		"answers":         answers,
	})
}

func (h *VideoHandler) Responses(c *gin.Context) {
	interviewerID, ok := requireInterviewer(c)
	if !ok {
		return
	}

	var roleID *int64
	if raw := c.Query("role_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(c, utils.E(utils.CodeInvalidArgument, "VideoHandler.Responses", "invalid role_id", err))
			return
		}
		roleID = &id
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	rows, err := h.svc.ListForInterviewer(c.Request.Context(), interviewerID, roleID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *VideoHandler) ResponseByToken(c *gin.Context) {
	interviewerID, ok := requireInterviewer(c)
	if !ok {
		return
	}

	link, answers, err := h.svc.GetForInterviewer(c.Request.Context(), interviewerID, c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidate_email": link.CandidateEmail,
		"role_title":      link.RoleTitle,
		"answers":         answers,
	})
}

// Proxy streams a stored recording with byte-range support so the browser
// can seek. The object is resolved from the ?url= query and access is
// checked against the link embedded in the object path.
func (h *VideoHandler) Proxy(c *gin.Context) {
	const op = "VideoHandler.Proxy"

	interviewerID, ok := requireInterviewer(c)
	if !ok {
		return
	}

	objectName := storage.ObjectNameFromURL(c.Query("url"))
	if objectName == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "url must reference a stored video", nil))
		return
	}

	// Object paths are interviews/<token>/<file>; the token scopes ownership.
	parts := strings.Split(objectName, "/")
	if len(parts) < 3 || parts[0] != "interviews" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "url must reference a stored video", nil))
		return
	}
	link, err := h.links.GetByToken(c.Request.Context(), parts[1])
	if err != nil {
		writeError(c, err)
		return
	}
	if link.InterviewerID != 0 && link.InterviewerID != interviewerID {
		writeError(c, utils.E(utils.CodeForbidden, op, "you do not have access to this video", nil))
		return
	}

	size, contentType, err := h.ranges.Attrs(c.Request.Context(), objectName)
	if err != nil {
		writeError(c, utils.E(utils.CodeNotFound, op, "video not found", err))
		return
	}
	if contentType == "" {
		contentType = "video/webm"
	}

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Type", contentType)

	rangeHeader := c.GetHeader("Range")
	if rangeHeader == "" {
		h.stream(c, objectName, 0, -1, size, http.StatusOK)
		return
	}

	start, end, perr := parseRange(rangeHeader, size)
	if perr != nil {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	h.stream(c, objectName, start, end-start+1, size, http.StatusPartialContent)
}

func (h *VideoHandler) stream(c *gin.Context, objectName string, offset, length, size int64, status int) {
	r, err := h.ranges.NewRangeReader(c.Request.Context(), objectName, offset, length)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "VideoHandler.Proxy", "failed to open video", err))
		return
	}
	defer r.Close()

	if length < 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	} else {
		c.Header("Content-Length", strconv.FormatInt(length, 10))
	}
	c.Status(status)

	// Headers are committed; a copy error can only cut the stream short.
	_, _ = io.Copy(c.Writer, r)
}

// parseRange handles the single-range forms "bytes=start-end" and the
// suffix form "bytes=-n" (the final n bytes). An open end reads to EOF;
// a start at or past the object size is unsatisfiable.
func parseRange(header string, size int64) (start, end int64, err error) {
	value, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, fmt.Errorf("unsupported range unit")
	}
	startStr, endStr, found := strings.Cut(value, "-")
	if !found {
		return 0, 0, fmt.Errorf("malformed range")
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		n, perr := strconv.ParseInt(endStr, 10, 64)
		if perr != nil || n <= 0 {
			return 0, 0, fmt.Errorf("malformed suffix range")
		}
		if n > size {
			n = size
		}
		if n == 0 {
			return 0, 0, fmt.Errorf("empty object")
		}
		return size - n, size - 1, nil
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range start")
	}
	if start >= size {
		return 0, 0, fmt.Errorf("range start beyond object size")
	}

	end = size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("malformed range end")
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, nil
}
