package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLinks resolves every token to a single canned link.
type stubLinks struct {
	link *models.LinkDetail
}

func (s *stubLinks) Create(context.Context, string, int64, int) (*models.InterviewLink, error) {
	return nil, utils.E(utils.CodeInternal, "stub", "not implemented", nil)
}

func (s *stubLinks) GetByToken(_ context.Context, token string) (*models.LinkDetail, error) {
	if s.link == nil || s.link.UniqueToken != token {
		return nil, utils.E(utils.CodeNotFound, "stub", "invalid interview link", nil)
	}
	return s.link, nil
}

func (s *stubLinks) Validate(ctx context.Context, token string) (*models.LinkDetail, error) {
	return s.GetByToken(ctx, token)
}

func (s *stubLinks) ValidateReadable(ctx context.Context, token string) (*models.LinkDetail, error) {
	return s.GetByToken(ctx, token)
}

func (s *stubLinks) MarkUsed(context.Context, string) (*models.InterviewLink, error) {
	return nil, utils.E(utils.CodeInternal, "stub", "not implemented", nil)
}

func (s *stubLinks) ListByInterview(context.Context, int64) ([]models.LinkWithCandidate, error) {
	return nil, nil
}

var _ services.LinkService = (*stubLinks)(nil)

// stubRanges serves ranges out of a byte slice.
type stubRanges struct {
	content     []byte
	contentType string
}

func (s *stubRanges) NewRangeReader(_ context.Context, _ string, offset, length int64) (io.ReadCloser, error) {
	if offset >= int64(len(s.content)) {
		return nil, fmt.Errorf("offset out of range")
	}
	end := int64(len(s.content))
	if length >= 0 && offset+length < end {
		end = offset + length
	}
	return io.NopCloser(bytes.NewReader(s.content[offset:end])), nil
}

func (s *stubRanges) Attrs(context.Context, string) (int64, string, error) {
	return int64(len(s.content)), s.contentType, nil
}

func newProxyRouter(interviewerID int64, links *stubLinks, ranges *stubRanges) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", interviewerID)
	})
	h := NewVideoHandler(nil, links, ranges)
	r.GET("/api/interviews/video-proxy", h.Proxy)
	return r
}

func proxyLink(token string, interviewerID int64) *models.LinkDetail {
	return &models.LinkDetail{
		InterviewLink: models.InterviewLink{UniqueToken: token},
		RoleID:        1,
		InterviewerID: interviewerID,
	}
}

const proxyToken = "tok123"

func proxyURL() string {
	return "/api/interviews/video-proxy?url=" +
		"https%3A%2F%2Fstorage.googleapis.com%2Ftest-bucket%2Finterviews%2F" + proxyToken + "%2F1-cand.webm"
}

func TestProxyFullContent(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 7)}
	ranges := &stubRanges{content: []byte("0123456789"), contentType: "video/webm"}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, proxyURL(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, "video/webm", w.Header().Get("Content-Type"))
	assert.Equal(t, "10", w.Header().Get("Content-Length"))
	assert.Equal(t, "0123456789", w.Body.String())
}

func TestProxyPartialContent(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 7)}
	ranges := &stubRanges{content: []byte("0123456789")}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, proxyURL(), nil)
	req.Header.Set("Range", "bytes=2-5")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 2-5/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, "2345", w.Body.String())
}

func TestProxyOpenEndedRange(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 7)}
	ranges := &stubRanges{content: []byte("0123456789")}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, proxyURL(), nil)
	req.Header.Set("Range", "bytes=6-")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 6-9/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "6789", w.Body.String())
}

func TestProxyRangeBeyondSize(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 7)}
	ranges := &stubRanges{content: []byte("0123456789")}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, proxyURL(), nil)
	req.Header.Set("Range", "bytes=10-")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
	assert.Equal(t, "bytes */10", w.Header().Get("Content-Range"))
}

func TestProxyForeignInterviewerForbidden(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 99)}
	ranges := &stubRanges{content: []byte("0123456789")}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, proxyURL(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProxyRejectsForeignURL(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 7)}
	ranges := &stubRanges{content: []byte("0123456789")}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/interviews/video-proxy?url=https%3A%2F%2Fevil.test%2Fvideo.webm", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProxyClampsRangeEnd(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 7)}
	ranges := &stubRanges{content: []byte("0123456789")}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, proxyURL(), nil)
	req.Header.Set("Range", "bytes=8-500")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 8-9/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "89", w.Body.String())
}

func TestProxySuffixRange(t *testing.T) {
	links := &stubLinks{link: proxyLink(proxyToken, 7)}
	ranges := &stubRanges{content: []byte("0123456789")}
	r := newProxyRouter(7, links, ranges)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, proxyURL(), nil)
	req.Header.Set("Range", "bytes=-4")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 6-9/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "6789", w.Body.String())
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("bytes=0-0", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, start)
	assert.EqualValues(t, 0, end)

	_, _, err = parseRange("items=0-1", 10)
	assert.Error(t, err)

	_, _, err = parseRange("bytes=5-2", 10)
	assert.Error(t, err)

	// Suffix form serves the final n bytes, clamped to the object size.
	start, end, err = parseRange("bytes=-5", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 5, start)
	assert.EqualValues(t, 9, end)

	start, end, err = parseRange("bytes=-500", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, start)
	assert.EqualValues(t, 9, end)

	_, _, err = parseRange("bytes=-", 10)
	assert.Error(t, err)

	_, _, err = parseRange("bytes=-0", 10)
	assert.Error(t, err)
}
