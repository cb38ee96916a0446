package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/logging"
)

// respondError renders err through the shared taxonomy. Anything that
// renders as 500 is logged with the request id.
func respondError(c *gin.Context, err error) {
	status, body := dto.NewErrorResponse(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func bindError(err error) error {
	return apperr.Validation("invalid_body", "request body is not valid JSON for this endpoint",
		apperr.Violation{Field: "body", Rule: "json", Message: err.Error()})
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id < 1 {
		respondError(c, apperr.NotFound("not_found", "no resource with id "+strconv.Quote(c.Param(param))))
		return 0, false
	}
	return id, true
}

// Paginator parses the page and limit query parameters shared by every
// paginated list.
type Paginator struct {
	DefaultLimit int
	MaxLimit     int
}

type pageRequest struct {
	number int
	limit  int
}

func (r pageRequest) repo() repository.Page {
	return repository.Page{Limit: r.limit, Offset: (r.number - 1) * r.limit}
}

func (p Paginator) parse(c *gin.Context) (pageRequest, error) {
	req := pageRequest{number: 1, limit: p.DefaultLimit}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, invalidPage()
		}
		req.number = n
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			req.limit = n
		}
	}
	if p.MaxLimit > 0 && req.limit > p.MaxLimit {
		req.limit = p.MaxLimit
	}
	return req, nil
}

func invalidPage() error {
	return apperr.NotFound("invalid_page", "invalid page")
}

// page builds the envelope with absolute next/previous links. A page past
// the end of a non-empty result set is an error.
func page[T any](c *gin.Context, req pageRequest, total int64, results []T) (dto.Page[T], error) {
	if req.number > 1 && len(results) == 0 {
		return dto.Page[T]{}, invalidPage()
	}
	out := dto.Page[T]{Count: total, Results: results}
	if out.Results == nil {
		out.Results = []T{}
	}
	if int64(req.number*req.limit) < total {
		next := pageLink(c, req.number+1)
		out.Next = &next
	}
	if req.number > 1 {
		prev := pageLink(c, req.number-1)
		out.Previous = &prev
	}
	return out, nil
}

func pageLink(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	q := c.Request.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

// truthy accepts the flag spellings clients send for boolean filters.
func truthy(v string) bool {
	switch v {
	case "1", "true", "True", "yes":
		return true
	}
	return false
}
