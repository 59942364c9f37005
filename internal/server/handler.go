package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/pokepalette/internal/cache"
	spriteimage "github.com/jmylchreest/pokepalette/internal/image"
	"github.com/jmylchreest/pokepalette/internal/palette"
	"github.com/jmylchreest/pokepalette/internal/security"
	httputil "github.com/jmylchreest/pokepalette/internal/util/http"
	"github.com/jmylchreest/pokepalette/internal/version"
)

// PaletteResponse is the body of a successful palette request.
type PaletteResponse struct {
	ID        int               `json:"id"`
	Algorithm palette.Algorithm `json:"algorithm"`
	Palette   palette.Result    `json:"palette"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks client errors.
var errBadRequest = errors.New("bad request")

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Short(),
	})
}

// paletteFromUpload handles POST /api/v1/palette with a multipart "sprite" file.
func (s *Server) paletteFromUpload(c *gin.Context) {
	header, err := c.FormFile("sprite")
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("missing sprite upload: %w", err))
		return
	}

	file, err := header.Open()
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(security.NewLimitedReader(file, MaxSpriteBytes))
	if err != nil {
		s.fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	s.respond(c, data, header.Filename)
}

// paletteFromURL handles GET /api/v1/palette?url=...
func (s *Server) paletteFromURL(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		s.fail(c, http.StatusBadRequest, errors.New("missing url parameter"))
		return
	}
	if err := s.validateURL(url); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	data, err := httputil.Fetch(c.Request.Context(), url, s.fetch)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, security.ErrPrivateHost) {
			status = http.StatusBadRequest
		}
		s.fail(c, status, fmt.Errorf("failed to fetch sprite: %w", err))
		return
	}

	s.respond(c, data, stripQuery(url))
}

// respond parses the shared parameters, consults the cache and runs the extractor.
func (s *Server) respond(c *gin.Context, data []byte, name string) {
	id, alg, err := params(c)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	result, err := s.extract(c.Request.Context(), data, name, id, alg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errBadRequest) {
			status = http.StatusUnprocessableEntity
		}
		s.fail(c, status, err)
		return
	}

	c.JSON(http.StatusOK, PaletteResponse{ID: id, Algorithm: alg, Palette: result})
}

func (s *Server) extract(ctx context.Context, data []byte, name string, id int, alg palette.Algorithm) (palette.Result, error) {
	key := cache.Key(data, id, alg, 0)
	if result, err := s.cache.Get(ctx, key); err == nil {
		return result, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}

	img, err := spriteimage.Decode(bytes.NewReader(data), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	result, err := s.extractors[alg].Extract(img, id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = palette.Result{}
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return result, nil
}

// params reads id and algorithm from the query string or, failing that, the form.
func params(c *gin.Context) (int, palette.Algorithm, error) {
	id := 0
	if raw := formValue(c, "id"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, "", fmt.Errorf("invalid id %q: must be a non-negative integer", raw)
		}
		id = v
	}

	alg := palette.AlgorithmSprite
	if raw := formValue(c, "algorithm"); raw != "" {
		alg = palette.Algorithm(raw)
	}
	if !palette.IsValidAlgorithm(alg) {
		return 0, "", fmt.Errorf("%w: %s (valid algorithms: %v)", palette.ErrUnknownAlgorithm, alg, palette.ValidAlgorithms())
	}
	return id, alg, nil
}

func formValue(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

func stripQuery(url string) string {
	for i, r := range url {
		if r == '?' || r == '#' {
			return url[:i]
		}
	}
	return url
}
