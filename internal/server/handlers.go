package server

import (
	"context"
	"errors"
	"time"

	"adscout/internal/classifier"

	"github.com/gofiber/fiber/v2"
)

type classifyRequest struct {
	URL string `json:"url"`
}

// classifyResponse is the wire shape of a classification. The embedded
// result contributes type, url, suggestedCampaignType, and the optional
// variant fields.
type classifyResponse struct {
	Success bool `json:"success"`
	classifier.Result
	Error string `json:"error,omitempty"`
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.URL == "" {
		return badRequest(c, "URL is required")
	}

	accessToken := ""
	if s.sessions != nil {
		accessToken = s.sessions.AccessToken(c.Cookies(s.sessions.CookieName()))
	}

	start := time.Now()
	result, err := s.classifier.Classify(c.Context(), req.URL, accessToken)
	if err != nil {
		// Safety rejections share the generic message with parse failures so
		// the endpoint cannot be used to probe internal address space.
		if errors.Is(err, classifier.ErrInvalidURL) || errors.Is(err, classifier.ErrUnsafeURL) {
			return badRequest(c, "Invalid URL")
		}
		return err
	}

	if s.audit != nil {
		// Detached from the request: the fiber context is recycled once the
		// handler returns, and a slow insert must not delay the response.
		id := requestID(c)
		duration := time.Since(start)
		go s.audit.Record(context.Background(), id, result, duration)
	}

	return c.JSON(classifyResponse{Success: true, Result: result})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
