package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 5 * time.Second

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the installed-app consent flow. It serves the redirect URL
// on the loopback interface, hands the consent URL to prompt, waits for
// Google to redirect back and stores the exchanged token.
func (s *Service) Authorize(ctx context.Context, prompt func(authURL string)) error {
	redirect, err := url.Parse(s.config.RedirectURL)
	if err != nil {
		return fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	if redirect.Host == "" {
		return fmt.Errorf("redirect URL %q has no host", s.config.RedirectURL)
	}

	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	state := uuid.NewString()
	results := make(chan callbackResult, 1)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET(callbackPath, func(c echo.Context) error {
		if c.QueryParam("state") != state {
			return c.String(http.StatusBadRequest, "Invalid state parameter")
		}

		result := callbackResult{code: c.QueryParam("code")}
		if reason := c.QueryParam("error"); reason != "" {
			result.err = fmt.Errorf("authorization denied: %s", reason)
		} else if result.code == "" {
			result.err = errors.New("authorization code missing from callback")
		}

		select {
		case results <- result:
		default:
		}

		if result.err != nil {
			return c.String(http.StatusBadRequest, result.err.Error())
		}
		return c.String(http.StatusOK, "Authorization complete. You may close this window.")
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	e.Listener = listener

	go func() {
		if err := e.Start(redirect.Host); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("OAuth callback server stopped: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to stop OAuth callback server: %v", err)
		}
	}()

	prompt(s.AuthCodeURL(state))

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return fmt.Errorf("authorization cancelled: %w", ctx.Err())
	}
	if result.err != nil {
		return result.err
	}

	return s.ExchangeToken(ctx, result.code)
}
