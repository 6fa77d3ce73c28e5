package web

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/conorfennell/lingodeck/internal/auth"
	"github.com/conorfennell/lingodeck/internal/domain"
	"github.com/conorfennell/lingodeck/internal/validate"
	"github.com/conorfennell/lingodeck/internal/web/respond"
)

// decode fills dst from a JSON body, or from form values via fromForm when
// the request is a form post.
func decode(r *http.Request, dst any, fromForm func(get func(string) string) error) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		return fromForm(r.PostFormValue)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// handleHealth pings the store.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			s.Logger.ErrorContext(ctx, "health check failed", "error", err)
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func decodeCredentials(r *http.Request) (auth.Credentials, error) {
	var c auth.Credentials
	err := decode(r, &c, func(get func(string) string) error {
		c.Username = get("username")
		c.Password = get("password")
		return nil
	})
	return c, err
}

func (s *Server) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := decodeCredentials(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		id, err := s.Auth.Register(r.Context(), c)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, id)
	}
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := decodeCredentials(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		session, err := s.Auth.Login(r.Context(), c)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			Secure:   s.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		respond.JSON(w, http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt.UTC()})
	}
}

func (s *Server) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Auth.Logout(r.Context(), auth.TokenFrom(r)); err != nil {
			respond.Error(w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, auth.IdentityFrom(r.Context()))
	}
}

type setSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardCount int    `json:"card_count"`
}

func (s *Server) handleListSets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat := s.Catalog.Load(r.Context())
		sets := make([]setSummary, 0, len(cat.Sets))
		for _, set := range cat.Sets {
			sets = append(sets, setSummary{ID: set.ID, Name: set.Name, CardCount: len(set.Cards)})
		}
		respond.JSON(w, http.StatusOK, map[string]any{"sets": sets})
	}
}

type deckResponse struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Cards []domain.Card `json:"cards"`
	Index int           `json:"index"`
}

// handleGetSet returns a deck with the caller's position, clamped to the
// deck's current length.
func (s *Server) handleGetSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setID := mux.Vars(r)["setId"]
		set, ok := s.Catalog.Load(r.Context()).Set(setID)
		if !ok {
			respond.Error(w, r, fmt.Errorf("set %s: %w", setID, domain.ErrNotFound))
			return
		}

		index, err := s.Tracker.CurrentIndex(r.Context(), auth.IdentityFrom(r.Context()), setID, len(set.Cards))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		cards := set.Cards
		if cards == nil {
			cards = []domain.Card{}
		}
		respond.JSON(w, http.StatusOK, deckResponse{ID: set.ID, Name: set.Name, Cards: cards, Index: index})
	}
}

type positionResponse struct {
	Status string `json:"status"`
	Index  int    `json:"index"`
}

func (s *Server) handleGetPosition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := s.Tracker.GetIndex(r.Context(), auth.IdentityFrom(r.Context()), mux.Vars(r)["setId"])
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, positionResponse{Status: "ok", Index: index})
	}
}

type positionRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

func (s *Server) handleSetPosition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req positionRequest
		err := decode(r, &req, func(get func(string) string) error {
			raw := get("index")
			if raw == "" {
				return nil
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%w: index must be an integer", domain.ErrInvalidInput)
			}
			req.Index = &n
			return nil
		})
		if err == nil {
			err = validate.Struct(req)
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if err := s.Tracker.SetIndex(r.Context(), auth.IdentityFrom(r.Context()), mux.Vars(r)["setId"], *req.Index); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, positionResponse{Status: "ok", Index: *req.Index})
	}
}

func (s *Server) handleResetPosition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Tracker.ResetIndex(r.Context(), auth.IdentityFrom(r.Context()), mux.Vars(r)["setId"]); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, positionResponse{Status: "ok", Index: 0})
	}
}

type ratingRequest struct {
	CardID string `json:"card_id"`
	Rating string `json:"rating"`
}

type ratingResponse struct {
	Status       string `json:"status"`
	NextReviewAt string `json:"next_review_at"`
}

// handleRecordRating schedules the rated card and returns its next due time.
func (s *Server) handleRecordRating() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ratingRequest
		err := decode(r, &req, func(get func(string) string) error {
			req.CardID = get("card_id")
			req.Rating = get("rating")
			return nil
		})
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		next, err := s.Scheduler.RecordRating(r.Context(), auth.IdentityFrom(r.Context()), req.CardID, req.Rating, s.now())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, ratingResponse{
			Status:       "ok",
			NextReviewAt: next.UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) handleDueCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.Selector.DueCards(r.Context(), auth.IdentityFrom(r.Context()), s.now())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func (s *Server) handleTopics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topics := s.Catalog.Load(r.Context()).Topics
		if topics == nil {
			topics = []domain.Topic{}
		}
		respond.JSON(w, http.StatusOK, map[string]any{"topics": topics})
	}
}

type syncResponse struct {
	Status string `json:"status"`
	Sets   int    `json:"sets"`
	Cards  int    `json:"cards"`
}

// handleCatalogSync pulls the catalog repository in the foreground and
// reports what the refreshed catalog holds.
func (s *Server) handleCatalogSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.CatalogSync == nil {
			respond.Message(w, http.StatusServiceUnavailable, "catalog sync is not configured")
			return
		}
		if err := s.CatalogSync.RunOnce(r.Context()); err != nil {
			respond.Message(w, http.StatusBadGateway, "catalog sync failed")
			return
		}
		if c, ok := s.Catalog.(interface{ Invalidate() }); ok {
			c.Invalidate()
		}

		cat := s.Catalog.Load(r.Context())
		respond.JSON(w, http.StatusOK, syncResponse{Status: "ok", Sets: len(cat.Sets), Cards: cat.Len()})
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusNotFound, "no such endpoint")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusMethodNotAllowed, "method not allowed")
}
