// Package session holds per-browser state between independent requests:
// who is signed in, which views are open, and the last recommendation
// batch.  A *Session is loaded by the HTTP layer and handed explicitly to
// every handler; nothing here is process-global.
package session

import (
	"time"

	"github.com/iliyamo/pickflix/internal/model"
)

// AuthForm names the credential form shown to a signed-out visitor.
type AuthForm string

const (
	FormLogin    AuthForm = "login"
	FormRegister AuthForm = "register"
)

// Session is the state of one browser session.
type Session struct {
	ID            string                 `json:"id"`
	LoggedIn      bool                   `json:"logged_in"`
	Username      string                 `json:"username,omitempty"`
	ShowLogin     bool                   `json:"show_login"`
	ShowRegister  bool                   `json:"show_register"`
	ShowWatchlist bool                   `json:"show_watchlist"`
	Batch         []model.Recommendation `json:"recommendations,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	ExpiresAt     time.Time              `json:"expires_at"`
}

// newSession returns a signed-out session showing the login form.
func newSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		ShowLogin: true,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session outlived its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SignIn marks the session as belonging to username and closes the
// credential forms.
func (s *Session) SignIn(username string) {
	s.LoggedIn = true
	s.Username = username
	s.ShowLogin = false
	s.ShowRegister = false
}

// signOut clears identity and every cached recommendation so nothing
// leaks into the next visitor's session.
func (s *Session) signOut() {
	s.LoggedIn = false
	s.Username = ""
	s.ShowWatchlist = false
	s.Batch = nil
	s.ShowLogin = true
	s.ShowRegister = false
}

// ShowAuthForm selects which credential form is open.  Login and register
// are exclusive; any other value is ignored.
func (s *Session) ShowAuthForm(form AuthForm) {
	switch form {
	case FormLogin:
		s.ShowLogin, s.ShowRegister = true, false
	case FormRegister:
		s.ShowLogin, s.ShowRegister = false, true
	}
}

// ToggleWatchlist flips the watchlist view and returns the new value.
func (s *Session) ToggleWatchlist() bool {
	s.ShowWatchlist = !s.ShowWatchlist
	return s.ShowWatchlist
}

// SetRecommendations replaces the cached batch.
func (s *Session) SetRecommendations(batch []model.Recommendation) {
	s.Batch = append([]model.Recommendation(nil), batch...)
}

// Recommendations returns the cached batch in display order.
func (s *Session) Recommendations() []model.Recommendation {
	return s.Batch
}

// Recommendation finds the cached entry for movieID.
func (s *Session) Recommendation(movieID int64) (model.Recommendation, bool) {
	for _, r := range s.Batch {
		if r.Movie.ID == movieID {
			return r, true
		}
	}
	return model.Recommendation{}, false
}

// SimilarMovies, Posters, Names and Descriptions are the batch split into
// parallel sequences.  All four always have the same length.
func (s *Session) SimilarMovies() []model.Movie {
	out := make([]model.Movie, len(s.Batch))
	for i, r := range s.Batch {
		out[i] = r.Movie
	}
	return out
}

func (s *Session) Posters() []string {
	out := make([]string, len(s.Batch))
	for i, r := range s.Batch {
		out[i] = r.PosterURL
	}
	return out
}

func (s *Session) Names() []string {
	out := make([]string, len(s.Batch))
	for i, r := range s.Batch {
		out[i] = r.Name
	}
	return out
}

func (s *Session) Descriptions() []string {
	out := make([]string, len(s.Batch))
	for i, r := range s.Batch {
		out[i] = r.Description
	}
	return out
}

// View is what the presentation layer should render for a session.
type View struct {
	LoggedIn        bool     `json:"logged_in"`
	Username        string   `json:"username,omitempty"`
	AuthForm        AuthForm `json:"auth_form,omitempty"`
	Watchlist       bool     `json:"show_watchlist"`
	Recommendations bool     `json:"show_recommendations"`
}

// View applies display precedence: a signed-out session always gets a
// credential form (login unless register was chosen) and never the
// watchlist or recommendations, whatever the stored flags say.
func (s *Session) View() View {
	if !s.LoggedIn {
		form := FormLogin
		if s.ShowRegister && !s.ShowLogin {
			form = FormRegister
		}
		return View{AuthForm: form}
	}
	return View{
		LoggedIn:        true,
		Username:        s.Username,
		Watchlist:       s.ShowWatchlist,
		Recommendations: len(s.Batch) > 0,
	}
}
