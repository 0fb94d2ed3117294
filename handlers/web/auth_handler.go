package web

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"lunabot/config"
	"lunabot/interfaces"
)

const sessionName = "luna_session"

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// AuthHandler はDiscord OAuth2によるダッシュボードのログインを処理します。
type AuthHandler struct {
	log      interfaces.Logger
	oauth    *oauth2.Config
	sessions sessions.Store
	userURL  string
}

func NewAuthHandler(log interfaces.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		log: log,
		oauth: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		},
		sessions: sessions.NewCookieStore([]byte(cfg.SessionSecret)),
		userURL:  "https://discord.com/api/users/@me",
	}
}

// Login はDiscord OAuth2のログインフローを開始します。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		h.log.Error("stateの生成に失敗", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["oauth_state"] = state
	if err := session.Save(r, w); err != nil {
		h.log.Error("セッションの保存に失敗", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback はDiscordからの認証コールバックを処理し、セッションを開始します。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)

	state, _ := session.Values["oauth_state"].(string)
	if state == "" || r.URL.Query().Get("state") != state {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	delete(session.Values, "oauth_state")

	token, err := h.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.log.Error("トークン交換に失敗", "error", err)
		http.Error(w, "token exchange failed", http.StatusBadGateway)
		return
	}

	resp, err := h.oauth.Client(r.Context(), token).Get(h.userURL)
	if err != nil {
		h.log.Error("ユーザー情報の取得に失敗", "error", err)
		http.Error(w, "failed to fetch user", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		http.Error(w, "failed to decode user", http.StatusBadGateway)
		return
	}

	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	if err := session.Save(r, w); err != nil {
		h.log.Error("セッションの保存に失敗", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Me はログイン中のユーザー情報を返します。未ログインは401。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	userID, _ := session.Values["user_id"].(string)
	if userID == "" {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	username, _ := session.Values["username"].(string)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":       userID,
		"username": username,
	})
}

// Logout はセッションを破棄します。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
	w.WriteHeader(http.StatusNoContent)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
