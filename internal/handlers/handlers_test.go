package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/auth"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/brawl"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/cache"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/config"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/leaderboard"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/locator"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
	redisStore "github.com/asterix1221/brawl-leaderboard-sub000/internal/redis"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/repository"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/router"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/token"
)

const jwtSecret = "test-secret-key-that-is-long-enough-for-validation"

// app wires the full dispatch pipeline against in-memory repositories.
type app struct {
	router  *router.Router
	players *repository.MemoryPlayerRepository
	scores  *repository.MemoryScoreRepository
	seasons *repository.MemorySeasonRepository
	users   *repository.MemoryUserRepository
	tokens  *token.Service
}

func newApp(t *testing.T, brawlBaseURL string) *app {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	jwtCfg := &config.JWTConfig{
		Secret:             jwtSecret,
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "test",
		Algorithm:          "HS256",
	}

	store := redisStore.NewMemoryStore(log)
	t.Cleanup(func() { _ = store.Close() })

	users := repository.NewMemoryUserRepository()
	players := repository.NewMemoryPlayerRepository()
	scores := repository.NewMemoryScoreRepository(players)
	seasons := repository.NewMemorySeasonRepository()

	tokens, err := token.NewService(jwtCfg)
	require.NoError(t, err)

	authService := auth.NewService(users, tokens, jwtCfg, log)
	ranker := leaderboard.NewRanker(
		scores, players, seasons,
		cache.New(store, log),
		&config.CacheConfig{LeaderboardTTL: 5 * time.Minute},
		log,
	)

	services := locator.New()
	services.Register("middleware.auth", func(*locator.Locator) (any, error) {
		return NewAuthMiddleware(tokens, log), nil
	})
	services.Register("handler.auth", func(*locator.Locator) (any, error) {
		return NewAuthHandler(authService, log), nil
	})
	services.Register("handler.leaderboard", func(*locator.Locator) (any, error) {
		return NewLeaderboardHandler(ranker, log), nil
	})
	services.Register("handler.player", func(*locator.Locator) (any, error) {
		brawlCfg := &config.BrawlConfig{BaseURL: brawlBaseURL, Timeout: time.Second}
		return NewPlayerHandler(players, users, brawl.NewClient(brawlCfg, log), log), nil
	})
	services.Register("handler.score", func(*locator.Locator) (any, error) {
		return NewScoreHandler(scores, players, seasons, ranker, log), nil
	})

	rt := router.New(services, log)
	rt.Register(http.MethodPost, "/auth/register", "handler.auth", "register")
	rt.Register(http.MethodPost, "/auth/login", "handler.auth", "login")
	rt.Register(http.MethodPost, "/auth/refresh", "handler.auth", "refresh")
	rt.Register(http.MethodGet, "/leaderboards/global", "handler.leaderboard", "page")
	rt.Register(http.MethodGet, "/players/search", "handler.player", "search")
	rt.Register(http.MethodGet, "/players/:playerId", "handler.player", "get", "middleware.auth")
	rt.Register(http.MethodPost, "/players/link", "handler.player", "link", "middleware.auth")
	rt.Register(http.MethodPost, "/scores", "handler.score", "upsert", "middleware.auth")
	rt.Register(http.MethodPut, "/scores", "handler.score", "upsert", "middleware.auth")

	return &app{
		router:  rt,
		players: players,
		scores:  scores,
		seasons: seasons,
		users:   users,
		tokens:  tokens,
	}
}

func (a *app) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	a.seasons.Add(&models.Season{
		ID:        "s1",
		Name:      "Season 1",
		StartDate: time.Now().Add(-24 * time.Hour),
		EndDate:   time.Now().Add(24 * time.Hour),
		IsActive:  true,
	})

	seed := []struct {
		id, nickname, region string
		trophies             int
	}{
		{"p1", "Alpha", "EU", 2500},
		{"p2", "Bravo", "NA", 3000},
		{"p3", "Charlie", "EU", 900},
	}
	for _, p := range seed {
		require.NoError(t, a.players.Create(ctx, &models.Player{
			ID: p.id, Nickname: p.nickname, Region: p.region, Level: 10,
		}))
		require.NoError(t, a.scores.Upsert(ctx, &models.Score{
			PlayerID: p.id, SeasonID: "s1", TotalScore: p.trophies, UpdatedAt: time.Now(),
		}))
	}
}

func (a *app) do(method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *app) accessToken(t *testing.T) string {
	t.Helper()
	rec := a.do(http.MethodPost, "/auth/register", models.RegisterRequest{
		Email:    "player@example.com",
		Password: "supersecret",
		Nickname: "Player",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data models.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.AccessToken
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.Response {
	t.Helper()
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLeaderboard_RankedPage(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodGet, "/leaderboards/global?seasonId=s1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    models.LeaderboardPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	require.Len(t, resp.Data.Entries, 3)
	assert.Equal(t, "Bravo", resp.Data.Entries[0].Nickname)
	assert.Equal(t, 1, resp.Data.Entries[0].Rank)
	assert.Equal(t, "Alpha", resp.Data.Entries[1].Nickname)
	assert.Equal(t, "Charlie", resp.Data.Entries[2].Nickname)
}

func TestLeaderboard_InvalidLimit(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodGet, "/leaderboards/global?seasonId=s1&limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboard_UnknownSeason(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodGet, "/leaderboards/global?seasonId=missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaderboard_ExplicitSeasonOverridesActive(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)
	ctx := context.Background()

	a.seasons.Add(&models.Season{
		ID:        "s0",
		Name:      "Season 0",
		StartDate: time.Now().Add(-72 * time.Hour),
		EndDate:   time.Now().Add(-48 * time.Hour),
		IsActive:  false,
	})
	require.NoError(t, a.scores.Upsert(ctx, &models.Score{
		PlayerID: "p3", SeasonID: "s0", TotalScore: 50, UpdatedAt: time.Now(),
	}))

	rec := a.do(http.MethodGet, "/leaderboards/global?seasonId=s0", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.LeaderboardPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s0", resp.Data.SeasonID)
	require.Len(t, resp.Data.Entries, 1)
	assert.Equal(t, "Charlie", resp.Data.Entries[0].Nickname)
}

func TestLeaderboard_SeasonAliasParameter(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodGet, "/leaderboards/global?season=s1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.LeaderboardPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.Data.SeasonID)
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")

	body := models.RegisterRequest{Email: "dup@example.com", Password: "supersecret", Nickname: "Dup"}
	rec := a.do(http.MethodPost, "/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodPost, "/auth/register", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")

	rec := a.do(http.MethodPost, "/auth/register", models.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Nickname: "x",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginAndRefreshFlow(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")

	register := models.RegisterRequest{Email: "flow@example.com", Password: "supersecret", Nickname: "Flow"}
	rec := a.do(http.MethodPost, "/auth/register", register, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodPost, "/auth/login", models.LoginRequest{
		Email: "flow@example.com", Password: "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Data models.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Data.RefreshToken)

	rec = a.do(http.MethodPost, "/auth/refresh", models.RefreshRequest{
		RefreshToken: loginResp.Data.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_BadPassword(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	_ = a.accessToken(t)

	rec := a.do(http.MethodPost, "/auth/login", models.LoginRequest{
		Email: "player@example.com", Password: "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoute_MissingToken(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodPost, "/scores", models.UpsertScoreRequest{
		PlayerID: "p1", SeasonID: "s1", TotalScore: 100,
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestProtectedRoute_GarbageToken(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodPost, "/scores", models.UpsertScoreRequest{
		PlayerID: "p1", SeasonID: "s1", TotalScore: 100,
	}, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoute_RejectionMessages(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	expiredCfg := &config.JWTConfig{
		Secret:             jwtSecret,
		AccessTokenExpiry:  -time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "test",
		Algorithm:          "HS256",
	}
	expiredTokens, err := token.NewService(expiredCfg)
	require.NoError(t, err)
	expired, err := expiredTokens.IssueAccessToken(&models.User{ID: "u1", Email: "u@example.com"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Token not provided"},
		{"wrong scheme", "Basic abc", "Invalid token format"},
		{"bad signature", "Bearer garbage", "Invalid token:"},
		{"expired", "Bearer " + expired, "Token expired"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}

			rec := a.do(http.MethodGet, "/players/p1", nil, headers)
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			resp := decodeEnvelope(t, rec)
			assert.True(t, strings.HasPrefix(resp.Error, tc.want), "got %q", resp.Error)
		})
	}
}

func TestScoreUpsert_InvalidatesLeaderboardCache(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)
	accessToken := a.accessToken(t)

	rec := a.do(http.MethodGet, "/leaderboards/global?seasonId=s1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/scores", models.UpsertScoreRequest{
		PlayerID: "p3", SeasonID: "s1", TotalScore: 9999, Wins: 3,
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/leaderboards/global?seasonId=s1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.LeaderboardPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Entries)
	assert.Equal(t, "Charlie", resp.Data.Entries[0].Nickname)
	assert.Equal(t, 9999, resp.Data.Entries[0].TotalTrophies)
}

func TestScoreUpsert_UnknownPlayer(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)
	accessToken := a.accessToken(t)

	rec := a.do(http.MethodPost, "/scores", models.UpsertScoreRequest{
		PlayerID: "ghost", SeasonID: "s1", TotalScore: 100,
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreUpsert_NegativeScoreRejected(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)
	accessToken := a.accessToken(t)

	rec := a.do(http.MethodPost, "/scores", models.UpsertScoreRequest{
		PlayerID: "p1", SeasonID: "s1", TotalScore: -1,
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreUpsert_PutAlias(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)
	accessToken := a.accessToken(t)

	rec := a.do(http.MethodPut, "/scores", models.UpsertScoreRequest{
		PlayerID: "p1", SeasonID: "s1", TotalScore: 2600,
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlayerGet_And404(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)
	accessToken := a.accessToken(t)
	headers := map[string]string{"Authorization": "Bearer " + accessToken}

	rec := a.do(http.MethodGet, "/players/p1", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.Player `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Alpha", resp.Data.Nickname)

	rec = a.do(http.MethodGet, "/players/ghost", nil, headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayerGet_RequiresToken(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodGet, "/players/p1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlayerSearch(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	a.seed(t)

	rec := a.do(http.MethodGet, "/players/search?q=alp", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Player `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Alpha", resp.Data[0].Nickname)

	rec = a.do(http.MethodGet, "/players/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/players/search?q=a", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayerLink_VerifiedTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() == "/players/%23GOOD" {
			_ = json.NewEncoder(w).Encode(map[string]any{"tag": "#GOOD"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	a := newApp(t, server.URL)
	accessToken := a.accessToken(t)

	rec := a.do(http.MethodPost, "/players/link", models.LinkAccountRequest{
		BrawlStarsPlayerID: "#GOOD",
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.BrawlStarsPlayerID)
	assert.Equal(t, "#GOOD", *resp.Data.BrawlStarsPlayerID)
}

func TestPlayerLink_UnknownTagRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	a := newApp(t, server.URL)
	accessToken := a.accessToken(t)

	rec := a.do(http.MethodPost, "/players/link", models.LinkAccountRequest{
		BrawlStarsPlayerID: "#BAD",
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayerLink_APIUnavailableStillLinks(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")
	accessToken := a.accessToken(t)

	rec := a.do(http.MethodPost, "/players/link", models.LinkAccountRequest{
		BrawlStarsPlayerID: "#UNVERIFIED",
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute_NotFoundEnvelope(t *testing.T) {
	a := newApp(t, "http://127.0.0.1:1")

	rec := a.do(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
