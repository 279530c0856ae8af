package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slayergates/esports-arena/middleware"
	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/services"
)

type stubTeamService struct {
	createFn        func(ctx context.Context, captainID int, input services.CreateTeamInput) (*models.Team, error)
	getByIDFn       func(ctx context.Context, id int) (*models.Team, error)
	listByCaptainFn func(ctx context.Context, captainID int) ([]models.Team, error)
	listMembersFn   func(ctx context.Context, teamID int) ([]models.TeamMember, error)
}

func (s *stubTeamService) Create(ctx context.Context, captainID int, input services.CreateTeamInput) (*models.Team, error) {
	return s.createFn(ctx, captainID, input)
}

func (s *stubTeamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubTeamService) List(ctx context.Context) ([]models.Team, error) {
	return nil, nil
}

func (s *stubTeamService) ListByCaptain(ctx context.Context, captainID int) ([]models.Team, error) {
	return s.listByCaptainFn(ctx, captainID)
}

func (s *stubTeamService) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	return s.listMembersFn(ctx, teamID)
}

func (s *stubTeamService) UploadLogo(ctx context.Context, captainID, teamID int, contentType string, data io.Reader) (*models.Team, error) {
	return nil, services.ErrCaptainActionForbidden
}

func newTeamRouter(service services.TeamService) *chi.Mux {
	handler := NewTeamHandler(service)
	router := chi.NewRouter()
	router.Post("/teams", handler.Create)
	router.Get("/teams/captain", handler.ListByCaptain)
	router.Get("/teams/{teamID}", handler.GetByID)
	router.Get("/teams/{teamID}/members", handler.ListMembers)
	router.Put("/teams/{teamID}/logo", handler.UploadLogo)
	return router
}

func TestCreateTeamHandler(t *testing.T) {
	service := &stubTeamService{
		createFn: func(ctx context.Context, captainID int, input services.CreateTeamInput) (*models.Team, error) {
			return &models.Team{ID: 1, Name: input.Name, SchoolID: input.SchoolID, CaptainID: captainID}, nil
		},
	}
	router := newTeamRouter(service)

	body := strings.NewReader(`{"name":"Falcons","school_id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/teams", body)
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var response struct {
		Team models.Team `json:"team"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Falcons", response.Team.Name)
	assert.Equal(t, 7, response.Team.CaptainID)
}

func TestCreateTeamHandler_Errors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"conflict", services.ErrAlreadyCaptain, http.StatusConflict},
		{"validation", services.ErrTeamNameRequired, http.StatusBadRequest},
		{"school missing", services.ErrSchoolNotFound, http.StatusNotFound},
		{"transient", services.ErrTransient, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubTeamService{
				createFn: func(ctx context.Context, captainID int, input services.CreateTeamInput) (*models.Team, error) {
					return nil, tc.serviceErr
				},
			}
			router := newTeamRouter(service)

			req := httptest.NewRequest(http.MethodPost, "/teams", strings.NewReader(`{"name":"Falcons","school_id":1}`))
			req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Contains(t, response, "error")
		})
	}
}

func TestCreateTeamHandler_BadRequests(t *testing.T) {
	service := &stubTeamService{}
	router := newTeamRouter(service)

	t.Run("no auth context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/teams", strings.NewReader(`{"name":"Falcons"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/teams", strings.NewReader(`{"name":`))
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/teams", strings.NewReader(`{"bogus":1}`))
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetTeamHandler(t *testing.T) {
	service := &stubTeamService{
		getByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			if id != 5 {
				return nil, services.ErrTeamNotFound
			}
			return &models.Team{ID: 5, Name: "Falcons"}, nil
		},
	}
	router := newTeamRouter(service)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/5", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/6", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/abc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadLogoHandler_RequiresImage(t *testing.T) {
	service := &stubTeamService{}
	router := newTeamRouter(service)

	req := httptest.NewRequest(http.MethodPut, "/teams/5/logo", strings.NewReader("data"))
	req.Header.Set("Content-Type", "text/plain")
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListByCaptainHandler(t *testing.T) {
	service := &stubTeamService{
		listByCaptainFn: func(ctx context.Context, captainID int) ([]models.Team, error) {
			if captainID != 7 {
				return []models.Team{}, nil
			}
			return []models.Team{{ID: 5, Name: "Falcons", CaptainID: 7}}, nil
		},
	}
	router := newTeamRouter(service)

	t.Run("captain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/captain", nil)
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			Teams []models.Team `json:"teams"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.Len(t, response.Teams, 1)
		assert.Equal(t, 5, response.Teams[0].ID)
	})

	t.Run("not a captain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/captain", nil)
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 8, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			Teams []models.Team `json:"teams"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Empty(t, response.Teams)
	})

	t.Run("no auth context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/captain", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestListMembersHandler(t *testing.T) {
	service := &stubTeamService{
		listMembersFn: func(ctx context.Context, teamID int) ([]models.TeamMember, error) {
			if teamID != 5 {
				return nil, services.ErrTeamNotFound
			}
			return []models.TeamMember{
				{ID: 1, TeamID: 5, UserID: 7, Role: models.TeamRoleCaptain},
				{ID: 2, TeamID: 5, UserID: 9, Role: models.TeamRoleMember},
			}, nil
		},
	}
	router := newTeamRouter(service)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/5/members", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			Members []models.TeamMember `json:"members"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Len(t, response.Members, 2)
	})

	t.Run("team missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/6/members", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
