package handlers

import (
	"context"
	"encoding/json"
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

type stubMembershipService struct {
	computeStatusFn func(ctx context.Context, userID, teamID int) (*models.MembershipState, error)
	requestJoinFn   func(ctx context.Context, userID, teamID int) (*models.JoinRequest, error)
	resolveFn       func(ctx context.Context, captainID, teamID, requestID int, action models.JoinRequestStatus) (*models.JoinRequest, error)
}

func (s *stubMembershipService) ComputeStatus(ctx context.Context, userID, teamID int) (*models.MembershipState, error) {
	return s.computeStatusFn(ctx, userID, teamID)
}

func (s *stubMembershipService) RequestJoin(ctx context.Context, userID, teamID int) (*models.JoinRequest, error) {
	return s.requestJoinFn(ctx, userID, teamID)
}

func (s *stubMembershipService) ResolveRequest(ctx context.Context, captainID, teamID, requestID int, action models.JoinRequestStatus) (*models.JoinRequest, error) {
	return s.resolveFn(ctx, captainID, teamID, requestID, action)
}

func (s *stubMembershipService) ListTeamRequests(ctx context.Context, captainID, teamID int) ([]*models.JoinRequest, error) {
	return nil, nil
}

func newMembershipRouter(service services.MembershipService) *chi.Mux {
	handler := NewMembershipHandler(service)
	router := chi.NewRouter()
	router.Get("/teams/{teamID}/membership", handler.GetStatus)
	router.Post("/teams/{teamID}/join-requests", handler.RequestJoin)
	router.Put("/teams/{teamID}/join-requests/{requestID}", handler.ResolveRequest)
	return router
}

func TestGetMembershipStatusHandler(t *testing.T) {
	service := &stubMembershipService{
		computeStatusFn: func(ctx context.Context, userID, teamID int) (*models.MembershipState, error) {
			if teamID != 5 {
				return nil, services.ErrTeamNotFound
			}
			return &models.MembershipState{Status: models.MembershipCanRequest, CanRequest: true}, nil
		},
	}
	router := newMembershipRouter(service)

	t.Run("computed status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/5/membership", nil)
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			Membership models.MembershipState `json:"membership"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, models.MembershipCanRequest, response.Membership.Status)
		assert.True(t, response.Membership.CanRequest)
	})

	t.Run("team missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/6/membership", nil)
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no auth context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teams/5/membership", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestJoinHandler(t *testing.T) {
	service := &stubMembershipService{
		requestJoinFn: func(ctx context.Context, userID, teamID int) (*models.JoinRequest, error) {
			return &models.JoinRequest{ID: 11, TeamID: teamID, UserID: userID, Status: models.JoinRequestPending}, nil
		},
	}
	router := newMembershipRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/teams/5/join-requests", nil)
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var response struct {
		Request models.JoinRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, models.JoinRequestPending, response.Request.Status)
	assert.Equal(t, 7, response.Request.UserID)
}

func TestRequestJoinHandler_Errors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"already captain", services.ErrAlreadyCaptain, http.StatusConflict},
		{"already member", services.ErrAlreadyMember, http.StatusConflict},
		{"duplicate pending", services.ErrDuplicatePending, http.StatusConflict},
		{"team missing", services.ErrTeamNotFound, http.StatusNotFound},
		{"transient", services.ErrTransient, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubMembershipService{
				requestJoinFn: func(ctx context.Context, userID, teamID int) (*models.JoinRequest, error) {
					return nil, tc.serviceErr
				},
			}
			router := newMembershipRouter(service)

			req := httptest.NewRequest(http.MethodPost, "/teams/5/join-requests", nil)
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

func TestResolveRequestHandler(t *testing.T) {
	service := &stubMembershipService{
		resolveFn: func(ctx context.Context, captainID, teamID, requestID int, action models.JoinRequestStatus) (*models.JoinRequest, error) {
			return &models.JoinRequest{ID: requestID, TeamID: teamID, Status: action}, nil
		},
	}
	router := newMembershipRouter(service)

	body := strings.NewReader(`{"action":"APPROVED"}`)
	req := httptest.NewRequest(http.MethodPut, "/teams/5/join-requests/11", body)
	req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Request models.JoinRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, models.JoinRequestApproved, response.Request.Status)
	assert.Equal(t, 11, response.Request.ID)
}

func TestResolveRequestHandler_Errors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"not the captain", services.ErrCaptainActionForbidden, http.StatusForbidden},
		{"already resolved", services.ErrAlreadyResolved, http.StatusConflict},
		{"membership race lost", services.ErrMembershipConflict, http.StatusConflict},
		{"invalid action", services.ErrInvalidResolveAction, http.StatusBadRequest},
		{"request missing", services.ErrRequestNotFound, http.StatusNotFound},
		{"transient", services.ErrTransient, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubMembershipService{
				resolveFn: func(ctx context.Context, captainID, teamID, requestID int, action models.JoinRequestStatus) (*models.JoinRequest, error) {
					return nil, tc.serviceErr
				},
			}
			router := newMembershipRouter(service)

			body := strings.NewReader(`{"action":"APPROVED"}`)
			req := httptest.NewRequest(http.MethodPut, "/teams/5/join-requests/11", body)
			req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		service := &stubMembershipService{}
		router := newMembershipRouter(service)

		req := httptest.NewRequest(http.MethodPut, "/teams/5/join-requests/11", strings.NewReader(`{"action":`))
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid request id", func(t *testing.T) {
		service := &stubMembershipService{}
		router := newMembershipRouter(service)

		req := httptest.NewRequest(http.MethodPut, "/teams/5/join-requests/abc", strings.NewReader(`{"action":"APPROVED"}`))
		req = req.WithContext(middleware.ContextWithClaims(req.Context(), 7, models.RoleUser))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
