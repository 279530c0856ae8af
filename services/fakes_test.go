package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
)

// fakeTxManager сериализует транзакции мьютексом: конкурентные вызовы
// WithinTx выполняются по одному, как при блокировках строк в Postgres.
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(nil)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) addUser(pseudo string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user := &models.User{
		ID:        r.seq,
		Pseudo:    pseudo,
		Email:     pseudo + "@example.com",
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if u.Pseudo == user.Pseudo {
			return repositories.ErrUserPseudoConflict
		}
	}
	r.seq++
	user.ID = r.seq
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) LockByID(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.AvatarKey = avatarKey
	return nil
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

type fakeTeamRepo struct {
	mu        sync.Mutex
	teamSeq   int
	memberSeq int
	teams     map[int]*models.Team
	members   map[int]*models.TeamMember
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		teams:   make(map[int]*models.Team),
		members: make(map[int]*models.TeamMember),
	}
}

// addTeam создаёт команду вместе со строкой состава для капитана.
func (r *fakeTeamRepo) addTeam(name string, captainID int) *models.Team {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teamSeq++
	team := &models.Team{
		ID:        r.teamSeq,
		Name:      name,
		SchoolID:  1,
		CaptainID: captainID,
		CreatedAt: time.Now(),
	}
	r.teams[team.ID] = team

	r.memberSeq++
	r.members[r.memberSeq] = &models.TeamMember{
		ID:        r.memberSeq,
		TeamID:    team.ID,
		UserID:    captainID,
		Role:      models.TeamRoleCaptain,
		CreatedAt: time.Now(),
	}
	return team
}

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	r.teamSeq++
	team.ID = r.teamSeq
	team.CreatedAt = time.Now()
	stored := *team
	r.teams[team.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) List(ctx context.Context) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	teams := make([]models.Team, 0, len(r.teams))
	for _, team := range r.teams {
		teams = append(teams, *team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (r *fakeTeamRepo) SetLogoKey(ctx context.Context, id int, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = logoKey
	return nil
}

func (r *fakeTeamRepo) FindByCaptain(ctx context.Context, exec repositories.SQLExecutor, userID int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.teams {
		if team.CaptainID == userID {
			copied := *team
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) FindMembershipByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) (*models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members {
		if member.UserID == userID {
			copied := *member
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamMemberNotFound
}

func (r *fakeTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.UserID == member.UserID {
			return repositories.ErrMemberConflict
		}
	}
	r.memberSeq++
	member.ID = r.memberSeq
	member.CreatedAt = time.Now()
	stored := *member
	r.members[member.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) ListMembers(ctx context.Context, exec repositories.SQLExecutor, teamID int) ([]models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := make([]models.TeamMember, 0)
	for _, member := range r.members {
		if member.TeamID == teamID {
			members = append(members, *member)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

type fakeJoinRequestRepo struct {
	mu       sync.Mutex
	seq      int
	requests map[int]*models.JoinRequest
}

func newFakeJoinRequestRepo() *fakeJoinRequestRepo {
	return &fakeJoinRequestRepo{requests: make(map[int]*models.JoinRequest)}
}

func (r *fakeJoinRequestRepo) Create(ctx context.Context, exec repositories.SQLExecutor, request *models.JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.UserID == request.UserID && req.Status == models.JoinRequestPending {
			return repositories.ErrJoinRequestPendingConflict
		}
	}
	r.seq++
	request.ID = r.seq
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	stored := *request
	r.requests[request.ID] = &stored
	return nil
}

func (r *fakeJoinRequestRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrJoinRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *fakeJoinRequestRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.JoinRequest, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeJoinRequestRepo) FindPendingByUser(ctx context.Context, exec repositories.SQLExecutor, userID int) (*models.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		if request.UserID == userID && request.Status == models.JoinRequestPending {
			copied := *request
			return &copied, nil
		}
	}
	return nil, repositories.ErrJoinRequestNotFound
}

func (r *fakeJoinRequestRepo) FindLatestByUserAndTeam(ctx context.Context, exec repositories.SQLExecutor, userID, teamID int) (*models.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.JoinRequest
	for _, request := range r.requests {
		if request.UserID != userID || request.TeamID != teamID {
			continue
		}
		if latest == nil || request.ID > latest.ID {
			latest = request
		}
	}
	if latest == nil {
		return nil, repositories.ErrJoinRequestNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeJoinRequestRepo) ListPendingByTeam(ctx context.Context, teamID int) ([]*models.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	requests := make([]*models.JoinRequest, 0)
	for _, request := range r.requests {
		if request.TeamID == teamID && request.Status == models.JoinRequestPending {
			copied := *request
			requests = append(requests, &copied)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (r *fakeJoinRequestRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.JoinRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return repositories.ErrJoinRequestNotFound
	}
	if request.Status != models.JoinRequestPending {
		return repositories.ErrJoinRequestAlreadyResolved
	}
	request.Status = status
	request.UpdatedAt = time.Now()
	return nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	seq         int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) addTournament(playersPerTeam, maxTeams int) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	tournament := &models.Tournament{
		ID:             r.seq,
		Title:          "Spring Cup",
		Game:           "CS2",
		Format:         "single_elimination",
		PlayersPerTeam: playersPerTeam,
		MaxTeams:       maxTeams,
		StartDate:      time.Now().Add(24 * time.Hour),
		CreatedBy:      1,
		CreatedAt:      time.Now(),
	}
	r.tournaments[tournament.ID] = tournament
	return tournament
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	tournament.ID = r.seq
	tournament.CreatedAt = time.Now()
	stored := *tournament
	r.tournaments[tournament.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *tournament
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTournamentRepo) List(ctx context.Context) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournaments := make([]models.Tournament, 0, len(r.tournaments))
	for _, tournament := range r.tournaments {
		tournaments = append(tournaments, *tournament)
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })
	return tournaments, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	stored := *tournament
	r.tournaments[tournament.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeRegistrationRepo struct {
	mu            sync.Mutex
	seq           int
	registrations map[int]*models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{registrations: make(map[int]*models.Registration)}
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, registration *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.TournamentID == registration.TournamentID && reg.TeamID == registration.TeamID {
			return repositories.ErrRegistrationConflict
		}
	}
	r.seq++
	registration.ID = r.seq
	registration.RegisteredAt = time.Now()
	stored := *registration
	r.registrations[registration.ID] = &stored
	return nil
}

func (r *fakeRegistrationRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRegistrationRepo) FindByTournamentAndTeam(ctx context.Context, exec repositories.SQLExecutor, tournamentID, teamID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.TeamID == teamID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ExistsForTeams(ctx context.Context, tournamentID int, teamIDs ...int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, teamID := range teamIDs {
		found := false
		for _, reg := range r.registrations {
			if reg.TournamentID == tournamentID && reg.TeamID == teamID {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

func (r *fakeRegistrationRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registrations := make([]*models.Registration, 0)
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID {
			copied := *reg
			registrations = append(registrations, &copied)
		}
	}
	sort.Slice(registrations, func(i, j int) bool { return registrations[i].ID < registrations[j].ID })
	return registrations, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	seq     int
	matches map[int]*models.Match
	stats   []repositories.TeamMatchStats
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	match.ID = r.seq
	match.CreatedAt = time.Now()
	stored := *match
	r.matches[match.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*models.Match, 0)
	for _, match := range r.matches {
		if match.Status == models.MatchCompleted || match.Status == models.MatchCanceled {
			continue
		}
		if match.ScheduledTime.Before(now) {
			continue
		}
		copied := *match
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ScheduledTime.Before(matches[j].ScheduledTime)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, id int, score string, winnerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if match.Status == models.MatchCompleted {
		return repositories.ErrMatchNotFound
	}
	match.Status = models.MatchCompleted
	match.Score = &score
	match.WinnerID = &winnerID
	return nil
}

func (r *fakeMatchRepo) ListTeamStats(ctx context.Context) ([]repositories.TeamMatchStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make([]repositories.TeamMatchStats, len(r.stats))
	copy(stats, r.stats)
	return stats, nil
}

// fakeNotifier копит уведомления; канал позволяет тестам дождаться доставки
// из фоновой горутины.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	fired    chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fired: make(chan struct{}, 16)}
}

func (n *fakeNotifier) Notify(ctx context.Context, recipientID int, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
	n.fired <- struct{}{}
}

func (n *fakeNotifier) waitForNotification(timeout time.Duration) bool {
	select {
	case <-n.fired:
		return true
	case <-time.After(timeout):
		return false
	}
}
