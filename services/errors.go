package services

import (
	"errors"
	"fmt"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound           = errors.New("requested resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSchoolNotFound     = errors.New("school not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRequestNotFound    = errors.New("join request not found")
	ErrMatchNotFound      = errors.New("match not found")

	// Инварианты членства. Капитанство и членство уточняют общий вид
	// ErrAlreadyAffiliated, errors.Is подходит для любого из трёх.
	ErrAlreadyAffiliated    = errors.New("user is already affiliated with a team")
	ErrAlreadyCaptain       = fmt.Errorf("%w: user is a captain", ErrAlreadyAffiliated)
	ErrAlreadyMember        = fmt.Errorf("%w: user is a member", ErrAlreadyAffiliated)
	ErrDuplicatePending     = errors.New("user already has a pending join request")
	ErrAlreadyResolved      = errors.New("join request has already been resolved")
	ErrInvalidResolveAction = errors.New("resolve action must be APPROVED or REJECTED")
	// ErrMembershipConflict означает проигрыш гонки: повторная проверка
	// внутри транзакции обнаружила членство, появившееся после первичной.
	ErrMembershipConflict = errors.New("user gained a team membership concurrently")

	// Регистрация на турнир
	ErrRosterSizeMismatch  = errors.New("selected players count does not match tournament roster size")
	ErrInvalidRosterPlayer = errors.New("selected player is not on the team roster")
	ErrTournamentFull      = errors.New("tournament registration is full")
	ErrAlreadyRegistered   = errors.New("team is already registered for this tournament")

	// Аутентификация и авторизация
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailTaken             = errors.New("email address is already in use")
	ErrPseudoTaken            = errors.New("pseudo is already in use")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")

	// Валидация
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrTeamNameRequired        = errors.New("team name is required")
	ErrSchoolFieldsRequired    = errors.New("school name and city are required")
	ErrTeamNameConflict        = errors.New("team name is already in use")
	ErrSchoolConflict          = errors.New("school with this name already exists in this city")
	ErrTournamentTitleRequired = errors.New("tournament title is required")
	ErrInvalidTeamCapacity     = errors.New("tournament team capacity must be positive")
	ErrInvalidRosterSize       = errors.New("tournament roster size must be positive")
	ErrMatchTeamsNotRegistered = errors.New("both teams must be registered for the tournament")
	ErrMatchSameTeam           = errors.New("a team cannot play against itself")
	ErrMatchWinnerInvalid      = errors.New("winner must be one of the match teams")

	// Сбой хранилища, допускающий повтор всего запроса.
	ErrTransient = errors.New("temporary datastore failure, retry the request")
)
