package services

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pitchside/bracket-manager/models"
	"github.com/pitchside/bracket-manager/repositories"
	"github.com/pitchside/bracket-manager/storage"
	"github.com/stretchr/testify/require"
)

// In-memory fakes for the repository and collaborator interfaces. They
// ignore the SQLExecutor argument: transactional grouping is the real
// database's concern, the tests only assert on the resulting state.

type fakePlayerRepo struct {
	players map[int]*models.Player
	nextID  int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player), nextID: 1}
}

func (f *fakePlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, player *models.Player) error {
	player.ID = f.nextID
	player.CreatedAt = time.Now()
	f.nextID++
	stored := *player
	f.players[player.ID] = &stored
	return nil
}

func (f *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePlayerRepo) ListByTournament(_ context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error) {
	result := make([]*models.Player, 0)
	for _, p := range f.players {
		if p.TournamentID != tournamentID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		copied := *p
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakePlayerRepo) ListByGroup(_ context.Context, groupID int) ([]*models.Player, error) {
	result := make([]*models.Player, 0)
	for _, p := range f.players {
		if p.GroupID != nil && *p.GroupID == groupID {
			copied := *p
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakePlayerRepo) GameNameExists(_ context.Context, tournamentID int, gameName string) (bool, error) {
	for _, p := range f.players {
		if p.TournamentID == tournamentID && strings.EqualFold(p.GameName, gameName) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePlayerRepo) UpdateStatus(_ context.Context, id int, status models.PlayerStatus) error {
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Status = status
	return nil
}

func (f *fakePlayerRepo) AssignGroup(_ context.Context, _ repositories.SQLExecutor, playerID, groupID int) error {
	p, ok := f.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	gid := groupID
	p.GroupID = &gid
	return nil
}

func (f *fakePlayerRepo) ApplyStatDelta(_ context.Context, _ repositories.SQLExecutor, playerID, points, goalsFor, goalsAgainst int) error {
	p, ok := f.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Points += points
	p.GoalsFor += goalsFor
	p.GoalsAgainst += goalsAgainst
	return nil
}

func (f *fakePlayerRepo) SetEliminated(_ context.Context, _ repositories.SQLExecutor, playerID int, eliminated bool) error {
	p, ok := f.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Eliminated = eliminated
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (f *fakeTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	for _, t := range f.tournaments {
		if t.Name == tournament.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	tournament.ID = f.nextID
	tournament.CreatedAt = time.Now()
	f.nextID++
	stored := *tournament
	f.tournaments[tournament.ID] = &stored
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTournamentRepo) List(_ context.Context, limit, offset int) ([]*models.Tournament, error) {
	all := make([]*models.Tournament, 0, len(f.tournaments))
	for _, t := range f.tournaments {
		copied := *t
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return []*models.Tournament{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) SetChampion(_ context.Context, _ repositories.SQLExecutor, id, championID int) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	champ := championID
	t.ChampionID = &champ
	t.Status = models.TournamentStatusFinished
	return nil
}

func (f *fakeTournamentRepo) ClearChampion(_ context.Context, _ repositories.SQLExecutor, id int) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ChampionID = nil
	t.Status = models.TournamentStatusKnockout
	return nil
}

type fakeGroupRepo struct {
	groups map[int]*models.Group
	nextID int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[int]*models.Group), nextID: 1}
}

func (f *fakeGroupRepo) Create(_ context.Context, _ repositories.SQLExecutor, group *models.Group) error {
	group.ID = f.nextID
	group.CreatedAt = time.Now()
	f.nextID++
	stored := *group
	f.groups[group.ID] = &stored
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id int) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGroupRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Group, error) {
	result := make([]*models.Group, 0)
	for _, g := range f.groups {
		if g.TournamentID == tournamentID {
			copied := *g
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Label < result[j].Label })
	return result, nil
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
}

func (f *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.ID = f.nextID
	match.CreatedAt = time.Now()
	f.nextID++
	stored := *match
	f.matches[match.ID] = &stored
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func matchesFilter(m *models.Match, filter repositories.MatchFilter) bool {
	if filter.Stage != nil && m.Stage != *filter.Stage {
		return false
	}
	if filter.Status != nil && m.Status != *filter.Status {
		return false
	}
	if filter.Round != nil && m.Round != *filter.Round {
		return false
	}
	return true
}

func (f *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	result := make([]*models.Match, 0)
	for _, m := range f.matches {
		if m.TournamentID == tournamentID && matchesFilter(m, filter) {
			copied := *m
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Round != result[j].Round {
			return result[i].Round < result[j].Round
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (f *fakeMatchRepo) CountByTournament(ctx context.Context, tournamentID int, filter repositories.MatchFilter) (int, error) {
	matches, err := f.ListByTournament(ctx, tournamentID, filter)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (f *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	stored, ok := f.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.Score1 = match.Score1
	stored.Score2 = match.Score2
	stored.Status = match.Status
	stored.ScreenshotKey = match.ScreenshotKey
	return nil
}

func (f *fakeMatchRepo) MaxKnockoutRound(_ context.Context, tournamentID int) (int, error) {
	maxRound := 0
	for _, m := range f.matches {
		if m.TournamentID == tournamentID && m.Stage == models.MatchStageKnockout && m.Round > maxRound {
			maxRound = m.Round
		}
	}
	return maxRound, nil
}

type fakeUploader struct {
	uploads []string
	deletes []string
	fail    bool
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if f.fail {
		return nil, io.ErrUnexpectedEOF
	}
	_, _ = io.Copy(io.Discard, reader)
	f.uploads = append(f.uploads, key)
	return &storage.UploadResult{Key: key, Location: "https://img.test/" + key}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://img.test/" + key
}

type broadcastEvent struct {
	tournamentID int
	eventType    string
}

type fakeBroadcaster struct {
	events []broadcastEvent
}

func (f *fakeBroadcaster) BroadcastToTournament(tournamentID int, eventType string, _ interface{}) {
	f.events = append(f.events, broadcastEvent{tournamentID: tournamentID, eventType: eventType})
}

func (f *fakeBroadcaster) eventTypes() []string {
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.eventType)
	}
	return types
}

// serviceFixture wires the services against the in-memory fakes. The
// sqlmock database only backs BeginTx/Commit; every statement inside a
// transaction goes to the fakes.
type serviceFixture struct {
	mock        sqlmock.Sqlmock
	players     *fakePlayerRepo
	tournaments *fakeTournamentRepo
	groups      *fakeGroupRepo
	matches     *fakeMatchRepo
	uploader    *fakeUploader
	hub         *fakeBroadcaster

	playerSvc     PlayerService
	tournamentSvc TournamentService
	matchSvc      MatchService
}

func newServiceFixture(t *testing.T, seed int64) *serviceFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)

	f := &serviceFixture{
		mock:        mock,
		players:     newFakePlayerRepo(),
		tournaments: newFakeTournamentRepo(),
		groups:      newFakeGroupRepo(),
		matches:     newFakeMatchRepo(),
		uploader:    &fakeUploader{},
		hub:         &fakeBroadcaster{},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rng := rand.New(rand.NewSource(seed))

	f.playerSvc = NewPlayerService(f.players, f.tournaments, f.uploader, logger)
	f.tournamentSvc = NewTournamentService(db, f.tournaments, f.players, f.groups, f.matches, f.uploader, f.hub, logger, rng)
	f.matchSvc = NewMatchService(db, f.matches, f.players, f.tournaments, f.uploader, f.hub, logger)
	return f
}

// expectTransactions queues n begin/commit pairs on the mock database.
func (f *serviceFixture) expectTransactions(n int) {
	for i := 0; i < n; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
	}
}
