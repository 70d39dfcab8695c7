package factory

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordbattle/internal/model"
)

// capture records published events so the suite can follow a round
type capture struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *capture) Publish(events []model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

// last returns the latest event with one of the names that targets conn
func (c *capture) last(conn model.ConnectionID, names ...model.EventName) (model.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		e := c.events[i]
		if slices.Contains(names, e.Name) && slices.Contains(e.Targets, conn) {
			return e, true
		}
	}
	return model.Event{}, false
}

type IntegrationSuite struct {
	suite.Suite
	app     *TestApp
	ctx     context.Context
	capture *capture
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.capture = &capture{}
	s.app.LobbyController.SetPublisher(s.capture)
	s.Require().NoError(s.app.LoadTestLibrary(s.ctx))
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Close()
}

func (s *IntegrationSuite) identify(conn model.ConnectionID, name string) model.PlayerID {
	s.app.LobbyController.RequestIdentity(conn, "", name)
	e, ok := s.capture.last(conn, model.EventIdentityAssigned)
	s.Require().True(ok)
	return e.Payload.(model.PlayerID)
}

// answerAll answers every remaining question correctly for one player
func (s *IntegrationSuite) answerAll(conn model.ConnectionID, id model.PlayerID, roomID model.RoomID) {
	for {
		e, ok := s.capture.last(conn, model.EventGameStarted, model.EventNextQuestion, model.EventGameCompleted)
		s.Require().True(ok)
		if e.Name == model.EventGameCompleted {
			return
		}
		q := e.Payload.(model.QuestionPayload)
		s.app.MockClock.Advance(time.Second)
		s.app.LobbyController.SubmitAnswer(conn, id, roomID, q.Word)
		s.app.LobbyController.RequestNextQuestion(conn, id, roomID)
	}
}

// Test: complete round from identity to results, using the real word library
func (s *IntegrationSuite) TestCompleteRound() {
	host := s.identify("c1", "Alice")
	guest := s.identify("c2", "Bob")

	s.app.LobbyController.CreateRoom("c1", host)
	created, ok := s.capture.last("c1", model.EventRoomCreated)
	s.Require().True(ok)
	roomID := created.Payload.(model.RoomCreatedPayload).RoomID

	s.app.LobbyController.JoinRoom("c2", guest, roomID)
	s.app.LobbyController.StartGame(s.ctx, "c1", host, roomID)

	room, ok := s.app.LobbyController.Room(roomID)
	s.Require().True(ok)
	s.True(room.Started)

	s.answerAll("c1", host, roomID)
	s.answerAll("c2", guest, roomID)

	done, ok := s.capture.last("c1", model.EventAllPlayersCompleted)
	s.Require().True(ok)
	results := done.Payload.(map[model.PlayerID]model.PlayerResult)
	s.Len(results, 2)
	s.Equal(100, results[host].Accuracy)
	s.Equal("Bob", results[guest].Name)

	room, _ = s.app.LobbyController.Room(roomID)
	s.False(room.Started)
	s.Len(room.UsedWordPool, s.app.QuizEngine.RoundSize())

	alice, _ := s.app.LobbyController.Player(host)
	s.Equal(model.StatusInResult, alice.Status)
}

// Test: a library smaller than one option set cannot start a round
func (s *IntegrationSuite) TestStartRejectedAfterLibraryShrinks() {
	list, err := s.app.WordService.List(s.ctx)
	s.Require().NoError(err)
	for _, w := range list[3:] {
		s.Require().NoError(s.app.WordService.Delete(s.ctx, w.Word))
	}

	host := s.identify("c1", "Alice")
	s.app.LobbyController.CreateRoom("c1", host)
	roomID := s.mustRoom(host)
	s.app.LobbyController.StartGame(s.ctx, "c1", host, roomID)

	_, ok := s.capture.last("c1", model.EventGameStartError)
	s.True(ok)
	room, _ := s.app.LobbyController.Room(roomID)
	s.False(room.Started)
}

// Test: admin gate is configured from the factory
func (s *IntegrationSuite) TestAdminLogin() {
	s.app.MockRandom.QueueString("session-token")

	session, err := s.app.AuthService.Login(TestAdminPassword)
	s.Require().NoError(err)
	s.Equal("session-token", session.Token)

	_, err = s.app.AuthService.Login("wrong")
	s.Error(err)
}

func (s *IntegrationSuite) mustRoom(id model.PlayerID) model.RoomID {
	p, ok := s.app.LobbyController.Player(id)
	s.Require().True(ok)
	s.Require().NotEmpty(p.RoomID)
	return p.RoomID
}
