package quiz

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordbattle/internal/dependencies/mocks"
	"github.com/mcoot/wordbattle/internal/dependencies/random"
	"github.com/mcoot/wordbattle/internal/model"
)

type EngineSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	engine  *Engine
	library []string
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.engine = New(s.clock, s.random, DefaultRoundSize)
	s.library = makeLibrary(15)
}

func makeLibrary(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	return words
}

func (s *EngineSuite) newRoom(members ...model.PlayerID) *model.Room {
	return &model.Room{
		ID:      "room_1",
		Name:    "Host",
		HostID:  members[0],
		Members: members,
	}
}

func (s *EngineSuite) startRoom(members ...model.PlayerID) *model.Room {
	room := s.newRoom(members...)
	s.Require().NoError(s.engine.Start(room, s.library))
	return room
}

// GenerateQuestions tests

func (s *EngineSuite) TestQuestionsHaveExactlyOneTargetAndDistinctOptions() {
	engine := New(s.clock, random.New(), DefaultRoundSize)

	for range 50 {
		room := s.newRoom("player1")
		questions, err := engine.GenerateQuestions(room, s.library)
		s.Require().NoError(err)
		s.Len(questions, DefaultRoundSize)

		for _, q := range questions {
			s.Len(q.Options, model.OptionsPerQuestion)

			matches := 0
			seen := map[string]bool{}
			for _, opt := range q.Options {
				if opt == q.Word {
					matches++
				}
				s.False(seen[opt], "duplicate option %q", opt)
				seen[opt] = true
				s.Contains(s.library, opt)
			}
			s.Equal(1, matches)
		}
	}
}

func (s *EngineSuite) TestTargetsAreDistinctWithinRound() {
	room := s.newRoom("player1")

	questions, err := s.engine.GenerateQuestions(room, s.library)
	s.Require().NoError(err)

	targets := map[string]bool{}
	for _, q := range questions {
		s.False(targets[q.Word])
		targets[q.Word] = true
	}
}

func (s *EngineSuite) TestTargetsAreAppendedToPool() {
	room := s.newRoom("player1")

	questions, _ := s.engine.GenerateQuestions(room, s.library)

	s.Len(room.UsedWordPool, len(questions))
	for _, q := range questions {
		s.Contains(room.UsedWordPool, q.Word)
	}
}

func (s *EngineSuite) TestTargetsAvoidUsedPool() {
	room := s.newRoom("player1")
	room.UsedWordPool = []string{"word00", "word01", "word02", "word03", "word04"}

	questions, err := s.engine.GenerateQuestions(room, s.library)
	s.Require().NoError(err)

	for _, q := range questions {
		s.NotContains([]string{"word00", "word01", "word02", "word03", "word04"}, q.Word)
	}
	s.Len(room.UsedWordPool, 15)
}

func (s *EngineSuite) TestPoolResetsWhenTooFewUnusedWordsRemain() {
	room := s.newRoom("player1")
	room.UsedWordPool = s.library[:6]

	questions, err := s.engine.GenerateQuestions(room, s.library)
	s.Require().NoError(err)

	s.Len(questions, DefaultRoundSize)
	// The old pool was discarded; only this round's targets remain
	s.Len(room.UsedWordPool, DefaultRoundSize)
	for i, q := range questions {
		s.Equal(q.Word, room.UsedWordPool[i])
	}
}

func (s *EngineSuite) TestRepeatedRoundsNeverFail() {
	room := s.newRoom("player1")

	for range 20 {
		questions, err := s.engine.GenerateQuestions(room, s.library)
		s.Require().NoError(err)
		s.Len(questions, DefaultRoundSize)
		s.LessOrEqual(len(room.UsedWordPool), len(s.library)+DefaultRoundSize)
	}
}

func (s *EngineSuite) TestRoundShrinksToSmallLibrary() {
	room := s.newRoom("player1")

	questions, err := s.engine.GenerateQuestions(room, []string{"a", "b", "c", "d", "e"})
	s.Require().NoError(err)
	s.Len(questions, 5)
}

func (s *EngineSuite) TestTooFewWordsFails() {
	room := s.newRoom("player1")

	_, err := s.engine.GenerateQuestions(room, []string{"a", "b", "c"})
	s.ErrorIs(err, model.ErrNotEnoughWords)
	s.Empty(room.UsedWordPool)
}

// Start tests

func (s *EngineSuite) TestStartCreatesProgressForEveryMember() {
	room := s.startRoom("player1", "player2")

	s.True(room.Started)
	s.Require().NotNil(room.Session)
	s.Len(room.Session.Questions, DefaultRoundSize)
	s.Len(room.Session.Progress, 2)
	for _, id := range room.Members {
		p := room.Session.Progress[id]
		s.Require().NotNil(p)
		s.Equal(0, p.CurrentIndex)
		s.Equal(s.clock.Now(), p.StartTime)
		s.Nil(p.EndTime)
	}
}

func (s *EngineSuite) TestStartTwiceFails() {
	room := s.startRoom("player1")

	err := s.engine.Start(room, s.library)
	s.ErrorIs(err, model.ErrGameInProgress)
}

// Submit / Advance tests

func (s *EngineSuite) TestSubmitCorrectAnswer() {
	room := s.startRoom("player1")
	target := room.Session.Questions[0].Word

	outcome, err := s.engine.Submit(room, "player1", target)
	s.Require().NoError(err)

	s.True(outcome.Correct)
	s.Equal(model.ProgressCounters{Current: 1, Total: 10, Correct: 1}, outcome.Progress)
	s.Equal(0, room.Session.Progress["player1"].CurrentIndex)
}

func (s *EngineSuite) TestSubmitWrongAnswer() {
	room := s.startRoom("player1")

	outcome, err := s.engine.Submit(room, "player1", "nonsense")
	s.Require().NoError(err)

	s.False(outcome.Correct)
	s.Equal(0, outcome.Progress.Correct)
}

func (s *EngineSuite) TestSubmitTwiceIsRejected() {
	room := s.startRoom("player1")
	target := room.Session.Questions[0].Word

	_, _ = s.engine.Submit(room, "player1", "nonsense")
	_, err := s.engine.Submit(room, "player1", target)

	s.ErrorIs(err, model.ErrAlreadyAnswered)
	s.Equal(0, room.Session.Progress["player1"].CorrectCount)
}

func (s *EngineSuite) TestSubmitWithoutSession() {
	room := s.newRoom("player1")

	_, err := s.engine.Submit(room, "player1", "x")
	s.ErrorIs(err, model.ErrNoGameInProgress)
}

func (s *EngineSuite) TestSubmitByNonParticipant() {
	room := s.startRoom("player1")

	_, err := s.engine.Submit(room, "player9", "x")
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *EngineSuite) TestAdvanceReturnsNextQuestion() {
	room := s.startRoom("player1")

	step, err := s.engine.Advance(room, "player1")
	s.Require().NoError(err)

	s.False(step.Done())
	s.Equal(1, step.Index)
	s.Equal(10, step.Total)
	s.Equal(room.Session.Questions[1], *step.Question)
}

func (s *EngineSuite) TestFullSequenceProducesTally() {
	room := s.startRoom("player1")

	var step Step
	for i := range DefaultRoundSize {
		_, err := s.engine.Submit(room, "player1", room.Session.Questions[i].Word)
		s.Require().NoError(err)
		s.clock.Advance(time.Second)
		step, err = s.engine.Advance(room, "player1")
		s.Require().NoError(err)
		s.Equal(i+1, room.Session.Progress["player1"].CurrentIndex)
	}

	s.Require().True(step.Done())
	s.Equal(model.Tally{
		TotalTime:      10000,
		Accuracy:       100,
		CorrectAnswers: 10,
		TotalQuestions: 10,
	}, *step.Tally)
	s.True(room.Session.Progress["player1"].Finished())

	_, err := s.engine.Advance(room, "player1")
	s.ErrorIs(err, model.ErrSequenceFinished)
	_, err = s.engine.Submit(room, "player1", "x")
	s.ErrorIs(err, model.ErrSequenceFinished)
	s.Equal(DefaultRoundSize, room.Session.Progress["player1"].CurrentIndex)
}

func (s *EngineSuite) TestAdvanceWithoutAnswerCountsAsWrong() {
	room := s.startRoom("player1")

	var step Step
	for range DefaultRoundSize {
		step, _ = s.engine.Advance(room, "player1")
	}

	s.Require().True(step.Done())
	s.Equal(0, step.Tally.CorrectAnswers)
	s.Equal(0, step.Tally.Accuracy)
}

func (s *EngineSuite) TestAccuracyIsRounded() {
	room := s.newRoom("player1")
	s.Require().NoError(s.engine.Start(room, []string{"a", "b", "c", "d", "e", "f"}))

	// 2 of 6 correct
	for i := range 6 {
		if i < 2 {
			_, _ = s.engine.Submit(room, "player1", room.Session.Questions[i].Word)
		}
		_, _ = s.engine.Advance(room, "player1")
	}

	results := s.engine.Results(room, map[model.PlayerID]string{"player1": "One"})
	s.Equal(33, results["player1"].Accuracy)
}

func (s *EngineSuite) TestCurrentQuestion() {
	room := s.startRoom("player1")

	step, err := s.engine.Current(room, "player1")
	s.Require().NoError(err)
	s.Equal(0, step.Index)
	s.Equal(room.Session.Questions[0].Word, step.Question.Word)
}

// Forfeit tests

func (s *EngineSuite) TestForfeitFinishesSequence() {
	room := s.startRoom("player1")
	_, _ = s.engine.Submit(room, "player1", room.Session.Questions[0].Word)

	tally, err := s.engine.Forfeit(room, "player1")
	s.Require().NoError(err)

	s.Equal(1, tally.CorrectAnswers)
	s.Equal(10, tally.Accuracy)
	s.True(room.Session.Progress["player1"].Finished())

	_, err = s.engine.Forfeit(room, "player1")
	s.ErrorIs(err, model.ErrSequenceFinished)
}

// Completion tests

func (s *EngineSuite) TestAllCompleteOnlyAfterEveryMemberFinishes() {
	room := s.startRoom("player1", "player2")

	_, _ = s.engine.Forfeit(room, "player1")
	s.False(s.engine.AllComplete(room))

	_, _ = s.engine.Forfeit(room, "player2")
	s.True(s.engine.AllComplete(room))
}

func (s *EngineSuite) TestAllCompleteIgnoresRemovedPlayers() {
	room := s.startRoom("player1", "player2")

	_, _ = s.engine.Forfeit(room, "player1")
	room.RemoveMember("player2")
	s.engine.RemovePlayer(room, "player2")

	s.True(s.engine.AllComplete(room))
}

func (s *EngineSuite) TestAllCompleteWithoutSession() {
	s.False(s.engine.AllComplete(s.newRoom("player1")))
}

func (s *EngineSuite) TestResultsContainEveryFinishedMember() {
	room := s.startRoom("player1", "player2")
	_, _ = s.engine.Forfeit(room, "player1")
	_, _ = s.engine.Forfeit(room, "player2")

	results := s.engine.Results(room, map[model.PlayerID]string{"player1": "One", "player2": "Two"})

	s.Len(results, 2)
	s.Equal("One", results["player1"].Name)
	s.Equal("Two", results["player2"].Name)
}

func (s *EngineSuite) TestEndClearsSession() {
	room := s.startRoom("player1")

	s.engine.End(room)

	s.False(room.Started)
	s.Nil(room.Session)
	s.NotEmpty(room.UsedWordPool)
}
