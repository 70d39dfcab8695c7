package quiz

import (
	"math"
	"slices"

	"github.com/mcoot/wordbattle/internal/dependencies/clock"
	"github.com/mcoot/wordbattle/internal/dependencies/random"
	"github.com/mcoot/wordbattle/internal/model"
)

// DefaultRoundSize is the number of questions in a round
const DefaultRoundSize = 10

// Engine generates question sequences and tracks per-player progress.
// It mutates rooms in place and holds no state of its own, so callers
// must serialize access to the rooms they pass in.
type Engine struct {
	clock     clock.Clock
	random    random.Random
	roundSize int
}

// New creates a new quiz Engine
func New(clock clock.Clock, random random.Random, roundSize int) *Engine {
	if roundSize <= 0 {
		roundSize = DefaultRoundSize
	}
	return &Engine{
		clock:     clock,
		random:    random,
		roundSize: roundSize,
	}
}

// RoundSize returns the configured number of questions per round
func (e *Engine) RoundSize() int {
	return e.roundSize
}

// AnswerOutcome is the result of submitting an answer
type AnswerOutcome struct {
	Correct  bool
	Progress model.ProgressCounters
}

// Step is the result of advancing: either the next question or the final tally
type Step struct {
	Question *model.Question
	Index    int
	Total    int
	Tally    *model.Tally
}

// Done reports whether the step finished the player's sequence
func (s Step) Done() bool {
	return s.Tally != nil
}

// GenerateQuestions draws a round of questions for the room from library.
// Targets avoid the room's used pool; when too few unused words remain the
// pool is reset first. Drawn targets are appended to the pool.
func (e *Engine) GenerateQuestions(room *model.Room, library []string) ([]model.Question, error) {
	if len(library) < model.OptionsPerQuestion {
		return nil, model.ErrNotEnoughWords
	}
	size := min(e.roundSize, len(library))

	available := unused(library, room.UsedWordPool)
	if len(available) < size {
		room.UsedWordPool = nil
		available = library
	}

	targets := random.Sample(e.random, available, size)
	questions := make([]model.Question, 0, size)
	for _, target := range targets {
		others := slices.DeleteFunc(slices.Clone(library), func(w string) bool { return w == target })
		options := random.Sample(e.random, others, model.OptionsPerQuestion-1)
		options = append(options, target)
		random.Shuffle(e.random, len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		questions = append(questions, model.Question{Word: target, Options: options})
	}

	room.UsedWordPool = append(room.UsedWordPool, targets...)
	return questions, nil
}

// Start generates questions and opens a session covering every current member
func (e *Engine) Start(room *model.Room, library []string) error {
	if room.Started {
		return model.ErrGameInProgress
	}
	questions, err := e.GenerateQuestions(room, library)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	session := &model.Session{
		Questions: questions,
		Progress:  make(map[model.PlayerID]*model.Progress, len(room.Members)),
		StartedAt: now,
	}
	for _, id := range room.Members {
		session.Progress[id] = &model.Progress{StartTime: now}
	}

	room.Session = session
	room.Started = true
	return nil
}

// Current returns the question the player is currently on
func (e *Engine) Current(room *model.Room, playerID model.PlayerID) (Step, error) {
	session, progress, err := lookup(room, playerID)
	if err != nil {
		return Step{}, err
	}
	if progress.Finished() {
		return Step{}, model.ErrSequenceFinished
	}
	return questionStep(session, progress.CurrentIndex), nil
}

// Submit records the player's answer to their current question without advancing
func (e *Engine) Submit(room *model.Room, playerID model.PlayerID, choice string) (AnswerOutcome, error) {
	session, progress, err := lookup(room, playerID)
	if err != nil {
		return AnswerOutcome{}, err
	}
	if progress.Finished() || progress.CurrentIndex >= len(session.Questions) {
		return AnswerOutcome{}, model.ErrSequenceFinished
	}
	if progress.Answered {
		return AnswerOutcome{}, model.ErrAlreadyAnswered
	}

	correct := choice == session.Questions[progress.CurrentIndex].Word
	if correct {
		progress.CorrectCount++
	}
	progress.Answered = true

	return AnswerOutcome{
		Correct: correct,
		Progress: model.ProgressCounters{
			Current: progress.CurrentIndex + 1,
			Total:   len(session.Questions),
			Correct: progress.CorrectCount,
		},
	}, nil
}

// Advance moves the player to their next question, finishing the sequence
// when the last question is passed
func (e *Engine) Advance(room *model.Room, playerID model.PlayerID) (Step, error) {
	session, progress, err := lookup(room, playerID)
	if err != nil {
		return Step{}, err
	}
	if progress.Finished() {
		return Step{}, model.ErrSequenceFinished
	}

	progress.CurrentIndex++
	progress.Answered = false
	if progress.CurrentIndex < len(session.Questions) {
		return questionStep(session, progress.CurrentIndex), nil
	}

	tally := e.finish(session, progress)
	return Step{Total: len(session.Questions), Tally: &tally}, nil
}

// Forfeit ends the player's sequence immediately, counting unanswered questions as wrong
func (e *Engine) Forfeit(room *model.Room, playerID model.PlayerID) (model.Tally, error) {
	session, progress, err := lookup(room, playerID)
	if err != nil {
		return model.Tally{}, err
	}
	if progress.Finished() {
		return model.Tally{}, model.ErrSequenceFinished
	}
	progress.CurrentIndex = len(session.Questions)
	progress.Answered = false
	return e.finish(session, progress), nil
}

// RemovePlayer drops a player's progress from the active session, if any
func (e *Engine) RemovePlayer(room *model.Room, playerID model.PlayerID) {
	if room.Session != nil {
		delete(room.Session.Progress, playerID)
	}
}

// AllComplete reports whether every current member with progress has finished
func (e *Engine) AllComplete(room *model.Room) bool {
	if room.Session == nil {
		return false
	}
	tracked := 0
	for _, id := range room.Members {
		progress, ok := room.Session.Progress[id]
		if !ok {
			continue
		}
		tracked++
		if !progress.Finished() {
			return false
		}
	}
	return tracked > 0
}

// Results builds the room-wide results table for the session's players
func (e *Engine) Results(room *model.Room, names map[model.PlayerID]string) map[model.PlayerID]model.PlayerResult {
	results := make(map[model.PlayerID]model.PlayerResult)
	if room.Session == nil {
		return results
	}
	total := len(room.Session.Questions)
	for _, id := range room.Members {
		progress, ok := room.Session.Progress[id]
		if !ok || !progress.Finished() {
			continue
		}
		tally := tallyOf(progress, total)
		results[id] = model.PlayerResult{
			Name:           names[id],
			TotalTime:      tally.TotalTime,
			Accuracy:       tally.Accuracy,
			CorrectAnswers: tally.CorrectAnswers,
		}
	}
	return results
}

// End closes the room's session, readying it for another round
func (e *Engine) End(room *model.Room) {
	room.Started = false
	room.Session = nil
}

func (e *Engine) finish(session *model.Session, progress *model.Progress) model.Tally {
	end := e.clock.Now()
	progress.EndTime = &end
	return tallyOf(progress, len(session.Questions))
}

func lookup(room *model.Room, playerID model.PlayerID) (*model.Session, *model.Progress, error) {
	if room.Session == nil {
		return nil, nil, model.ErrNoGameInProgress
	}
	progress, ok := room.Session.Progress[playerID]
	if !ok {
		return nil, nil, model.ErrNotInRoom
	}
	return room.Session, progress, nil
}

func questionStep(session *model.Session, index int) Step {
	q := session.Questions[index]
	return Step{Question: &q, Index: index, Total: len(session.Questions)}
}

func tallyOf(progress *model.Progress, total int) model.Tally {
	tally := model.Tally{
		CorrectAnswers: progress.CorrectCount,
		TotalQuestions: total,
	}
	if progress.EndTime != nil {
		tally.TotalTime = progress.EndTime.Sub(progress.StartTime).Milliseconds()
	}
	if total > 0 {
		tally.Accuracy = int(math.Round(100 * float64(progress.CorrectCount) / float64(total)))
	}
	return tally
}

func unused(library, pool []string) []string {
	used := make(map[string]struct{}, len(pool))
	for _, w := range pool {
		used[w] = struct{}{}
	}
	var available []string
	for _, w := range library {
		if _, ok := used[w]; !ok {
			available = append(available, w)
		}
	}
	return available
}
