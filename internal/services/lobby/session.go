package lobby

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/wordbattle/internal/model"
)

// PreloadProgress is a client's report of how many round images it has loaded
type PreloadProgress struct {
	PlayerID     model.PlayerID
	RoomID       model.RoomID
	LoadedImages int
	TotalImages  int
	Percent      int
}

// StartGame starts a round in roomID if the host asks and every member is ready.
// The word library is read before the state lock is taken.
func (c *Controller) StartGame(ctx context.Context, conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID) {
	library, err := c.words.Words(ctx)
	if err != nil {
		c.logger.Error("failed to load word library", slog.String("error", err.Error()))
	}
	images, err := c.words.Images(ctx)
	if err != nil {
		c.logger.Warn("failed to load word images", slog.String("error", err.Error()))
	}

	c.apply(func() []model.Event {
		return c.startGame(conn, playerID, roomID, library, images)
	})
}

func (c *Controller) startGame(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID, library []string, images map[string]string) []model.Event {
	p := c.owned(conn, playerID)
	if p == nil {
		return nil
	}
	room := c.memberRoom(p, roomID)
	if room == nil {
		return nil
	}

	reject := func(msg string) []model.Event {
		return []model.Event{toConn(conn, model.EventGameStartError, model.MessagePayload{Message: msg})}
	}
	if !room.IsHost(p.ID) {
		return reject(msgNotHost)
	}
	if room.Started {
		return reject(msgGameInProgress)
	}
	for _, id := range room.Members {
		if member, ok := c.players[id]; !ok || member.Status != model.StatusInRoom {
			return reject(msgPlayersBusy)
		}
	}

	if err := c.engine.Start(room, library); err != nil {
		if errors.Is(err, model.ErrNotEnoughWords) {
			return reject(msgNotEnoughWords)
		}
		c.logger.Error("failed to start game",
			slog.String("room_id", string(room.ID)),
			slog.String("error", err.Error()),
		)
		return reject(err.Error())
	}

	for _, id := range room.Members {
		c.players[id].Status = model.StatusInGame
	}

	c.logger.Info("game started",
		slog.String("room_id", string(room.ID)),
		slog.Int("player_count", len(room.Members)),
		slog.Int("question_count", len(room.Session.Questions)),
	)

	targets := c.connections(room.Members)
	first := room.Session.Questions[0]
	return []model.Event{
		{
			Name:    model.EventPreloadStarted,
			Payload: preloadPayload(room.Session.Questions, images),
			Targets: targets,
		},
		{
			Name: model.EventGameStarted,
			Payload: model.QuestionPayload{
				Word:   first.Word,
				Images: first.Options,
				Index:  0,
				Total:  len(room.Session.Questions),
			},
			Targets: targets,
		},
		c.stateEvent(),
	}
}

// preloadPayload lists every distinct option word of the round with its image
func preloadPayload(questions []model.Question, images map[string]string) model.PreloadStartedPayload {
	seen := make(map[string]bool)
	list := []model.PreloadImage{}
	for _, q := range questions {
		for _, opt := range q.Options {
			if seen[opt] {
				continue
			}
			seen[opt] = true
			list = append(list, model.PreloadImage{Word: opt, Image: images[opt]})
		}
	}
	return model.PreloadStartedPayload{Images: list, TotalImages: len(list)}
}

// SubmitAnswer records an answer and reveals its correctness to the player
func (c *Controller) SubmitAnswer(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID, choice string) {
	c.apply(func() []model.Event {
		p := c.owned(conn, playerID)
		if p == nil || p.Status != model.StatusInGame {
			return nil
		}
		room := c.memberRoom(p, roomID)
		if room == nil {
			return nil
		}
		outcome, err := c.engine.Submit(room, p.ID, choice)
		if err != nil {
			c.logger.Debug("answer ignored",
				slog.String("player_id", string(p.ID)),
				slog.String("reason", err.Error()),
			)
			return nil
		}
		return []model.Event{toConn(conn, model.EventAnswerResult, model.AnswerResultPayload{
			IsCorrect: outcome.Correct,
			Progress:  outcome.Progress,
		})}
	})
}

// RequestNextQuestion advances the player, sending either the next question
// or their personal tally
func (c *Controller) RequestNextQuestion(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID) {
	c.apply(func() []model.Event {
		p := c.owned(conn, playerID)
		if p == nil || p.Status != model.StatusInGame {
			return nil
		}
		room := c.memberRoom(p, roomID)
		if room == nil {
			return nil
		}
		step, err := c.engine.Advance(room, p.ID)
		if err != nil {
			return nil
		}
		if !step.Done() {
			return []model.Event{toConn(conn, model.EventNextQuestion, model.QuestionPayload{
				Word:   step.Question.Word,
				Images: step.Question.Options,
				Index:  step.Index,
				Total:  step.Total,
			})}
		}
		return c.finishPlayer(conn, p, room, *step.Tally)
	})
}

// LeaveGame forfeits the rest of the player's question sequence
func (c *Controller) LeaveGame(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID) {
	c.apply(func() []model.Event {
		p := c.owned(conn, playerID)
		if p == nil || p.Status != model.StatusInGame {
			return nil
		}
		room := c.memberRoom(p, roomID)
		if room == nil {
			return nil
		}
		tally, err := c.engine.Forfeit(room, p.ID)
		if err != nil {
			return nil
		}
		return c.finishPlayer(conn, p, room, tally)
	})
}

func (c *Controller) finishPlayer(conn model.ConnectionID, p *model.Player, room *model.Room, tally model.Tally) []model.Event {
	p.Status = model.StatusInResult

	c.logger.Info("player finished round",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(p.ID)),
		slog.Int("accuracy", tally.Accuracy),
	)

	events := []model.Event{toConn(conn, model.EventGameCompleted, tally)}
	events = append(events, c.completionEvents(room)...)
	return append(events, c.stateEvent())
}

// completionEvents closes the round once every remaining participant has finished
func (c *Controller) completionEvents(room *model.Room) []model.Event {
	if !c.engine.AllComplete(room) {
		return nil
	}

	names := make(map[model.PlayerID]string, len(room.Members))
	for _, id := range room.Members {
		if p, ok := c.players[id]; ok {
			names[id] = p.Name
		}
	}
	results := c.engine.Results(room, names)
	c.engine.End(room)

	c.logger.Info("round completed",
		slog.String("room_id", string(room.ID)),
		slog.Int("player_count", len(results)),
	)

	targets := c.connections(room.Members)
	if len(targets) == 0 {
		return nil
	}
	return []model.Event{{
		Name:    model.EventAllPlayersCompleted,
		Payload: results,
		Targets: targets,
	}}
}

// ReturnToRoom moves a player from the results screen back to the room
func (c *Controller) ReturnToRoom(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID) {
	c.apply(func() []model.Event {
		p := c.owned(conn, playerID)
		if p == nil || p.Status != model.StatusInResult {
			return nil
		}
		if c.memberRoom(p, roomID) == nil {
			return nil
		}
		p.Status = model.StatusInRoom
		return []model.Event{c.stateEvent()}
	})
}

// RelayPreloadProgress forwards a player's image loading progress to their room
func (c *Controller) RelayPreloadProgress(conn model.ConnectionID, progress PreloadProgress) {
	c.apply(func() []model.Event {
		p := c.owned(conn, progress.PlayerID)
		if p == nil {
			return nil
		}
		room := c.memberRoom(p, progress.RoomID)
		if room == nil {
			return nil
		}
		return []model.Event{{
			Name: model.EventPreloadProgressUpdate,
			Payload: model.PreloadProgressPayload{
				PlayerID:     p.ID,
				LoadedImages: progress.LoadedImages,
				TotalImages:  progress.TotalImages,
				Percent:      progress.Percent,
			},
			Targets: c.connections(room.Members),
		}}
	})
}
