package words

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordbattle/internal/dependencies/mocks"
	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/storage"
	"github.com/mcoot/wordbattle/internal/storage/memory"
	"github.com/mcoot/wordbattle/internal/testutil"
)

// stubFetcher returns canned results and can block until released
type stubFetcher struct {
	enabled bool
	image   string
	err     error
	release chan struct{}

	mu    sync.Mutex
	calls []string
}

func (f *stubFetcher) Enabled() bool { return f.enabled }

func (f *stubFetcher) Fetch(ctx context.Context, word string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, word)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.image, f.err
}

// deleteOnWrite removes the word just before the image write lands, the way an
// admin delete can interleave with a background resolution
type deleteOnWrite struct {
	storage.Storage
}

func (d deleteOnWrite) SetWordImage(ctx context.Context, word, image string) error {
	if err := d.Storage.DeleteWord(ctx, word); err != nil {
		return err
	}
	return d.Storage.SetWordImage(ctx, word, image)
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	fetcher *stubFetcher
	service *Service
	ctx     context.Context

	mu      sync.Mutex
	results []model.ImageResult
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.fetcher = &stubFetcher{enabled: true, image: "https://cdn.example.com/x.png"}
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.fetcher, clk, testutil.NopLogger())
	s.ctx = context.Background()
	s.results = nil
	s.service.SetImageNotifier(func(r model.ImageResult) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.results = append(s.results, r)
	})
}

func (s *ServiceSuite) imageResults() []model.ImageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ImageResult(nil), s.results...)
}

func (s *ServiceSuite) TestNormalize() {
	tests := map[string]string{
		"Apple":        "apple",
		"  ice  cream": "ice cream",
		"t-shirt":      "t-shirt",
		"don't":        "don't",
	}
	for raw, want := range tests {
		got, err := Normalize(raw)
		s.Require().NoError(err, raw)
		s.Equal(want, got)
	}

	for _, bad := range []string{"", "   ", "apple1", "-apple", "apple!", "日本"} {
		_, err := Normalize(bad)
		s.ErrorIs(err, model.ErrInvalidWord, bad)
	}
}

func (s *ServiceSuite) TestAddStoresNormalizedWord() {
	entry, err := s.service.Add(s.ctx, "  Apple ")
	s.Require().NoError(err)
	s.Equal("apple", entry.Word)

	words, err := s.service.Words(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"apple"}, words)
}

func (s *ServiceSuite) TestAddDuplicateCaseInsensitive() {
	_, _ = s.service.Add(s.ctx, "apple")

	_, err := s.service.Add(s.ctx, "APPLE")
	s.ErrorIs(err, model.ErrWordExists)
}

func (s *ServiceSuite) TestAddInvalidWord() {
	_, err := s.service.Add(s.ctx, "123")
	s.ErrorIs(err, model.ErrInvalidWord)
}

func (s *ServiceSuite) TestAddDoesNotWaitForImage() {
	s.fetcher.release = make(chan struct{})

	done := make(chan struct{})
	go func() {
		_, _ = s.service.Add(s.ctx, "apple")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("Add blocked on image resolution")
	}

	s.Empty(s.imageResults())
	close(s.fetcher.release)
	s.service.Wait()
	s.Len(s.imageResults(), 1)
}

func (s *ServiceSuite) TestImageResolvedAndNotified() {
	_, _ = s.service.Add(s.ctx, "apple")
	s.service.Wait()

	word, err := s.storage.GetWord(s.ctx, "apple")
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/x.png", word.Image)

	results := s.imageResults()
	s.Require().Len(results, 1)
	s.Equal(model.ImageResult{Word: "apple", Success: true, Message: "downloaded"}, results[0])
}

func (s *ServiceSuite) TestImageNotFoundNotified() {
	s.fetcher.err = model.ErrImageNotFound
	_, _ = s.service.Add(s.ctx, "apple")
	s.service.Wait()

	results := s.imageResults()
	s.Require().Len(results, 1)
	s.False(results[0].Success)
	s.Equal("not found", results[0].Message)

	word, _ := s.storage.GetWord(s.ctx, "apple")
	s.Empty(word.Image)
}

func (s *ServiceSuite) TestImageFailureNotified() {
	s.fetcher.err = errors.New("boom")
	_, _ = s.service.Add(s.ctx, "apple")
	s.service.Wait()

	results := s.imageResults()
	s.Require().Len(results, 1)
	s.False(results[0].Success)
	s.Equal("download failed", results[0].Message)
}

func (s *ServiceSuite) TestDeletedBeforeImageResolvesIsSilent() {
	s.fetcher.release = make(chan struct{})
	_, _ = s.service.Add(s.ctx, "apple")
	s.Require().NoError(s.service.Delete(s.ctx, "apple"))
	close(s.fetcher.release)
	s.service.Wait()

	s.Empty(s.imageResults())
	_, err := s.storage.GetWord(s.ctx, "apple")
	s.ErrorIs(err, model.ErrWordNotFound)
}

func (s *ServiceSuite) TestDeleteDuringImageWriteStaysDeleted() {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	service := New(deleteOnWrite{Storage: s.storage}, s.fetcher, clk, testutil.NopLogger())
	var notified []model.ImageResult
	service.SetImageNotifier(func(r model.ImageResult) { notified = append(notified, r) })

	_, err := service.Add(s.ctx, "apple")
	s.Require().NoError(err)
	service.Wait()

	words, err := service.Words(s.ctx)
	s.Require().NoError(err)
	s.Empty(words)
	s.Empty(notified)
}

func (s *ServiceSuite) TestDisabledFetcherSkipsResolution() {
	s.fetcher.enabled = false
	_, err := s.service.Add(s.ctx, "apple")
	s.Require().NoError(err)
	s.service.Wait()

	s.Empty(s.fetcher.calls)
	s.Empty(s.imageResults())
}

func (s *ServiceSuite) TestDeleteNotFound() {
	err := s.service.Delete(s.ctx, "apple")
	s.ErrorIs(err, model.ErrWordNotFound)
}

func (s *ServiceSuite) TestListSorted() {
	s.Require().NoError(s.service.LoadWords(s.ctx, []string{"cherry", "Apple", "banana", "bad1"}))

	words, err := s.service.Words(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"apple", "banana", "cherry"}, words)
}

func (s *ServiceSuite) TestSeedFromText() {
	n, err := s.service.Seed(s.ctx, "testdata/words.txt")
	s.Require().NoError(err)
	s.Equal(3, n)

	words, _ := s.service.Words(s.ctx)
	s.Equal([]string{"apple", "banana", "cherry"}, words)
}

func (s *ServiceSuite) TestSeedFromYAML() {
	n, err := s.service.Seed(s.ctx, "testdata/words.yaml")
	s.Require().NoError(err)
	s.Equal(3, n)

	images, err := s.service.Images(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[string]string{"banana": "https://cdn.example.com/banana.png"}, images)
}

func (s *ServiceSuite) TestSeedSkipsNonEmptyLibrary() {
	_, _ = s.service.Add(s.ctx, "kiwi")
	s.service.Wait()

	n, err := s.service.Seed(s.ctx, "testdata/words.txt")
	s.Require().NoError(err)
	s.Equal(0, n)

	words, _ := s.service.Words(s.ctx)
	s.Equal([]string{"kiwi"}, words)
}

func (s *ServiceSuite) TestSeedMissingFile() {
	_, err := s.service.Seed(s.ctx, "testdata/missing.txt")
	s.Error(err)
}
