package application

import (
	"context"
	"errors"
	"testing"

	"wordler/models"
	"wordler/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWordleHandler_RecordsShare(t *testing.T) {
	store := &fakeStore{}
	publisher := &mockPublisher{}
	publisher.On("PublishResultRecorded", mock.Anything, mock.MatchedBy(func(r models.PuzzleResult) bool {
		return r.AuthorID == "111" && r.PuzzleID == 986
	})).Return(nil).Once()
	metrics := newCountingMetrics()

	handler := NewWordleHandler(newTestRouter(nil, nil, nil), store, publisher, metrics)

	recorded, err := handler.HandleMessage(context.Background(), textMessage("m-1", "111", share))
	require.NoError(t, err)

	assert.Equal(t, 1, recorded)
	require.Len(t, store.recorded, 1)
	assert.Equal(t, "player-111", store.recorded[0].AuthorName)
	assert.Equal(t, 1, store.persists)
	assert.Equal(t, 1, metrics.recorded["text"])
	publisher.AssertExpectations(t)
}

func TestWordleHandler_IgnoresChatter(t *testing.T) {
	store := &fakeStore{}
	publisher := &mockPublisher{}
	handler := NewWordleHandler(newTestRouter(nil, nil, nil), store, publisher, nil)

	recorded, err := handler.HandleMessage(context.Background(), textMessage("m-2", "111", "lol same"))
	require.NoError(t, err)

	assert.Equal(t, 0, recorded)
	assert.Equal(t, 0, store.persists)
	publisher.AssertNotCalled(t, "PublishResultRecorded", mock.Anything, mock.Anything)
}

func TestWordleHandler_OneFailedRecordDoesNotStopOthers(t *testing.T) {
	store := &fakeStore{recordErr: map[string]error{"111": errors.New("boom")}}
	handler := NewWordleHandler(newTestRouter(nil, nil, nil), store, nil, nil)

	msg := appMessage("m-3", "3/6: <@111>\n4/6: <@222>")
	recorded, err := handler.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, 1, recorded)
	require.Len(t, store.recorded, 1)
	assert.Equal(t, "222", store.recorded[0].AuthorID)
}

func TestWordleHandler_ClosedStoreStopsRecording(t *testing.T) {
	store := &fakeStore{recordErr: map[string]error{"111": service.ErrStoreClosed}}
	handler := NewWordleHandler(newTestRouter(nil, nil, nil), store, nil, nil)

	msg := appMessage("m-3", "3/6: <@111>\n4/6: <@222>")
	recorded, err := handler.HandleMessage(context.Background(), msg)

	assert.ErrorIs(t, err, service.ErrStoreClosed)
	assert.Equal(t, 0, recorded)
	assert.Empty(t, store.recorded)
	assert.Equal(t, 0, store.persists)
}

func TestWordleHandler_IgnoresScoreChatter(t *testing.T) {
	store := &fakeStore{}
	handler := NewWordleHandler(newTestRouter(nil, stubResolver{"bob": {UserID: "222"}}, nil), store, nil, nil)

	recorded, err := handler.HandleMessage(context.Background(), textMessage("m-8", "111", "got 3/6: @bob beat me"))
	require.NoError(t, err)

	assert.Equal(t, 0, recorded)
	assert.Empty(t, store.recorded)
}

func TestWordleHandler_PersistFailure(t *testing.T) {
	store := &fakeStore{persistErr: errors.New("disk full")}
	handler := NewWordleHandler(newTestRouter(nil, nil, nil), store, nil, nil)

	recorded, err := handler.HandleMessage(context.Background(), textMessage("m-4", "111", share))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, recorded)
}

func TestWordleHandler_PublishFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	publisher := &mockPublisher{}
	publisher.On("PublishResultRecorded", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	handler := NewWordleHandler(newTestRouter(nil, nil, nil), store, publisher, nil)

	recorded, err := handler.HandleMessage(context.Background(), textMessage("m-5", "111", share))
	require.NoError(t, err)
	assert.Equal(t, 1, recorded)
	assert.Equal(t, 1, store.persists)
}
