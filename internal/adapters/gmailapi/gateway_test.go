package gmailapi

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/mikey/llm-mail-triage/internal/core"
)

type apiMock struct {
	ListFunc   func(ctx context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetFunc    func(ctx context.Context, msgID string) (*gmail.Message, error)
	ModifyFunc func(ctx context.Context, msgID string, req *gmail.ModifyMessageRequest) error
}

func (m *apiMock) List(ctx context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListFunc(ctx, query, maxResults)
}

func (m *apiMock) Get(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetFunc(ctx, msgID)
}

func (m *apiMock) Modify(ctx context.Context, msgID string, req *gmail.ModifyMessageRequest) error {
	return m.ModifyFunc(ctx, msgID, req)
}

func testMessage(id string) *gmail.Message {
	return &gmail.Message{
		Id:      id,
		Snippet: "snippet " + id,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: id + "@test.com"},
				{Name: "Subject", Value: "subject " + id},
			},
		},
	}
}

func TestSearchReturnsRefs(t *testing.T) {
	api := &apiMock{
		ListFunc: func(_ context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error) {
			assert.Equal(t, "in:inbox is:unread", query)
			assert.Equal(t, int64(7), maxResults)
			return &gmail.ListMessagesResponse{
				Messages: []*gmail.Message{{Id: "m1"}, {Id: "m2"}},
			}, nil
		},
	}

	g := NewGateway(api, zap.NewNop())
	refs := g.Search(context.Background(), "in:inbox is:unread", 7)

	assert.Equal(t, []core.MessageRef{{ID: "m1"}, {ID: "m2"}}, refs)
}

func TestSearchFailsSoft(t *testing.T) {
	api := &apiMock{
		ListFunc: func(context.Context, string, int64) (*gmail.ListMessagesResponse, error) {
			return nil, errors.New("transport down")
		},
	}

	g := NewGateway(api, zap.NewNop())
	refs := g.Search(context.Background(), "in:inbox", 7)

	assert.Empty(t, refs, "a failed search looks like an empty mailbox")
}

func TestFetchDetailsPreservesOrder(t *testing.T) {
	api := &apiMock{
		GetFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			return testMessage(msgID), nil
		},
	}

	refs := make([]core.MessageRef, 0, 20)
	for i := 0; i < 20; i++ {
		refs = append(refs, core.MessageRef{ID: string(rune('a' + i))})
	}

	g := NewGateway(api, zap.NewNop())
	details, err := g.FetchDetails(context.Background(), refs)

	require.NoError(t, err)
	require.Len(t, details, 20)
	for i, d := range details {
		assert.Equal(t, refs[i].ID, d.ID)
		assert.Equal(t, refs[i].ID+"@test.com", d.Header("From"))
	}
}

func TestFetchDetailsBoundedConcurrency(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex

	api := &apiMock{
		GetFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			n := atomic.AddInt64(&inFlight, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			defer atomic.AddInt64(&inFlight, -1)
			return testMessage(msgID), nil
		},
	}

	refs := make([]core.MessageRef, 0, 30)
	for i := 0; i < 30; i++ {
		refs = append(refs, core.MessageRef{ID: string(rune('a' + i))})
	}

	g := NewGateway(api, zap.NewNop())
	_, err := g.FetchDetails(context.Background(), refs)

	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(fetchWindow))
}

func TestFetchDetailsFailsWhole(t *testing.T) {
	api := &apiMock{
		GetFunc: func(_ context.Context, msgID string) (*gmail.Message, error) {
			if msgID == "m2" {
				return nil, errors.New("not found")
			}
			return testMessage(msgID), nil
		},
	}

	g := NewGateway(api, zap.NewNop())
	details, err := g.FetchDetails(context.Background(), []core.MessageRef{
		{ID: "m1"}, {ID: "m2"}, {ID: "m3"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "m2")
	assert.Nil(t, details)
}

func TestFetchDetailsEmptyInput(t *testing.T) {
	g := NewGateway(&apiMock{}, zap.NewNop())
	details, err := g.FetchDetails(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestMutateLabels(t *testing.T) {
	var captured *gmail.ModifyMessageRequest
	api := &apiMock{
		ModifyFunc: func(_ context.Context, msgID string, req *gmail.ModifyMessageRequest) error {
			assert.Equal(t, "m1", msgID)
			captured = req
			return nil
		},
	}

	g := NewGateway(api, zap.NewNop())
	ok := g.MutateLabels(context.Background(), "m1", []string{"Label_1"}, []string{"INBOX"})

	assert.True(t, ok)
	require.NotNil(t, captured)
	assert.Equal(t, []string{"Label_1"}, captured.AddLabelIds)
	assert.Equal(t, []string{"INBOX"}, captured.RemoveLabelIds)
}

func TestMutateLabelsFailsSoft(t *testing.T) {
	api := &apiMock{
		ModifyFunc: func(context.Context, string, *gmail.ModifyMessageRequest) error {
			return errors.New("permission denied")
		},
	}

	g := NewGateway(api, zap.NewNop())
	assert.False(t, g.MutateLabels(context.Background(), "m1", []string{"Label_1"}, nil))
}
