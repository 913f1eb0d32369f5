// Package gmailapi implements the mail gateway on the Gmail REST API.
package gmailapi

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"

	"github.com/mikey/llm-mail-triage/internal/core"
)

const gmailUserID = "me"

// fetchWindow bounds how many detail fetches run concurrently. One window
// is awaited in full before the next starts.
const fetchWindow = 8

// MessagesAPI is the slice of the Gmail messages surface the gateway uses
type MessagesAPI interface {
	List(ctx context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error)
	Get(ctx context.Context, msgID string) (*gmail.Message, error)
	Modify(ctx context.Context, msgID string, req *gmail.ModifyMessageRequest) error
}

// Gateway implements core.MailGateway against the Gmail API
type Gateway struct {
	api    MessagesAPI
	logger *zap.Logger
}

// NewGateway creates a gateway over the given messages API
func NewGateway(api MessagesAPI, logger *zap.Logger) *Gateway {
	return &Gateway{
		api:    api,
		logger: logger,
	}
}

// Search lists message refs matching the query. It fails soft: any
// transport error is logged and surfaces as an empty result.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int64) []core.MessageRef {
	result, err := g.api.List(ctx, query, maxResults)
	if err != nil {
		g.logger.Warn("Message search failed",
			zap.String("query", query),
			zap.Error(err))
		return nil
	}

	refs := make([]core.MessageRef, 0, len(result.Messages))
	for _, m := range result.Messages {
		refs = append(refs, core.MessageRef{ID: m.Id})
	}
	return refs
}

// FetchDetails fetches full messages in fixed-size concurrency windows.
// A single failed fetch fails the whole call; there is no per-item retry.
func (g *Gateway) FetchDetails(ctx context.Context, refs []core.MessageRef) ([]core.MessageDetail, error) {
	details := make([]core.MessageDetail, len(refs))

	for start := 0; start < len(refs); start += fetchWindow {
		end := start + fetchWindow
		if end > len(refs) {
			end = len(refs)
		}

		eg, egctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			eg.Go(func() error {
				msg, err := g.api.Get(egctx, refs[i].ID)
				if err != nil {
					return fmt.Errorf("fetching message %s failed: %w", refs[i].ID, err)
				}
				details[i] = detailFromMessage(msg)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	return details, nil
}

// MutateLabels adds and removes labels on one message. Failures are
// logged and reported as false so the caller can degrade gracefully.
func (g *Gateway) MutateLabels(ctx context.Context, id string, addLabels, removeLabels []string) bool {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabels,
		RemoveLabelIds: removeLabels,
	}
	if err := g.api.Modify(ctx, id, req); err != nil {
		g.logger.Warn("Label mutation failed",
			zap.String("id", id),
			zap.Strings("add", addLabels),
			zap.Strings("remove", removeLabels),
			zap.Error(err))
		return false
	}
	return true
}

func detailFromMessage(msg *gmail.Message) core.MessageDetail {
	headers := map[string]string{}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			headers[h.Name] = h.Value
		}
	}
	return core.NewMessageDetail(msg.Id, msg.Snippet, headers)
}

// gmailMessagesAPI adapts a live *gmail.Service to MessagesAPI
type gmailMessagesAPI struct {
	svc *gmail.Service
}

// NewMessagesAPI wraps a Gmail service in the gateway's API surface
func NewMessagesAPI(svc *gmail.Service) MessagesAPI {
	return &gmailMessagesAPI{svc: svc}
}

func (a *gmailMessagesAPI) List(ctx context.Context, query string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	result, err := a.svc.Users.Messages.List(gmailUserID).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}
	return result, nil
}

func (a *gmailMessagesAPI) Get(ctx context.Context, msgID string) (*gmail.Message, error) {
	msg, err := a.svc.Users.Messages.Get(gmailUserID, msgID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}
	return msg, nil
}

func (a *gmailMessagesAPI) Modify(ctx context.Context, msgID string, req *gmail.ModifyMessageRequest) error {
	if _, err := a.svc.Users.Messages.Modify(gmailUserID, msgID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("messages.Modify failed: %w", err)
	}
	return nil
}
