package graph

import (
	"context"
	"net/url"
)

// MyChats retrieves all chats of the authenticated user. An optional
// OData $filter narrows the result server-side.
func (c *Client) MyChats(ctx context.Context, filter string) ([]Chat, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("$filter", filter)
	}
	chats, err := collectTyped[Chat](c.Paginate(ctx, "/me/chats", query, nil))
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Int("count", len(chats)).Msg("Retrieved chats")
	return chats, nil
}

// ChatsSeq starts a lazy paginated fetch of the user's chats with the
// given raw query parameters ($expand, $select, $top, $filter).
// Callers that filter client-side use this instead of MyChats to avoid
// buffering the full collection.
func (c *Client) ChatsSeq(ctx context.Context, query url.Values, onPage PageFunc) *Seq {
	return c.Paginate(ctx, "/me/chats", query, onPage)
}

// ChatByID retrieves a specific chat.
func (c *Client) ChatByID(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	if err := c.GetObject(ctx, "/chats/"+NormalizeChatID(chatID), nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ChatMembers retrieves the members of a chat.
func (c *Client) ChatMembers(ctx context.Context, chatID string) ([]ChatMember, error) {
	endpoint := "/chats/" + NormalizeChatID(chatID) + "/members"
	return collectTyped[ChatMember](c.Paginate(ctx, endpoint, nil, nil))
}

// ChatMessages retrieves the messages of a chat. filter and orderby are
// passed through as OData parameters; Graph requires $orderby on the
// same property whenever $filter is used. onPage reports per-page item
// counts for progress tracking.
func (c *Client) ChatMessages(ctx context.Context, chatID, filter, orderby string, onPage PageFunc) ([]Message, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("$filter", filter)
	}
	if orderby != "" {
		query.Set("$orderby", orderby)
	}

	endpoint := "/chats/" + NormalizeChatID(chatID) + "/messages"
	return collectTyped[Message](c.Paginate(ctx, endpoint, query, onPage))
}

// FindChatsByParticipants returns the chats whose member set contains
// every one of the given user ids. Members are attached to the returned
// chats.
func (c *Client) FindChatsByParticipants(ctx context.Context, participantIDs []string) ([]Chat, error) {
	chats, err := c.MyChats(ctx, "")
	if err != nil {
		return nil, err
	}

	var matching []Chat
	for i := range chats {
		chat := chats[i]
		members := chat.Members
		if members == nil {
			members, err = c.ChatMembers(ctx, chat.ID)
			if err != nil {
				return nil, err
			}
		}

		memberIDs := make(map[string]bool, len(members))
		for _, m := range members {
			if m.UserID != "" {
				memberIDs[m.UserID] = true
			}
		}

		all := true
		for _, id := range participantIDs {
			if !memberIDs[id] {
				all = false
				break
			}
		}
		if all {
			chat.Members = members
			matching = append(matching, chat)
		}
	}

	c.logger.Debug().
		Int("participants", len(participantIDs)).
		Int("matches", len(matching)).
		Msg("Matched chats by participants")
	return matching, nil
}
