package telegram

import "context"

// ChatMemberGetter - часть Bot API для проверки участия в чате.
type ChatMemberGetter interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (ChatMember, error)
}

// ChannelMembership проверяет подписку пользователей на один канал.
type ChannelMembership struct {
	api       ChatMemberGetter
	channelID int64
}

// NewChannelMembership создаёт проверку подписки на канал channelID.
func NewChannelMembership(api ChatMemberGetter, channelID int64) *ChannelMembership {
	return &ChannelMembership{api: api, channelID: channelID}
}

// IsSubscribed сообщает, состоит ли пользователь в канале.
func (c *ChannelMembership) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	member, err := c.api.GetChatMember(ctx, c.channelID, userID)
	if err != nil {
		return false, err
	}
	return member.Subscribed(), nil
}
