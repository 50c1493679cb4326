package chat

// SendMessageRequest carries a new message. Content may be empty only when an
// image is attached.
type SendMessageRequest struct {
	Content  string `json:"content" validate:"max=2000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

type MarkReadResponse struct {
	ChatID       string `json:"chatId"`
	MessagesRead int64  `json:"messagesRead"`
}
