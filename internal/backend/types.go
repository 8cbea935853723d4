package backend

import "chat-widget/internal/content"

// QueryRequest is the body of a chat query.
type QueryRequest struct {
	Text     string  `json:"text"`
	UserID   string  `json:"userId"`
	ThreadID *string `json:"thread_id"`
}

// Reply is a successful query answer. ThreadID is empty when the backend
// did not return one.
type Reply struct {
	Content  content.Raw
	ThreadID string
}

type clearRequest struct {
	UserID string `json:"userId"`
}

type errorBody struct {
	Error string `json:"error"`
}
