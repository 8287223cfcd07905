package domain

import "time"

type Comment struct {
	Id        CommentId `json:"id"`
	ThreadId  ThreadId  `json:"thread_id"`
	AuthorId  UserId    `json:"author_id"`
	Body      string    `json:"body"`
	Likers    []UserId  `json:"likers"`
	Mentions  []UserId  `json:"mentions,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentCreationData struct {
	ThreadId ThreadId
	AuthorId UserId
	Body     string
	Mentions []UserId // nil means "resolve from body"
}
