package domain

import "time"

type ThreadKind string

const (
	ThreadText ThreadKind = "text"
	ThreadPoll ThreadKind = "poll"
)

type Thread struct {
	Id          ThreadId     `json:"id"`
	ChannelId   ChannelId    `json:"channel_id"`
	Title       ThreadTitle  `json:"title"`
	Slug        Slug         `json:"slug"`
	Number      ThreadNumber `json:"number"`
	AuthorId    UserId       `json:"author_id"`
	Kind        ThreadKind   `json:"kind"`
	Body        string       `json:"body,omitempty"`
	Upvoters    []UserId     `json:"upvoters"`
	Sticky      bool         `json:"sticky"`
	Mentions    []UserId     `json:"mentions,omitempty"`
	Attachments Attachments  `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	ChannelId   ChannelId
	Title       ThreadTitle
	AuthorId    UserId
	Kind        ThreadKind
	Body        string
	Poll        *PollSpec
	Mentions    []UserId // nil means "resolve from body"
	Attachments Attachments
}

type ThreadCreated struct {
	Id     ThreadId     `json:"id"`
	Slug   Slug         `json:"slug"`
	Number ThreadNumber `json:"number"`
}

// ThreadView is a thread enriched for listing.
type ThreadView struct {
	Thread
	Author      *User `json:"author,omitempty"`
	UpvoteCount int   `json:"upvote_count"`
}
