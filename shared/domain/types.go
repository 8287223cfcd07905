package domain

type (
	UserId     = string
	ExternalId = string
	Email      = string

	SectionId = string
	ChannelId = string
	Slug      = string

	ThreadId     = string
	ThreadTitle  = string
	ThreadNumber = int64

	PollId    = string
	CommentId = string
)
