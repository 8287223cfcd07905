package utils

import (
	"fmt"
	"unicode/utf8"

	"github.com/itchan-dev/kanaal/shared/errors"
)

type ThreadValidator struct {
	MaxTitleLength int
	MaxBodyLength  int
	MaxPollOptions int
}

func (v *ThreadValidator) Title(title string) error {
	if utf8.RuneCountInString(title) == 0 {
		return errors.InvalidArgument("Title is required")
	}
	if utf8.RuneCountInString(title) > v.MaxTitleLength {
		return errors.InvalidArgument(fmt.Sprintf("Title is too long (max %d characters)", v.MaxTitleLength))
	}
	return nil
}

func (v *ThreadValidator) Body(body string) error {
	if utf8.RuneCountInString(body) > v.MaxBodyLength {
		return errors.InvalidArgument(fmt.Sprintf("Text is too long (max %d characters)", v.MaxBodyLength))
	}
	return nil
}

func (v *ThreadValidator) PollOptions(options []string) error {
	if len(options) > v.MaxPollOptions {
		return errors.InvalidArgument(fmt.Sprintf("Too many poll options (max %d)", v.MaxPollOptions))
	}
	return nil
}

type CommentValidator struct {
	MaxBodyLength int
}

func (v *CommentValidator) Body(body string) error {
	if len(body) == 0 {
		return errors.InvalidArgument("Comment is empty")
	}
	if utf8.RuneCountInString(body) > v.MaxBodyLength {
		return errors.InvalidArgument(fmt.Sprintf("Comment is too long (max %d characters)", v.MaxBodyLength))
	}
	return nil
}

type NameValidator struct{}

// Name checks section and channel names.
func (NameValidator) Name(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return errors.InvalidArgument("Name is required")
	}
	if n > 80 {
		return errors.InvalidArgument("Name is too long")
	}
	return nil
}
