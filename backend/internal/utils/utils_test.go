package utils

import (
	"strings"
	"testing"

	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/stretchr/testify/assert"
)

func TestThreadValidator(t *testing.T) {
	v := &ThreadValidator{MaxTitleLength: 10, MaxBodyLength: 20, MaxPollOptions: 2}

	assert.NoError(t, v.Title("short"))
	assert.True(t, errors.IsInvalidArgument(v.Title("")))
	assert.True(t, errors.IsInvalidArgument(v.Title(strings.Repeat("é", 11))))
	assert.NoError(t, v.Title(strings.Repeat("é", 10)), "length counts runes, not bytes")

	assert.NoError(t, v.Body(""))
	assert.True(t, errors.IsInvalidArgument(v.Body(strings.Repeat("a", 21))))

	assert.NoError(t, v.PollOptions([]string{"a", "b"}))
	assert.True(t, errors.IsInvalidArgument(v.PollOptions([]string{"a", "b", "c"})))
}

func TestCommentValidator(t *testing.T) {
	v := &CommentValidator{MaxBodyLength: 5}
	assert.NoError(t, v.Body("hoi"))
	assert.True(t, errors.IsInvalidArgument(v.Body("")))
	assert.True(t, errors.IsInvalidArgument(v.Body("hallo!")))
}
