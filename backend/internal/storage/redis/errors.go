package redis

import internal_errors "github.com/itchan-dev/kanaal/shared/errors"

func userNotFound() error    { return internal_errors.NotFound("user not found") }
func channelNotFound() error { return internal_errors.NotFound("channel not found") }
func threadNotFound() error  { return internal_errors.NotFound("thread not found") }
func pollNotFound() error    { return internal_errors.NotFound("poll not found") }
