package captchasvc

import (
	"context"

	"github.com/hekima/shindano/core/user"
)

// insecureVerifier accepts any non-empty value. It stands in until the
// captcha backend is wired; registration still rejects blank captchas.
type insecureVerifier struct{}

var _ user.CaptchaVerifier = (*insecureVerifier)(nil)

func NewInsecureVerifier() user.CaptchaVerifier {
	return &insecureVerifier{}
}

func (v insecureVerifier) Check(_ context.Context, value string) bool {
	return value != ""
}
