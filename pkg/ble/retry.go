package ble

import (
	"context"

	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxRetryAttempts = 5

func retry(ctx context.Context, logger *logrus.Entry, method string, fn func() error) error {
	err := errors.New("not error")
	attempts := 0
	for err != nil && attempts < maxRetryAttempts {
		if attempts > 0 {
			logger.WithError(err).WithField("attempt", attempts).Warn(method + " failed, retrying")
		}
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), method+" issue: ")
		}
		attempts++
		err = util.CatchErrs(fn)
	}
	if err != nil {
		return errors.Wrap(err, method+" exceeded attempts issue: ")
	}
	return nil
}
