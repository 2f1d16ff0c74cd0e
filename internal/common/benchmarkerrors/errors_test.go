package benchmarkerrors

import (
	"context"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindFromError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want Kind
	}{
		"nil":                              {nil, KindNone},
		"ErrSetup":                         {&ErrSetup{Store: "pg"}, KindSetup},
		"ErrTeardown":                      {&ErrTeardown{Store: "pg"}, KindTeardown},
		"ErrNotFound":                      {&ErrNotFound{}, KindNotFound},
		"ErrDuplicateKey":                  {&ErrDuplicateKey{}, KindDuplicateKey},
		"ErrTransient":                     {&ErrTransient{Err: errors.New("reset")}, KindTransient},
		"ErrPhaseTimeout":                  {&ErrPhaseTimeout{}, KindPhaseTimeout},
		"ErrFatalConfig":                   {&ErrFatalConfig{}, KindFatalConfig},
		"pkg.Error => ErrNotFound":         {errors.WithMessage(&ErrNotFound{}, "foo"), KindNotFound},
		"pkg.Error => ErrTransient":        {errors.Wrap(&ErrTransient{}, "foo"), KindTransient},
		"ErrSetup => ErrTransient":         {&ErrSetup{Err: &ErrTransient{}}, KindTransient},
		"context.Canceled":                 {errors.WithStack(context.Canceled), KindCancelled},
		"context.DeadlineExceeded":         {errors.WithStack(context.DeadlineExceeded), KindPhaseTimeout},
		"multierror => ErrNotFound":        {multierror.Append(nil, &ErrNotFound{}), KindNotFound},
		"pkg.Error":                        {errors.New("foo"), KindUnknown},
		"NewTransient":                     {NewTransient(errors.New("timeout")), KindTransient},
		"pkg.Error => ErrDuplicateKey":     {errors.WithMessagef(&ErrDuplicateKey{}, "order %d", 1), KindDuplicateKey},
		"pkg.Error => ErrFatalConfig":      {errors.WithStack(&ErrFatalConfig{Message: "scales"}), KindFatalConfig},
		"ErrPhaseTimeout => context error": {errors.Wrap(&ErrPhaseTimeout{}, context.Canceled.Error()), KindPhaseTimeout},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindFromError(tc.err))
		})
	}
}

func TestNewTransient_Nil(t *testing.T) {
	assert.NoError(t, NewTransient(nil))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsTransient(NewTransient(errors.New("x"))))
	assert.False(t, IsTransient(&ErrNotFound{}))
	assert.True(t, IsNotFound(errors.WithStack(&ErrNotFound{Type: "order", Value: "1"})))
	assert.False(t, IsNotFound(errors.New("x")))
	assert.True(t, IsDuplicateKey(errors.WithStack(&ErrDuplicateKey{})))
	assert.False(t, IsDuplicateKey(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `resource "abc" of type "order" does not exist`, (&ErrNotFound{Type: "order", Value: "abc"}).Error())
	assert.Equal(t, `resource "abc" does not exist; gone`, (&ErrNotFound{Value: "abc", Message: "gone"}).Error())
	assert.Equal(t, `resource "abc" of type "order" already exists`, (&ErrDuplicateKey{Type: "order", Value: "abc"}).Error())
	assert.Equal(t, "phase insert exceeded its time budget of 10m0s", (&ErrPhaseTimeout{Operation: "insert", Timeout: "10m0s"}).Error())
	assert.Equal(t, "setup of postgresql failed: boom", (&ErrSetup{Store: "postgresql", Err: errors.New("boom")}).Error())
	assert.Equal(t, "invalid configuration: scales", (&ErrFatalConfig{Message: "scales"}).Error())
}
