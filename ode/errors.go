package ode

import (
	"errors"
	"fmt"
)

var (
	// ErrIntegrationFailure 积分失败（所有求解错误都匹配该错误）
	ErrIntegrationFailure = errors.New("ode: integration failure")

	// ErrStepTooSmall 自适应步长低于最小值
	ErrStepTooSmall = errors.New("ode: step size underflow")

	// ErrMaxSteps 达到最大步数
	ErrMaxSteps = errors.New("ode: maximum step count reached")

	// ErrNonFinite 状态或导数出现 NaN/Inf
	ErrNonFinite = errors.New("ode: non-finite state")

	// ErrInvalidConfig 设置不合法
	ErrInvalidConfig = errors.New("ode: invalid config")

	// ErrOutOfRange 稠密输出时间超出积分区间
	ErrOutOfRange = errors.New("ode: time out of range")
)

// IntegrationError 带上下文的积分错误
type IntegrationError struct {
	Step    int       // 失败时的步数
	Time    float64   // 失败时间
	State   []float64 // 失败前最后一个有效状态
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%v (t=%.6e, step=%d)", e.Wrapped, e.Time, e.Step)
}

func (e *IntegrationError) Unwrap() error { return e.Wrapped }

// Is 使 errors.Is(err, ErrIntegrationFailure) 成立
func (e *IntegrationError) Is(target error) bool { return target == ErrIntegrationFailure }

func fail(err error, step int, t float64, y []float64) error {
	return &IntegrationError{Step: step, Time: t, State: append([]float64(nil), y...), Wrapped: err}
}
