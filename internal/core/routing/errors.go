package routing

import "errors"

var (
	// ErrHTLExhausted 剩余跳数已耗尽
	ErrHTLExhausted = errors.New("routing: hops to live exhausted")

	// ErrNoRoute 没有满足过滤条件的下一跳
	ErrNoRoute = errors.New("routing: no route to target")
)
