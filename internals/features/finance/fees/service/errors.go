// file: internals/features/finance/fees/service/errors.go
package service

import "errors"

var (
	ErrFeeNotFound      = errors.New("fee account not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidSignature = errors.New("signature verification failed")
	ErrGateway          = errors.New("payment gateway error")
	ErrConcurrentUpdate = errors.New("fee account busy, retry")
	ErrForbidden        = errors.New("fee account belongs to another student")
)
