package middleware

import (
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
)

type Middleware struct {
	log logger.Logger
}

func NewMiddleware(log logger.Logger) *Middleware {
	return &Middleware{log: log}
}
