package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

func Null() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func Default() *logrus.Logger {
	return logrus.StandardLogger()
}
