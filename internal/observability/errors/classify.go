// Package errors turns errors into short, bounded labels for metrics and
// failure notifications.
package errors

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// Classify labels err. The first rule that matches wins:
//
//	*apperrors.AppError anywhere in the chain   its code
//	context deadline / cancellation             deadline_exceeded / canceled
//	*pgconn.PgError                             postgres_<SQLSTATE class>
//	net.Error timeout, other net.Error          network_timeout / network
//	JSON syntax or type errors                  decode
//	anything else                               package_type of the innermost error
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	if goerrors.Is(err, context.DeadlineExceeded) {
		return "deadline_exceeded"
	}
	if goerrors.Is(err, context.Canceled) {
		return "canceled"
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		return "postgres_" + strings.ToLower(pgErr.Code[:2])
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout"
		}
		return "network"
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if goerrors.As(err, &syntaxErr) || goerrors.As(err, &typeErr) {
		return "decode"
	}

	return typeLabel(innermost(err))
}

func innermost(err error) error {
	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func typeLabel(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if label := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_")); label != "" {
		return label
	}
	return "unknown"
}
