package rpc

import (
	"errors"

	"clipshare/internal/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus converts a backend error into a gRPC status. The two membership
// sentinels get their own codes so the client can rebuild them.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateMembership):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrMissingMembership):
		return status.Error(codes.FailedPrecondition, err.Error())
	}

	code := codes.Internal
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		code = codes.Unauthenticated
	case domain.KindForbidden:
		code = codes.PermissionDenied
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindInvalid:
		code = codes.InvalidArgument
	case domain.KindConflict:
		code = codes.Aborted
	case domain.KindRemoteFetch, domain.KindRemoteMutation:
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}

// fromStatus converts a call error back into a domain error. Transport and
// server failures take the fallback kind.
func fromStatus(err error, fallback domain.ErrorKind, op string) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return domain.E(fallback, op, err)
	}

	msg := errors.New(st.Message())
	switch st.Code() {
	case codes.Unauthenticated:
		return domain.E(domain.KindUnauthenticated, op, msg)
	case codes.PermissionDenied:
		return domain.E(domain.KindForbidden, op, msg)
	case codes.NotFound:
		return domain.E(domain.KindNotFound, op, msg)
	case codes.InvalidArgument:
		return domain.E(domain.KindInvalid, op, msg)
	case codes.AlreadyExists:
		return domain.E(domain.KindConflict, op, domain.ErrDuplicateMembership)
	case codes.FailedPrecondition:
		return domain.E(domain.KindConflict, op, domain.ErrMissingMembership)
	case codes.Aborted:
		return domain.E(domain.KindConflict, op, msg)
	default:
		return domain.E(fallback, op, msg)
	}
}
