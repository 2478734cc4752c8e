package autherr

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCStatus maps a taxonomy error to a gRPC status with a non-enumerating
// message. Credential and token failures all surface as Unauthenticated with
// a generic message; storage failures surface as an opaque Internal.
func GRPCStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrWrongTokenKind),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrRefreshTokenReuse):
		return status.Error(codes.Unauthenticated, "invalid or expired credentials")
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, ErrTokenAlreadyConsumed):
		return status.Error(codes.FailedPrecondition, "token already used")
	case errors.Is(err, ErrConflict):
		return status.Error(codes.Aborted, "conflict, retry the request")
	case errors.Is(err, ErrMalformed):
		return status.Error(codes.InvalidArgument, "malformed request")
	default:
		return status.Error(codes.Internal, "internal error, try again")
	}
}
