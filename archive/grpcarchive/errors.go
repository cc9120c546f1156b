package grpcarchive

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"zephyra.io/zephyra/archive"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return archive.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed/undefined CIDs.
		return archive.ErrInvalidCID
	case codes.DataLoss:
		// Server uses DataLoss when bytes do not match the requested CID.
		return archive.ErrCIDMismatch
	default:
		// Best-effort: if the server sent a known archive error message, preserve it.
		switch st.Message() {
		case archive.ErrNotFound.Error():
			return archive.ErrNotFound
		case archive.ErrInvalidCID.Error():
			return archive.ErrInvalidCID
		case archive.ErrCIDMismatch.Error():
			return archive.ErrCIDMismatch
		default:
			return err
		}
	}
}
