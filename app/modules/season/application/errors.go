package seasonservice

import "errors"

var (
	// ErrArchiveDisabled is returned by archive operations when no database is configured.
	ErrArchiveDisabled = errors.New("season archive is not configured")

	// ErrArchiveMismatch is returned when an archived code belongs to another roster.
	ErrArchiveMismatch = errors.New("archived season uses a different roster")

	// ErrInvalidSheet is returned when an uploaded race sheet cannot be read.
	ErrInvalidSheet = errors.New("invalid race sheet")

	// ErrInvalidRaceDate is returned when a submission's held-on text cannot be read.
	ErrInvalidRaceDate = errors.New("invalid race date")

	// ErrUnknownCompetitors is returned when a chart asks for names not on the roster.
	ErrUnknownCompetitors = errors.New("unknown competitors requested")
)
