package nftstake

import "errors"

var (
	ErrNilState                = errors.New("nftstake: state not configured")
	ErrNilResolver             = errors.New("nftstake: collection resolver not configured")
	ErrPoolExists              = errors.New("nftstake: pool already initialised")
	ErrPoolNotFound            = errors.New("nftstake: pool not initialised")
	ErrPoolPaused              = errors.New("nftstake: pool paused")
	ErrUnauthorized            = errors.New("nftstake: unauthorized")
	ErrCollectionNotRecognized = errors.New("nftstake: collection not recognized")
	ErrAssetNotFound           = errors.New("nftstake: asset not found")
	ErrAssetAlreadyStaked      = errors.New("nftstake: asset already staked")
	ErrAssetUnknown            = errors.New("nftstake: asset has no custody record")
	ErrParticipantExists       = errors.New("nftstake: participant already registered")
	ErrParticipantNotFound     = errors.New("nftstake: participant not found")
	ErrSegmentNotFound         = errors.New("nftstake: ledger segment not found")
	ErrSegmentFull             = errors.New("nftstake: ledger segment full")
	ErrPreconditionFailed      = errors.New("nftstake: precondition failed")
	ErrArithmeticOverflow      = errors.New("nftstake: arithmetic overflow")
	ErrArithmeticUnderflow     = errors.New("nftstake: arithmetic underflow")
	ErrInvalidClockReading     = errors.New("nftstake: clock reading precedes last settlement")
	ErrInsufficientFunds       = errors.New("nftstake: insufficient funds")
	ErrInvalidAmount           = errors.New("nftstake: amount must be positive")
)
