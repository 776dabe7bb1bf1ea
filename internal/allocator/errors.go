package allocator

import "errors"

var (
	ErrInvalidSlot        = errors.New("invalid slot")
	ErrSlotTaken          = errors.New("slot is already taken")
	ErrNotPending         = errors.New("procedure is not pending")
	ErrNotScheduled       = errors.New("procedure is not scheduled")
	ErrProcedureNotFound  = errors.New("procedure not found")
	ErrDuplicateProcedure = errors.New("procedure already exists")
)
